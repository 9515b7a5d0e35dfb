package coherent

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/dcps-reader/dcps-go/pkg/ident"
)

// encMode is the CBOR encoder mode for control messages.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for control messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create control CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create control CBOR decoder mode: %v", err))
	}
}

// wireControl is the encoded layout of a Control.
type wireControl struct {
	PublisherID    ident.GUID       `cbor:"1,keyasint"`
	GroupCoherent  bool             `cbor:"2,keyasint,omitempty"`
	Samples        WriterSample     `cbor:"3,keyasint"`
	InstanceCounts map[int32]uint32 `cbor:"4,keyasint,omitempty"`
	GroupSamples   []wireGroupEntry `cbor:"5,keyasint,omitempty"`
}

// wireGroupEntry is one writer's declaration in a group set.
type wireGroupEntry struct {
	Writer  ident.GUID   `cbor:"1,keyasint"`
	Samples WriterSample `cbor:"2,keyasint"`
}

// Encode validates and encodes a control message.
func Encode(c Control) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	w := wireControl{
		PublisherID:   c.PublisherID,
		GroupCoherent: c.GroupCoherent,
		Samples:       c.Samples,
	}
	if len(c.InstanceCounts) > 0 {
		w.InstanceCounts = make(map[int32]uint32, len(c.InstanceCounts))
		for h, n := range c.InstanceCounts {
			w.InstanceCounts[int32(h)] = n
		}
	}
	for writer, ws := range c.GroupSamples {
		w.GroupSamples = append(w.GroupSamples, wireGroupEntry{Writer: writer, Samples: ws})
	}
	sort.Slice(w.GroupSamples, func(i, j int) bool {
		return w.GroupSamples[i].Writer.Compare(w.GroupSamples[j].Writer) < 0
	})

	data, err := encMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode control: %w", err)
	}
	return data, nil
}

// Decode decodes and validates a control message.
func Decode(data []byte) (Control, error) {
	var w wireControl
	if err := decMode.Unmarshal(data, &w); err != nil {
		return Control{}, fmt.Errorf("failed to decode control: %w", err)
	}

	c := Control{
		PublisherID:   w.PublisherID,
		GroupCoherent: w.GroupCoherent,
		Samples:       w.Samples,
	}
	if len(w.InstanceCounts) > 0 {
		c.InstanceCounts = make(map[ident.InstanceHandle]uint32, len(w.InstanceCounts))
		for h, n := range w.InstanceCounts {
			c.InstanceCounts[ident.InstanceHandle(h)] = n
		}
	}
	if len(w.GroupSamples) > 0 {
		c.GroupSamples = make(map[ident.GUID]WriterSample, len(w.GroupSamples))
		for _, e := range w.GroupSamples {
			c.GroupSamples[e.Writer] = e.Samples
		}
	}

	if err := c.Validate(); err != nil {
		return Control{}, err
	}
	return c, nil
}
