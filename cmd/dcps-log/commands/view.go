// Package commands implements the dcps-log CLI commands.
package commands

import (
	"fmt"
	"io"

	"github.com/dcps-reader/dcps-go/pkg/log"
)

// timestampLayout renders event times with microsecond precision.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category *log.Category
	WriterID string
}

// RunView reads the log file and writes matching events to w.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	f := log.Filter{Category: filter.Category}
	if filter.WriterID != "" {
		id, err := parseGUID(filter.WriterID)
		if err != nil {
			return err
		}
		f.WriterID = &id
	}

	reader, err := log.NewFilteredReader(path, f)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return reader.Each(func(event log.Event) error {
		formatEvent(w, event)
		return nil
	})
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [reader>writer] CATEGORY Label
	ts := event.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [%s>%s] %s %s\n", ts,
		event.ReaderID.Short(), event.WriterID.Short(), event.Category, eventLabel(event))

	switch {
	case event.Liveliness != nil:
		l := event.Liveliness
		if l.OldState != "" && l.OldState != l.NewState {
			fmt.Fprintf(w, "  State: %s -> %s\n", l.OldState, l.NewState)
		} else {
			fmt.Fprintf(w, "  State: %s\n", l.NewState)
		}
		if l.LeaseDuration > 0 {
			fmt.Fprintf(w, "  Lease: %s\n", l.LeaseDuration)
		}
	case event.Historic != nil:
		if event.Historic.Count > 0 {
			fmt.Fprintf(w, "  Samples: %d\n", event.Historic.Count)
		}
		if event.Historic.LastSeq != 0 {
			fmt.Fprintf(w, "  Last: %s\n", event.Historic.LastSeq)
		}
	case event.Coherent != nil:
		c := event.Coherent
		fmt.Fprintf(w, "  Declared: %d samples, last %s\n", c.NumSamples, c.LastSample)
		fmt.Fprintf(w, "  Received up to: %s\n", c.LocalHigh)
		if c.Group {
			fmt.Fprintf(w, "  Publisher: %s\n", c.PublisherID)
		}
	case event.Ownership != nil:
		o := event.Ownership
		if o.Owner.IsUnknown() {
			fmt.Fprintf(w, "  Instance %s released\n", o.Instance)
		} else {
			fmt.Fprintf(w, "  Instance %s owned by %s (strength %d)\n", o.Instance, o.Owner, o.Strength)
		}
	case event.Error != nil:
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w)
}

// eventLabel returns a short label for the event payload.
func eventLabel(event log.Event) string {
	switch {
	case event.Liveliness != nil:
		if event.Liveliness.Removed {
			return "Removed"
		}
		return event.Liveliness.NewState
	case event.Historic != nil:
		return event.Historic.Action.String()
	case event.Coherent != nil:
		return event.Coherent.Result
	case event.Ownership != nil:
		return "Owner"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}
