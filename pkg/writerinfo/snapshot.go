package writerinfo

import (
	"time"

	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
)

// Snapshot is a consistent copy of a WriterInfo's state for diagnostics.
type Snapshot struct {
	ReaderID      ident.GUID    `json:"reader_id"`
	WriterID      ident.GUID    `json:"writer_id"`
	State         string        `json:"state"`
	LastActivity  time.Time     `json:"last_activity"`
	LeaseDuration time.Duration `json:"lease_duration"`

	WaitingForHistoric bool          `json:"waiting_for_historic"`
	DeliveringHistoric bool          `json:"delivering_historic"`
	BufferedHistoric   int           `json:"buffered_historic"`
	LastHistoricSeq    seqnum.Number `json:"last_historic_seq"`

	CoherentSamples uint32                `json:"coherent_samples"`
	GroupCoherent   bool                  `json:"group_coherent"`
	PublisherID     ident.GUID            `json:"publisher_id"`
	LocalCoherent   []seqnum.Range        `json:"local_coherent,omitempty"`
	RemoteCoherent  coherent.WriterSample `json:"remote_coherent"`

	OwnerEvaluations int `json:"owner_evaluations"`
}

// Snapshot returns a copy of the current state.
func (w *WriterInfo) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Snapshot{
		ReaderID:           w.readerID,
		WriterID:           w.writerID,
		State:              w.state.String(),
		LastActivity:       w.lastActivity,
		LeaseDuration:      w.leaseDuration,
		WaitingForHistoric: w.waitingForHistoric,
		DeliveringHistoric: w.deliveringHistoric,
		BufferedHistoric:   w.historic.Len(),
		LastHistoricSeq:    w.lastHistoricSeq,
		CoherentSamples:    w.coherentSamples,
		GroupCoherent:      w.groupCoherent,
		PublisherID:        w.publisherID,
		LocalCoherent:      w.localCoherent.Ranges(),
		RemoteCoherent:     w.remoteCoherent,
		OwnerEvaluations:   len(w.ownerEvaluated),
	}
}
