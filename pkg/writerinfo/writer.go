package writerinfo

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
)

// DefaultHistoricGracePeriod bounds how long a historic wait can hold back
// live delivery when no end-of-historic signal arrives.
const DefaultHistoricGracePeriod = 10 * time.Second

// Config holds WriterInfo configuration.
type Config struct {
	// LeaseDuration is the writer's liveliness lease. Zero disables
	// liveliness expiry.
	LeaseDuration time.Duration

	// HistoricGracePeriod overrides DefaultHistoricGracePeriod when positive.
	HistoricGracePeriod time.Duration

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// EventLogger receives protocol events. Nil discards them.
	EventLogger log.Logger

	// Scheduler arms the historic grace timer. Nil selects timertask.System.
	Scheduler timertask.Scheduler
}

// Sample is a data sample as seen by the bookkeeping layer. The payload is
// never inspected.
type Sample struct {
	Seq      seqnum.Number
	Instance ident.InstanceHandle
	Payload  []byte
}

func lessBySeq(a, b Sample) bool {
	return a.Seq < b.Seq
}

// WriterInfo is the reader-side record of one remote writer.
type WriterInfo struct {
	readerID ident.GUID
	writerID ident.GUID
	listener Listener
	logger   *slog.Logger
	events   log.Logger
	sched    timertask.Scheduler
	grace    time.Duration

	historicTimer *timertask.Task[WriterInfo]

	mu sync.Mutex

	// signalled when a historic hand-off finishes
	handOffDone *sync.Cond

	// Liveliness
	state         State
	lastActivity  time.Time
	leaseDuration time.Duration

	// Historic samples
	historic           *btree.BTreeG[Sample]
	waitingForHistoric bool
	deliveringHistoric bool
	lastHistoricSeq    seqnum.Number

	// Coherent set in progress
	coherentSamples uint32
	groupCoherent   bool
	publisherID     ident.GUID
	localCoherent   seqnum.Set
	remoteCoherent  coherent.WriterSample
	groupSamples    map[ident.GUID]coherent.WriterSample

	// Exclusive ownership
	ownerEvaluated map[ident.InstanceHandle]bool
}

// New creates the record for writerID as seen by readerID. A nil listener is
// replaced by NopListener.
func New(listener Listener, readerID, writerID ident.GUID, cfg Config) *WriterInfo {
	if listener == nil {
		listener = NopListener{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	events := cfg.EventLogger
	if events == nil {
		events = log.NoopLogger{}
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = timertask.System
	}
	grace := cfg.HistoricGracePeriod
	if grace <= 0 {
		grace = DefaultHistoricGracePeriod
	}

	w := &WriterInfo{
		readerID:        readerID,
		writerID:        writerID,
		listener:        listener,
		logger:          logger.With("reader", readerID.Short(), "writer", writerID.Short()),
		events:          events,
		sched:           sched,
		grace:           grace,
		state:           StateNotSet,
		leaseDuration:   cfg.LeaseDuration,
		historic:        btree.NewG(16, lessBySeq),
		lastHistoricSeq: seqnum.Unknown,
		ownerEvaluated:  make(map[ident.InstanceHandle]bool),
	}
	w.handOffDone = sync.NewCond(&w.mu)
	w.historicTimer = timertask.New(sched, w, (*WriterInfo).historicGraceExpired)
	return w
}

// WriterID returns the remote writer's identifier.
func (w *WriterInfo) WriterID() ident.GUID {
	return w.writerID
}

// ReaderID returns the local reader's identifier.
func (w *WriterInfo) ReaderID() ident.GUID {
	return w.readerID
}

// Close releases the record. Any pending historic wait is abandoned, the
// grace timer is stopped, and Close blocks until a running timer callback has
// returned. Close is idempotent.
func (w *WriterInfo) Close() {
	w.mu.Lock()
	w.waitingForHistoric = false
	w.historic.Clear(false)
	w.mu.Unlock()

	w.historicTimer.Stop()
}

// logEvent stamps and forwards a protocol event.
func (w *WriterInfo) logEvent(event log.Event) {
	event.Timestamp = w.sched.Now()
	event.ReaderID = w.readerID
	event.WriterID = w.writerID
	w.events.Log(event)
}
