package reader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// Reader errors.
var (
	ErrWriterExists  = errors.New("writer already associated")
	ErrUnknownWriter = errors.New("unknown writer")
	ErrClosed        = errors.New("reader closed")
)

// Config holds Reader configuration.
type Config struct {
	// LeaseDuration is the default liveliness lease for new writers. Zero
	// disables liveliness expiry.
	LeaseDuration time.Duration

	// HistoricGracePeriod bounds a historic wait. Zero selects
	// writerinfo.DefaultHistoricGracePeriod.
	HistoricGracePeriod time.Duration

	// ExclusiveOwnership restricts delivery of each instance to its
	// strongest alive writer.
	ExclusiveOwnership bool

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// EventLogger receives protocol events. Nil discards them.
	EventLogger log.Logger

	// Scheduler drives liveliness and historic timers. Nil selects
	// timertask.System.
	Scheduler timertask.Scheduler
}

// WriterOptions describes a newly matched writer.
type WriterOptions struct {
	// Durable writers replay historic samples before live data.
	Durable bool

	// OwnershipStrength ranks the writer under exclusive ownership.
	OwnershipStrength int32

	// LeaseDuration overrides Config.LeaseDuration when positive.
	LeaseDuration time.Duration
}

// Delivery is a sample handed to the application.
type Delivery struct {
	WriterID ident.GUID
	Sample   writerinfo.Sample
	Historic bool
	Coherent bool
}

// SampleHandler receives delivered samples.
type SampleHandler func(Delivery)

// LivelinessHandler receives liveliness status changes.
type LivelinessHandler func(LivelinessChangedStatus)

// livelinessCount records which liveliness counter a writer contributes to.
type livelinessCount uint8

const (
	countedNone livelinessCount = iota
	countedAlive
	countedNotAlive
)

// association is the reader's view of one matched writer.
type association struct {
	info     *writerinfo.WriterInfo
	strength int32
	durable  bool
	counted  livelinessCount

	// coherent samples held until the set resolves
	held []writerinfo.Sample

	// completed sets waiting for the historic hand-off to be delivered
	deferred  [][]writerinfo.Sample
	releasing bool
}

// Reader is a local DataReader tracking its matched writers.
type Reader struct {
	id     ident.GUID
	cfg    Config
	logger *slog.Logger
	events log.Logger
	sched  timertask.Scheduler

	livelinessTimer *timertask.Task[Reader]

	mu           sync.Mutex
	writers      map[ident.GUID]*association
	owners       map[ident.InstanceHandle]ident.GUID
	status       LivelinessChangedStatus
	nextCheck    time.Time
	onSample     SampleHandler
	onLiveliness LivelinessHandler
	closed       bool
}

// New creates a Reader identified by id.
func New(id ident.GUID, cfg Config) *Reader {
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
	cfg.Logger = logger
	cfg.EventLogger = events
	cfg.Scheduler = sched

	r := &Reader{
		id:      id,
		cfg:     cfg,
		logger:  logger.With("reader", id.Short()),
		events:  events,
		sched:   sched,
		writers: make(map[ident.GUID]*association),
		owners:  make(map[ident.InstanceHandle]ident.GUID),
	}
	r.livelinessTimer = timertask.New(sched, r, (*Reader).checkLiveliness)
	return r
}

// ID returns the reader's identifier.
func (r *Reader) ID() ident.GUID {
	return r.id
}

// OnSample sets the handler for delivered samples.
func (r *Reader) OnSample(fn SampleHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSample = fn
}

// OnLivelinessChanged sets the handler for liveliness status changes.
func (r *Reader) OnLivelinessChanged(fn LivelinessHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLiveliness = fn
}

// AddWriter associates a writer. A durable writer starts in a historic wait.
func (r *Reader) AddWriter(writerID ident.GUID, opts WriterOptions) error {
	lease := opts.LeaseDuration
	if lease <= 0 {
		lease = r.cfg.LeaseDuration
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if _, exists := r.writers[writerID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWriterExists, writerID)
	}
	info := writerinfo.New(r, r.id, writerID, writerinfo.Config{
		LeaseDuration:       lease,
		HistoricGracePeriod: r.cfg.HistoricGracePeriod,
		Logger:              r.cfg.Logger,
		EventLogger:         r.events,
		Scheduler:           r.sched,
	})
	r.writers[writerID] = &association{
		info:     info,
		strength: opts.OwnershipStrength,
		durable:  opts.Durable,
	}
	r.mu.Unlock()

	matchedWriters.Inc()
	r.logger.Info("writer added", "writer", writerID.Short(),
		"durable", opts.Durable, "strength", opts.OwnershipStrength, "lease", lease)

	if opts.Durable {
		info.BeginHistoricWait()
	}
	return nil
}

// RemoveWriter ends the association with a writer. Held samples are dropped.
func (r *Reader) RemoveWriter(writerID ident.GUID) error {
	r.mu.Lock()
	a, ok := r.writers[writerID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWriter, writerID)
	}

	// The listener callback still finds the association.
	a.info.MarkRemoved()

	r.mu.Lock()
	if r.writers[writerID] != a {
		// Close or a concurrent RemoveWriter released it.
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWriter, writerID)
	}
	delete(r.writers, writerID)
	dropped := len(a.held)
	for _, set := range a.deferred {
		dropped += len(set)
	}
	a.held = nil
	a.deferred = nil
	r.mu.Unlock()

	if dropped > 0 {
		samplesDropped.WithLabelValues("removed").Add(float64(dropped))
	}
	a.info.Close()
	matchedWriters.Dec()
	r.logger.Info("writer removed", "writer", writerID.Short(), "dropped", dropped)
	return nil
}

// Writer returns the record of an associated writer.
func (r *Reader) Writer(writerID ident.GUID) (*writerinfo.WriterInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.writers[writerID]
	if !ok {
		return nil, false
	}
	return a.info, true
}

// Writers returns snapshots of every associated writer ordered by id.
func (r *Reader) Writers() []writerinfo.Snapshot {
	r.mu.Lock()
	infos := make([]*writerinfo.WriterInfo, 0, len(r.writers))
	for _, a := range r.writers {
		infos = append(infos, a.info)
	}
	r.mu.Unlock()

	snaps := make([]writerinfo.Snapshot, 0, len(infos))
	for _, info := range infos {
		snaps = append(snaps, info.Snapshot())
	}
	slices.SortFunc(snaps, func(a, b writerinfo.Snapshot) int {
		return a.WriterID.Compare(b.WriterID)
	})
	return snaps
}

// Close releases every association and stops the liveliness timer. It waits
// for a running liveliness check, so it must not be called from a handler
// that a lease expiry or grace timeout invoked.
func (r *Reader) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	assocs := make([]*association, 0, len(r.writers))
	for _, a := range r.writers {
		assocs = append(assocs, a)
	}
	clear(r.writers)
	clear(r.owners)
	r.mu.Unlock()

	r.livelinessTimer.Stop()
	for _, a := range assocs {
		a.info.Close()
		matchedWriters.Dec()
	}
	r.logger.Info("reader closed", "writers", len(assocs))
}

// lookup returns the association of writerID.
func (r *Reader) lookup(writerID ident.GUID) (*association, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	a, ok := r.writers[writerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWriter, writerID)
	}
	return a, nil
}

// associationOf returns the association owning w. Caller holds r.mu.
func (r *Reader) associationOf(w *writerinfo.WriterInfo) *association {
	a, ok := r.writers[w.WriterID()]
	if !ok || a.info != w {
		return nil
	}
	return a
}
