package log

import (
	"context"
	"log/slog"
)

// SlogAdapter renders reader events as slog records, one line per liveliness,
// historic, coherent or ownership decision.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Error events are logged at Warn,
// everything else at Debug.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("reader", event.ReaderID.String()),
		slog.String("writer", event.WriterID.String()),
		slog.String("category", event.Category.String()),
	}
	level := slog.LevelDebug

	switch {
	case event.Liveliness != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Liveliness.OldState),
			slog.String("new_state", event.Liveliness.NewState),
		)
		if event.Liveliness.LeaseDuration > 0 {
			attrs = append(attrs, slog.Duration("lease", event.Liveliness.LeaseDuration))
		}
		if event.Liveliness.Removed {
			attrs = append(attrs, slog.Bool("removed", true))
		}
	case event.Historic != nil:
		attrs = append(attrs, slog.String("action", event.Historic.Action.String()))
		if event.Historic.Count > 0 {
			attrs = append(attrs,
				slog.Int("count", event.Historic.Count),
				slog.String("last_seq", event.Historic.LastSeq.String()),
			)
		}
	case event.Coherent != nil:
		attrs = append(attrs,
			slog.String("result", event.Coherent.Result),
			slog.Uint64("num_samples", uint64(event.Coherent.NumSamples)),
			slog.String("last_sample", event.Coherent.LastSample.String()),
			slog.String("local_high", event.Coherent.LocalHigh.String()),
		)
		if event.Coherent.Group {
			attrs = append(attrs, slog.String("publisher", event.Coherent.PublisherID.String()))
		}
	case event.Ownership != nil:
		attrs = append(attrs,
			slog.Int("instance", int(event.Ownership.Instance)),
			slog.String("owner", event.Ownership.Owner.String()),
			slog.Int("strength", int(event.Ownership.Strength)),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
