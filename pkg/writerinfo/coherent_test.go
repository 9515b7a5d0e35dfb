package writerinfo

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
)

var testPublisher = ident.MustParse("01020304.05060708.090a0b0c.00000003")

func recordAll(w *WriterInfo, seqs ...seqnum.Number) {
	for _, seq := range seqs {
		if w.RecordCoherentSample(seq) {
			w.BeginCoherentChange(false, testPublisher)
		}
	}
}

func declare(numSamples uint32, last seqnum.Number) coherent.Control {
	return coherent.Control{
		PublisherID: testPublisher,
		Samples:     coherent.WriterSample{NumSamples: numSamples, LastSample: last},
	}
}

func TestEvaluateCompletion(t *testing.T) {
	tests := []struct {
		name     string
		received []seqnum.Number
		control  *coherent.Control
		want     coherent.State
	}{
		{"no declaration", []seqnum.Number{1, 2, 3}, nil, coherent.NotCompletedYet},
		{"contiguous", []seqnum.Number{1, 2, 3}, ptr(declare(3, 3)), coherent.Completed},
		{"gap", []seqnum.Number{1, 3}, ptr(declare(3, 3)), coherent.NotCompletedYet},
		{"overrun", []seqnum.Number{1, 2, 3, 4}, ptr(declare(3, 3)), coherent.Rejected},
		{"short", []seqnum.Number{1, 2}, ptr(declare(3, 3)), coherent.NotCompletedYet},
		{"out of order", []seqnum.Number{1, 3, 2}, ptr(declare(3, 3)), coherent.Completed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWriter(t, NopListener{}, 0)
			recordAll(w, tt.received...)
			if tt.control != nil {
				w.ApplyRemoteCoherentInfo(*tt.control)
			}
			assert.Equal(t, tt.want, w.EvaluateCompletion())
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestRecordCoherentSampleStartsSetFromMin(t *testing.T) {
	w, _ := newTestWriter(t, NopListener{}, 0)

	assert.True(t, w.RecordCoherentSample(5))
	assert.False(t, w.RecordCoherentSample(7))

	assert.Equal(t, []seqnum.Range{{Low: 1, High: 5}, {Low: 7, High: 7}}, w.LocalCoherentRanges())
	assert.Equal(t, uint32(2), w.CoherentSampleCount())
}

func TestBeginCoherentChangeRecordsContext(t *testing.T) {
	w, _ := newTestWriter(t, NopListener{}, 0)

	w.RecordCoherentSample(1)
	w.BeginCoherentChange(true, testPublisher)

	assert.True(t, w.IsGroupCoherent())
	assert.Equal(t, testPublisher, w.PublisherID())
	assert.Equal(t, uint32(2), w.CoherentSampleCount())

	// The set stays open; the next sample extends it.
	assert.False(t, w.RecordCoherentSample(2))
	assert.Equal(t, []seqnum.Range{{Low: 1, High: 2}}, w.LocalCoherentRanges())
}

func TestResetCoherentInfo(t *testing.T) {
	w, _ := newTestWriter(t, NopListener{}, 0)

	recordAll(w, 1, 2)
	w.ApplyRemoteCoherentInfo(declare(2, 2))
	require.Equal(t, coherent.Completed, w.EvaluateCompletion())

	w.ResetCoherentInfo()

	assert.Zero(t, w.CoherentSampleCount())
	assert.False(t, w.IsGroupCoherent())
	assert.Equal(t, ident.Unknown, w.PublisherID())
	assert.Empty(t, w.LocalCoherentRanges())
	assert.True(t, w.RemoteCoherentInfo().IsZero())
	assert.Nil(t, w.GroupCoherentSamples())
	assert.Equal(t, coherent.NotCompletedYet, w.EvaluateCompletion())

	// The next sample opens a fresh set.
	assert.True(t, w.RecordCoherentSample(10))
	assert.Equal(t, []seqnum.Range{{Low: 1, High: 10}}, w.LocalCoherentRanges())
}

func TestApplyRemoteCoherentInfoMismatchIsLenient(t *testing.T) {
	var buf bytes.Buffer
	events := &recordingLogger{}
	w := New(nil, testReader, testWriter, Config{
		Scheduler:   timertask.NewFakeScheduler(testStart),
		Logger:      slog.New(slog.NewTextHandler(&buf, nil)),
		EventLogger: events,
	})
	defer w.Close()

	recordAll(w, 1, 2, 3)

	other := ident.MustParse("0a0b0c0d.05060708.090a0b0c.00000003")
	w.ApplyRemoteCoherentInfo(coherent.Control{
		PublisherID:   other,
		GroupCoherent: true,
		Samples:       coherent.WriterSample{NumSamples: 3, LastSample: 3},
	})

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "coherent control inconsistent")
	require.Len(t, events.byCategory(log.CategoryError), 1)

	// The declaration is applied regardless.
	assert.Equal(t, coherent.WriterSample{NumSamples: 3, LastSample: 3}, w.RemoteCoherentInfo())
	assert.Equal(t, coherent.Completed, w.EvaluateCompletion())
	// Tracked context is not overwritten.
	assert.Equal(t, testPublisher, w.PublisherID())
}

func TestApplyRemoteCoherentInfoConsistent(t *testing.T) {
	var buf bytes.Buffer
	w := New(nil, testReader, testWriter, Config{
		Scheduler: timertask.NewFakeScheduler(testStart),
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})
	defer w.Close()

	recordAll(w, 1)
	w.ApplyRemoteCoherentInfo(declare(1, 1))

	assert.Empty(t, buf.String())
}

func TestApplyRemoteCoherentInfoGroupUsesOwnEntry(t *testing.T) {
	w, _ := newTestWriter(t, NopListener{}, 0)

	for _, seq := range []seqnum.Number{1, 2} {
		if w.RecordCoherentSample(seq) {
			w.BeginCoherentChange(true, testPublisher)
		}
	}

	sibling := ident.MustParse("01020304.05060708.090a0b0c.00000202")
	w.ApplyRemoteCoherentInfo(coherent.Control{
		PublisherID:   testPublisher,
		GroupCoherent: true,
		Samples:       coherent.WriterSample{NumSamples: 5, LastSample: 9},
		GroupSamples: map[ident.GUID]coherent.WriterSample{
			testWriter: {NumSamples: 2, LastSample: 2},
			sibling:    {NumSamples: 3, LastSample: 9},
		},
	})

	assert.Equal(t, coherent.WriterSample{NumSamples: 2, LastSample: 2}, w.RemoteCoherentInfo())
	assert.Len(t, w.GroupCoherentSamples(), 2)
	assert.Equal(t, coherent.Completed, w.EvaluateCompletion())
}

func TestCoherentEvents(t *testing.T) {
	events := &recordingLogger{}
	w := New(nil, testReader, testWriter, Config{
		Scheduler:   timertask.NewFakeScheduler(testStart),
		EventLogger: events,
	})
	defer w.Close()

	recordAll(w, 1, 2)
	w.ApplyRemoteCoherentInfo(declare(3, 3))
	assert.Equal(t, coherent.NotCompletedYet, w.EvaluateCompletion())
	assert.Empty(t, events.byCategory(log.CategoryCoherent))

	recordAll(w, 3, 4)
	assert.Equal(t, coherent.Rejected, w.EvaluateCompletion())

	got := events.byCategory(log.CategoryCoherent)
	require.Len(t, got, 1)
	assert.Equal(t, "REJECTED", got[0].Coherent.Result)
	assert.Equal(t, seqnum.Number(4), got[0].Coherent.LocalHigh)
	assert.Equal(t, seqnum.Number(3), got[0].Coherent.LastSample)
	assert.Equal(t, testPublisher, got[0].Coherent.PublisherID)
}
