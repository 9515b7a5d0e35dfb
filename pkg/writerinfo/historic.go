package writerinfo

import (
	"time"

	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
)

// BeginHistoricWait starts buffering samples until the end of historic data
// is signalled. If no signal arrives within the grace period the listener is
// asked to resume sample processing.
func (w *WriterInfo) BeginHistoricWait() {
	w.mu.Lock()
	w.waitingForHistoric = true
	w.mu.Unlock()

	w.historicTimer.Schedule(w.grace)

	w.logger.Debug("waiting for historic samples", "grace", w.grace)
	w.logEvent(log.Event{
		Category: log.CategoryHistoric,
		Historic: &log.HistoricEvent{Action: log.HistoricWaitBegin},
	})
}

// CancelHistoricWait abandons the historic wait and disarms the grace timer.
// Samples buffered so far are lost: they are neither returned nor delivered,
// so the buffer is empty whenever no wait is active. Callers that need them
// must end the wait with EndHistoricWait instead. Cancelling when no wait is
// active is a no-op.
func (w *WriterInfo) CancelHistoricWait() {
	w.mu.Lock()
	wasWaiting := w.waitingForHistoric
	w.waitingForHistoric = false
	dropped := w.historic.Len()
	w.historic.Clear(false)
	w.mu.Unlock()

	w.historicTimer.Cancel()

	if !wasWaiting {
		return
	}
	w.logger.Debug("historic wait cancelled", "dropped", dropped)
	w.logEvent(log.Event{
		Category: log.CategoryHistoric,
		Historic: &log.HistoricEvent{Action: log.HistoricWaitCancelled, Count: dropped},
	})
}

// OfferSample buffers s if a historic wait is active and returns true; the
// caller must not deliver it. It returns false when the sample is live.
// A sample whose sequence number is already buffered is absorbed; the first
// one is kept.
func (w *WriterInfo) OfferSample(s Sample) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.waitingForHistoric {
		return false
	}
	if w.historic.Has(s) {
		w.logger.Debug("duplicate historic sample ignored", "seq", s.Seq)
		return true
	}
	w.historic.ReplaceOrInsert(s)
	historicSamplesBuffered.Inc()
	return true
}

// EndHistoricWait ends the historic wait and hands off the buffered samples
// in sequence order. It blocks while an earlier hand-off is still being
// delivered. The second result is false when there is nothing to deliver.
//
// A caller that receives samples must call FinishHistoricDelivery once they
// have been delivered.
func (w *WriterInfo) EndHistoricWait() ([]Sample, bool) {
	w.mu.Lock()
	for w.deliveringHistoric {
		w.handOffDone.Wait()
	}

	if !w.waitingForHistoric {
		w.mu.Unlock()
		return nil, false
	}
	w.waitingForHistoric = false

	var samples []Sample
	if n := w.historic.Len(); n > 0 {
		samples = make([]Sample, 0, n)
		w.historic.Ascend(func(s Sample) bool {
			samples = append(samples, s)
			return true
		})
		w.historic.Clear(false)
		w.lastHistoricSeq = samples[len(samples)-1].Seq
		w.deliveringHistoric = true
	}
	w.mu.Unlock()

	w.historicTimer.Cancel()

	if len(samples) == 0 {
		w.logger.Debug("historic wait ended with nothing buffered")
		return nil, false
	}

	last := samples[len(samples)-1].Seq
	w.logger.Debug("historic samples handed off", "count", len(samples), "last_seq", last)
	historicHandOffs.WithLabelValues("end").Inc()
	w.logEvent(log.Event{
		Category: log.CategoryHistoric,
		Historic: &log.HistoricEvent{Action: log.HistoricHandOff, Count: len(samples), LastSeq: last},
	})
	return samples, true
}

// FinishHistoricDelivery marks the current hand-off as delivered and wakes
// callers blocked in EndHistoricWait.
func (w *WriterInfo) FinishHistoricDelivery() {
	w.mu.Lock()
	was := w.deliveringHistoric
	w.deliveringHistoric = false
	w.handOffDone.Broadcast()
	w.mu.Unlock()

	if was {
		w.logEvent(log.Event{
			Category: log.CategoryHistoric,
			Historic: &log.HistoricEvent{Action: log.HistoricDelivered},
		})
	}
}

// IsWaitingForHistoric returns true while samples are being buffered.
func (w *WriterInfo) IsWaitingForHistoric() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waitingForHistoric
}

// IsDeliveringHistoric returns true while a hand-off is in flight.
func (w *WriterInfo) IsDeliveringHistoric() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deliveringHistoric
}

// LastHistoricSeq returns the highest sequence number of the last hand-off,
// or seqnum.Unknown before the first one.
func (w *WriterInfo) LastHistoricSeq() seqnum.Number {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHistoricSeq
}

// BufferedHistoric returns the number of samples currently buffered.
func (w *WriterInfo) BufferedHistoric() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.historic.Len()
}

// historicGraceExpired runs on the grace timer.
func (w *WriterInfo) historicGraceExpired(now time.Time) {
	w.mu.Lock()
	waiting := w.waitingForHistoric
	buffered := w.historic.Len()
	w.mu.Unlock()

	if !waiting {
		return
	}

	w.logger.Info("historic grace period expired", "buffered", buffered, "at", now)
	historicHandOffs.WithLabelValues("timeout").Inc()
	w.logEvent(log.Event{
		Category: log.CategoryHistoric,
		Historic: &log.HistoricEvent{Action: log.HistoricTimeout, Count: buffered},
	})

	w.listener.ResumeSampleProcessing(w)
}
