// Package writerinfo tracks one remote DataWriter on behalf of a local
// DataReader.
//
// A WriterInfo holds the per-association state a reader needs once discovery
// has matched it with a writer:
//
//   - liveliness: NOT_SET, ALIVE and DEAD, driven by MarkActivity and
//     CheckActivity against the writer's lease duration
//   - historic samples: durable data buffered while the reader waits for the
//     end of the historic stream, then handed off in one batch
//   - coherent sets: the sequence numbers received for the current set,
//     compared against the writer's end-of-set declaration
//   - exclusive ownership: a per-instance cache of ownership decisions
//
// State transitions are reported to a Listener. Listener methods are always
// invoked with the WriterInfo lock released, so they may call back into the
// same WriterInfo.
//
// The historic grace timer holds only a weak reference to its WriterInfo.
// Close stops the timer and waits for a running callback to return; it must
// not be called from a Listener method triggered by that timer.
package writerinfo
