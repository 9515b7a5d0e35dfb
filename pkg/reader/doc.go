// Package reader implements the local DataReader side of writer tracking.
//
// A Reader owns one writerinfo.WriterInfo per matched remote writer and acts
// as its Listener. It decides what happens to every incoming sample:
//
//   - samples from a durable writer are held back until the end of the
//     historic stream, then delivered in sequence order
//   - coherent samples are held until the writer's end-of-set control
//     resolves the set, then delivered together or dropped
//   - with exclusive ownership only the strongest alive writer of an
//     instance is delivered
//
// Liveliness is checked by a single timer that runs when the earliest lease
// of any alive writer is due. Liveliness changes are summarized in a
// LivelinessChangedStatus.
package reader
