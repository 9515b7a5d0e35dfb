// Package coherent describes coherent change sets as seen by a reader.
//
// A DataWriter publishing with coherent access groups samples into a set
// that the reader must apply all-or-nothing. When the set ends the writer
// sends a Control message declaring how many samples the set holds and the
// sequence number of its last sample. For group coherent access the set spans
// every writer of one publisher and the Control carries a per-writer
// breakdown.
//
// # Completion
//
// The reader tracks the sequence numbers it has received for the set in a
// seqnum.Set and compares them with the writer's declaration using Evaluate:
//
//   - NotCompletedYet: no declaration yet, or gaps remain below the declared end
//   - Completed: received numbers are contiguous and end at the declared last sample
//   - Rejected: a sample beyond the declared end arrived; the set is unusable
//
// # Wire Format
//
// Controls travel as CBOR maps with integer keys. Encode and Decode validate
// the message before returning.
package coherent
