// Package seqnum provides sequence numbers and a disjoint range set over them.
//
// Every sample a DataWriter publishes carries a monotonically increasing
// sequence number. A reader tracks which numbers it has seen for a purpose
// (for example the members of a coherent set) with a Set: an ordered
// collection of non-overlapping, coalesced ranges.
//
// # Ranges
//
// Inserting a number or a range merges it with any overlapping or adjacent
// range, so a Set holding {1,2,3} has a single range [1-3]. A Set with more
// than one range is disjoint: it has at least one gap.
//
//	var s seqnum.Set
//	s.InsertRange(seqnum.Range{Low: seqnum.Min, High: 1})
//	s.Insert(3)
//	s.Disjoint()      // true, 2 is missing
//	s.High()          // 3
//	s.Insert(2)
//	s.Disjoint()      // false
//
// Set is not safe for concurrent use; owners guard it with their own lock.
package seqnum
