// Package detector holds the vocabulary of the people detector.
//
// Action values drive the detection cycle, State values describe where the
// cycle is. Both are closed sets with fixed labels used in logs, config and
// on the wire. Transition is the pure state machine over them; Snapshot
// captures the cycle at a point in time. The package also carries the NotUsed
// sentinel and the millisecond time units.
package detector
