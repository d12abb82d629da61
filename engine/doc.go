// SPDX-License-Identifier: EPL-2.0

// Package engine detects and repairs clicks in 16-bit stereo PCM.
//
// # Forward pass
//
// Each channel keeps a Tracker holding the last History inter-sample deltas.
// A sample whose delta to its predecessor exceeds the tracker's allowed
// maximum is a click candidate. The engine looks ahead up to Lookahead
// frames for a sample that is back within reach, interpolates linearly
// towards it and writes the interpolated value in place, unless the
// correction would move the sample by less than MinCorrection.
//
// # Recheck
//
// Every correction schedules a recheck Span frames later. By then the
// tracker has seen the context that followed the click, so corrections that
// turn out to fit the local volatility are reverted to their original
// values. Reverting one sample changes the delta its neighbour is judged
// against, so the recheck iterates until nothing changes.
//
// Channels are corrected independently; the two channels share only the
// frame reads and writes.
//
// # Index-only traversal
//
// With Declick disabled Run reads every frame once and changes nothing.
// This drives the cache flush cycle that feeds a peak index.
package engine
