// SPDX-License-Identifier: EPL-2.0

// Package index writes a peak-envelope index next to a WAVE file in the
// broadcast v2.1 layout.
//
// The file starts with ten big-endian 32-bit words: the scale (frames per
// entry), five zeros, then the start and end offsets of the channel A and
// channel B entry tables. Each table holds one (high, low) pair of
// little-endian 16-bit values per entry.
//
// A Writer is fed from the sample cache: its Add method is a
// cache.FlushFunc, so the index is built as a side effect of the pass over
// the samples.
package index
