// SPDX-License-Identifier: EPL-2.0

// Package cache provides a small set of read/write windows over an open
// file so that single-frame reads and writes issued by a forward scan cost
// about as much as sequential block I/O.
//
// # Windows
//
// A Cache owns a fixed number of windows (DefaultWindows), each a byte
// buffer of WindowSize bytes (a power of two, DefaultWindowSize by
// default). A read is served from the most recently used window when it
// covers the requested range, then from any covering window. On a miss the
// next window in round-robin order is flushed and refilled starting at the
// requested offset.
//
// # Deferred writes
//
// Writes land in the covering window and mark it dirty; the file is only
// touched when the window is flushed, either because it is recycled or
// because Flush or Invalidate is called. A write no window covers goes
// straight to the file and is counted in Stats.Bypassed.
//
// # Write-back offset
//
// Config.LeadOffset moves every flushed window LeadOffset bytes towards the
// start of the file. This is how a region whose leading silence is trimmed
// is compacted in place: the scan reads from the original position and the
// flushes write the same bytes earlier. While LeadOffset is non-zero a
// region must not be re-read after its window was flushed.
//
// # Flush notifications
//
// Config.OnFlush, when set, receives every flushed window together with
// the index of the first sample it holds, whether or not the window was
// dirty. The peak index writer is fed this way.
package cache
