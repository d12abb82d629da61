// SPDX-License-Identifier: EPL-2.0

// Package stream exposes a region of an open file as a 1-based array of
// stereo frames. Frame i lives at Base + (i-1)*pcm.FrameSize.
//
// Single-frame access goes through a cache.Cache; ReadFramesRaw bypasses it
// for the bulk silence scans that run before any frame is modified.
package stream

import (
	"errors"
	"fmt"

	"github.com/ik5/declick/cache"
	"github.com/ik5/declick/pcm"
)

// ErrOutOfRange is returned for frame indexes outside 1..Len.
var ErrOutOfRange = errors.New("stream: frame index out of range")

// SampleError reports a failed frame access together with the 1-based
// index of the offending frame.
type SampleError struct {
	Op    string
	Index int
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("%s error at sample %d: %v", e.Op, e.Index, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Stream is a frame view over a byte region of a file.
type Stream struct {
	file  cache.File
	cache *cache.Cache
	base  int64
	count int

	buf [pcm.FrameSize]byte
	raw []byte
}

// New returns a Stream of count frames starting at byte offset base of f.
func New(f cache.File, c *cache.Cache, base int64, count int) *Stream {
	return &Stream{
		file:  f,
		cache: c,
		base:  base,
		count: count,
	}
}

// Len returns the number of frames.
func (s *Stream) Len() int { return s.count }

// Base returns the byte offset of frame 1.
func (s *Stream) Base() int64 { return s.base }

// Cache returns the cache serving the stream.
func (s *Stream) Cache() *cache.Cache { return s.cache }

// Offset returns the byte offset of frame i.
func (s *Stream) Offset(i int) int64 {
	return s.base + int64(i-1)*pcm.FrameSize
}

// ReadFrame returns frame i.
func (s *Stream) ReadFrame(i int) (pcm.Frame, error) {
	if i < 1 || i > s.count {
		return pcm.Frame{}, &SampleError{Op: "read", Index: i, Err: ErrOutOfRange}
	}
	if err := s.cache.Read(s.file, s.Offset(i), s.buf[:], i-1); err != nil {
		return pcm.Frame{}, &SampleError{Op: "read", Index: i, Err: err}
	}
	return pcm.Decode(s.buf[:]), nil
}

// WriteFrame stores f as frame i.
func (s *Stream) WriteFrame(i int, f pcm.Frame) error {
	if i < 1 || i > s.count {
		return &SampleError{Op: "write", Index: i, Err: ErrOutOfRange}
	}
	pcm.Encode(s.buf[:], f)
	if err := s.cache.Write(s.file, s.Offset(i), s.buf[:]); err != nil {
		return &SampleError{Op: "write", Index: i, Err: err}
	}
	return nil
}

// ReadFramesRaw reads len(dst) contiguous frames starting at frame i with
// one positioned read, bypassing the cache windows.
func (s *Stream) ReadFramesRaw(i int, dst []pcm.Frame) error {
	if len(dst) == 0 {
		return nil
	}
	if i < 1 || i+len(dst)-1 > s.count {
		return &SampleError{Op: "read", Index: i, Err: ErrOutOfRange}
	}

	n := len(dst) * pcm.FrameSize
	if cap(s.raw) < n {
		s.raw = make([]byte, n)
	}
	s.raw = s.raw[:n]

	if err := s.cache.ReadDirect(s.file, s.Offset(i), s.raw); err != nil {
		return &SampleError{Op: "read", Index: i, Err: err}
	}
	pcm.DecodeFrames(dst, s.raw)
	return nil
}
