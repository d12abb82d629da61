// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultWindowSize is the capacity of one window in bytes.
	DefaultWindowSize = 256 * 1024
	// DefaultWindows is the number of windows a Cache rotates through.
	DefaultWindows = 2
	// MaxWindowSize bounds a single window buffer.
	MaxWindowSize = 1 << 30
	// MinWindowSize is the smallest usable window: one stereo 16-bit frame.
	MinWindowSize = 4
)

// File is the handle a Cache reads from and writes to. *os.File satisfies
// it. Handles are compared by identity, so the dynamic type must be
// comparable (pointer types are).
type File interface {
	io.Reader
	io.Writer
	io.Seeker
}

// FlushFunc receives a flushed window: the 0-based index of its first
// sample and its filled bytes. raw is only valid for the duration of the call.
type FlushFunc func(firstSample int, raw []byte)

// Config controls a Cache.
type Config struct {
	// WindowSize is the capacity of each window; 0 means DefaultWindowSize.
	WindowSize int
	// Windows is the number of windows; 0 means DefaultWindows.
	Windows int
	// LeadOffset is subtracted from a window's read origin to get the
	// offset it is written back to.
	LeadOffset int64
	// Limit, when positive, is the offset fills never read past.
	Limit int64
	// ReadOnly keeps every write in memory; nothing reaches the file.
	ReadOnly bool
	// OnFlush, if set, is called for every flushed window.
	OnFlush FlushFunc
}

// Stats counts cache activity.
type Stats struct {
	Hits     int
	Misses   int
	Flushes  int
	Bypassed int
}

type window struct {
	buf      []byte
	file     File
	readOff  int64
	writeOff int64
	filled   int
	dirty    bool
	first    int
}

func (w *window) reset() {
	w.file = nil
	w.readOff = -1
	w.writeOff = -1
	w.filled = 0
	w.dirty = false
	w.first = -1
}

func (w *window) covers(f File, off int64, n int) bool {
	return w.file != nil && w.file == f &&
		off >= w.readOff && off+int64(n) <= w.readOff+int64(w.filled)
}

func (w *window) overlaps(f File, off, end int64) bool {
	return w.file != nil && w.file == f && w.filled > 0 &&
		off < w.readOff+int64(w.filled) && w.readOff < end
}

// Cache is a windowed read/write cache. It is not safe for concurrent use.
type Cache struct {
	cfg     Config
	windows []window
	last    int
	next    int

	// cursor is the known position of cursorFile, -1 when unknown.
	cursor     int64
	cursorFile File

	stats Stats
}

// New creates a Cache with all windows empty.
func New(cfg Config) (*Cache, error) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Windows == 0 {
		cfg.Windows = DefaultWindows
	}
	if cfg.WindowSize > MaxWindowSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocation, cfg.WindowSize)
	}
	if cfg.WindowSize < MinWindowSize || cfg.WindowSize&(cfg.WindowSize-1) != 0 || cfg.Windows < 1 {
		return nil, fmt.Errorf("%w: %d x %d bytes", ErrWindowSize, cfg.Windows, cfg.WindowSize)
	}

	c := &Cache{
		cfg:     cfg,
		windows: make([]window, cfg.Windows),
		cursor:  -1,
	}
	for i := range c.windows {
		c.windows[i].buf = make([]byte, cfg.WindowSize)
		c.windows[i].reset()
	}
	// the first rotation lands on window 0
	c.next = len(c.windows) - 1

	return c, nil
}

// WindowSize returns the capacity of one window.
func (c *Cache) WindowSize() int { return c.cfg.WindowSize }

// Stats returns the activity counters.
func (c *Cache) Stats() Stats { return c.stats }

// Bypassed returns how many writes missed every window and went straight
// to the file.
func (c *Cache) Bypassed() int { return c.stats.Bypassed }

// find returns the window covering [off, off+n) of f, or -1.
func (c *Cache) find(f File, off int64, n int) int {
	if c.windows[c.last].covers(f, off, n) {
		return c.last
	}
	for i := range c.windows {
		if c.windows[i].covers(f, off, n) {
			c.last = i
			return i
		}
	}
	return -1
}

// Read fills p with the bytes of f starting at off. sample is the 0-based
// index of the sample at off; a window filled by this read reports it to
// OnFlush.
func (c *Cache) Read(f File, off int64, p []byte, sample int) error {
	if i := c.find(f, off, len(p)); i >= 0 {
		w := &c.windows[i]
		copy(p, w.buf[off-w.readOff:])
		c.stats.Hits++
		return nil
	}

	c.stats.Misses++
	c.next = (c.next + 1) % len(c.windows)
	if err := c.fill(c.next, f, off, sample); err != nil {
		return err
	}

	if i := c.find(f, off, len(p)); i >= 0 {
		w := &c.windows[i]
		copy(p, w.buf[off-w.readOff:])
		return nil
	}

	return fmt.Errorf("%w: %d bytes at offset %d", ErrMiss, len(p), off)
}

// Write stores p at offset off of f. If a window covers the range the
// bytes stay in memory until the window is flushed.
func (c *Cache) Write(f File, off int64, p []byte) error {
	if i := c.find(f, off, len(p)); i >= 0 {
		w := &c.windows[i]
		copy(w.buf[off-w.readOff:], p)
		if !c.cfg.ReadOnly {
			w.dirty = true
		}
		c.stats.Hits++
		return nil
	}

	if c.cfg.ReadOnly {
		return nil
	}

	c.stats.Bypassed++
	target := off - c.cfg.LeadOffset
	if err := c.seek(f, target); err != nil {
		return err
	}

	n, err := f.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		c.cursor = -1
		return fmt.Errorf("%w: write %d bytes at offset %d: %w", ErrIO, len(p), target, err)
	}
	c.cursor += int64(n)

	return nil
}

// ReadDirect reads len(p) bytes at off straight from f, skipping the
// windows. A seek is only issued when the file is not already positioned
// at off. The caller must make sure no dirty window holds newer data for
// the range.
func (c *Cache) ReadDirect(f File, off int64, p []byte) error {
	if err := c.seek(f, off); err != nil {
		return err
	}

	n, err := io.ReadFull(f, p)
	if err != nil {
		c.cursor = -1
		return fmt.Errorf("%w: read %d bytes at offset %d: %w", ErrIO, len(p), off, err)
	}
	c.cursor += int64(n)

	return nil
}

// Flush writes back every window that needs it. Windows keep their data.
func (c *Cache) Flush() error {
	var errs []error
	for i := range c.windows {
		if err := c.flush(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Invalidate flushes every window and then empties them all. It is used
// when the cache is about to serve a different file or region.
func (c *Cache) Invalidate() error {
	err := c.Flush()
	for i := range c.windows {
		c.windows[i].reset()
	}
	c.last = 0
	c.next = len(c.windows) - 1
	c.cursor = -1
	c.cursorFile = nil
	return err
}

func (c *Cache) seek(f File, off int64) error {
	if c.cursorFile == f && c.cursor == off {
		return nil
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		c.cursor = -1
		return fmt.Errorf("%w: seek to %d: %w", ErrIO, off, err)
	}
	c.cursor, c.cursorFile = off, f
	return nil
}

func (c *Cache) flush(i int) error {
	w := &c.windows[i]
	if w.file == nil {
		return nil
	}

	if !c.cfg.ReadOnly && (w.dirty || w.readOff != w.writeOff) && w.filled > 0 && w.writeOff >= 0 {
		if err := c.seek(w.file, w.writeOff); err != nil {
			return err
		}
		n, err := w.file.Write(w.buf[:w.filled])
		if err == nil && n != w.filled {
			err = io.ErrShortWrite
		}
		if err != nil {
			c.cursor = -1
			return fmt.Errorf("%w: flush %d bytes at offset %d: %w", ErrIO, w.filled, w.writeOff, err)
		}
		c.cursor += int64(n)
		c.stats.Flushes++
	}
	w.dirty = false

	if c.cfg.OnFlush != nil && w.first >= 0 && w.filled > 0 {
		c.cfg.OnFlush(w.first, w.buf[:w.filled])
	}

	return nil
}

func (c *Cache) fill(i int, f File, off int64, sample int) error {
	w := &c.windows[i]
	if err := c.flush(i); err != nil {
		return err
	}
	w.reset()

	// windows never overlap, so a byte has exactly one cached copy
	end := off + int64(len(w.buf))
	for j := range c.windows {
		if j != i && c.windows[j].overlaps(f, off, end) {
			if err := c.flush(j); err != nil {
				return err
			}
			c.windows[j].reset()
		}
	}

	if err := c.seek(f, off); err != nil {
		return err
	}

	size := len(w.buf)
	if c.cfg.Limit > 0 {
		size = int(max(min(int64(size), c.cfg.Limit-off), 0))
	}

	n, err := io.ReadFull(f, w.buf[:size])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		c.cursor = -1
		return fmt.Errorf("%w: fill at offset %d: %w", ErrIO, off, err)
	}
	c.cursor += int64(n)

	w.file = f
	w.filled = n
	w.readOff = off
	w.writeOff = off - c.cfg.LeadOffset
	w.first = sample
	c.last = i

	return nil
}
