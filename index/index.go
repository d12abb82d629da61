// SPDX-License-Identifier: EPL-2.0

package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/ik5/declick/pcm"
)

const (
	// Ext is appended to the WAVE file name.
	Ext = ".idx"
	// HeaderSize is the offset of the channel A table.
	HeaderSize = 40
	// MaxEntries bounds the entries per channel.
	MaxEntries = 1000000 / 8
	// MinScale is the smallest usable scale; shorter streams get no index.
	MinScale = 8

	entrySize = 4
)

// ErrTooShort is returned when the scale would fall below MinScale.
var ErrTooShort = errors.New("stream too short for an index")

// Scale returns the number of frames per index entry for a stream of
// samples frames followed by pad silent frames.
func Scale(samples, pad int) int {
	scale := 1
	for (samples+pad)/scale > MaxEntries {
		scale *= 2
	}
	return scale
}

// Writer accumulates the index of one stream.
type Writer struct {
	path    string
	f       *os.File
	scale   int
	samples int
	entries int

	hi, lo [pcm.Channels][]int16
	seen   []bool
}

// New creates the index file for the WAVE file at wavPath and writes its
// header. The index covers samples frames plus pad silent frames.
func New(wavPath string, samples, pad int) (*Writer, error) {
	scale := Scale(samples, pad)
	if scale < MinScale {
		return nil, fmt.Errorf("%w: %d frames", ErrTooShort, samples+pad)
	}

	w := &Writer{
		path:    wavPath + Ext,
		scale:   scale,
		samples: samples,
		entries: (samples + pad) / scale,
	}
	for ch := range pcm.Channels {
		w.hi[ch] = make([]int16, w.entries)
		w.lo[ch] = make([]int16, w.entries)
	}
	w.seen = make([]bool, w.entries)

	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w.f = f

	if _, err := f.Write(w.header()); err != nil {
		w.Abort()
		return nil, fmt.Errorf("writing index header: %w", err)
	}

	return w, nil
}

// Path returns the index file name.
func (w *Writer) Path() string { return w.path }

// Scale returns the frames per entry.
func (w *Writer) Scale() int { return w.scale }

// Entries returns the number of entries per channel.
func (w *Writer) Entries() int { return w.entries }

func (w *Writer) header() []byte {
	table := uint32(w.entries * entrySize)
	words := [10]uint32{
		uint32(w.scale), 0, 0, 0, 0, 0,
		HeaderSize, HeaderSize + table,
		HeaderSize + table, HeaderSize + 2*table,
	}

	b := make([]byte, HeaderSize)
	for i, v := range words {
		binary.BigEndian.PutUint32(b[4*i:], v)
	}
	return b
}

// Add folds the frames in raw, the first of which is frame firstSample
// (0-based), into the index. Frames past the stream end are ignored; the
// frames after the last full entry are folded into it.
func (w *Writer) Add(firstSample int, raw []byte) {
	if w.entries == 0 || firstSample < 0 {
		return
	}

	n := min(len(raw)/pcm.FrameSize, w.samples-firstSample)
	for k := range n {
		f := pcm.Decode(raw[k*pcm.FrameSize:])
		i := firstSample + k
		e := min(i/w.scale, w.entries-1)

		if !w.seen[e] || (i%w.scale == 0 && i/w.scale == e) {
			w.seen[e] = true
			for ch := range pcm.Channels {
				v := f.Channel(ch)
				w.hi[ch][e], w.lo[ch][e] = v, v
			}
			continue
		}
		for ch := range pcm.Channels {
			v := f.Channel(ch)
			w.hi[ch][e] = max(w.hi[ch][e], v)
			w.lo[ch][e] = min(w.lo[ch][e], v)
		}
	}
}

// Close writes the entry tables and closes the file. On failure the index
// file is removed.
func (w *Writer) Close() error {
	body := make([]byte, 0, pcm.Channels*w.entries*entrySize)
	for ch := range pcm.Channels {
		for e := range w.entries {
			body = binary.LittleEndian.AppendUint16(body, uint16(w.hi[ch][e]))
			body = binary.LittleEndian.AppendUint16(body, uint16(w.lo[ch][e]))
		}
	}

	if _, err := w.f.WriteAt(body, HeaderSize); err != nil {
		w.Abort()
		return fmt.Errorf("writing index %s: %w", w.path, err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.path)
		return fmt.Errorf("closing index %s: %w", w.path, err)
	}
	return nil
}

// Abort closes and removes the index file.
func (w *Writer) Abort() error {
	w.f.Close()
	return os.Remove(w.path)
}
