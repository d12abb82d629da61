// SPDX-License-Identifier: EPL-2.0

package index

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/declick/internal/audiotest"
)

func TestScale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		samples, pad int
		want         int
	}{
		{1000, 0, 1},
		{125000, 0, 1},
		{125001, 0, 2},
		{1000000, 0, 8},
		{1000007, 0, 8},
		{1000008, 0, 16},
		{999990, 18, 16},
	}
	for _, tt := range tests {
		if got := Scale(tt.samples, tt.pad); got != tt.want {
			t.Errorf("Scale(%d, %d) = %d, want %d", tt.samples, tt.pad, got, tt.want)
		}
	}
}

func TestNew_TooShort(t *testing.T) {
	t.Parallel()

	wav := filepath.Join(t.TempDir(), "short.wav")
	if _, err := New(wav, 500000, 0); !errors.Is(err, ErrTooShort) {
		t.Fatalf("New() error = %v, want ErrTooShort", err)
	}
	if _, err := os.Stat(wav + Ext); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("index file created for a short stream")
	}
}

// frames builds count frames whose channel A is the frame number modulo
// 1000 and channel B its negation.
func frames(first, count int) []byte {
	a := make([]int16, count)
	b := make([]int16, count)
	for k := range count {
		a[k] = int16((first + k) % 1000)
		b[k] = -a[k]
	}
	return audiotest.FrameBytes(a, b)
}

func TestWriter(t *testing.T) {
	t.Parallel()

	const samples = 1000005
	wav := filepath.Join(t.TempDir(), "track.wav")
	// a stale index is replaced
	if err := os.WriteFile(wav+Ext, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(wav, samples, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.Scale() != 8 || w.Entries() != 125000 || w.Path() != wav+Ext {
		t.Fatalf("scale=%d entries=%d path=%s", w.Scale(), w.Entries(), w.Path())
	}

	// windows that do not start on an entry boundary
	const window = 65536 + 3
	for first := 0; first < samples; first += window {
		n := min(window, samples-first)
		w.Add(first, frames(first, n))
	}
	// past the end of the stream
	w.Add(samples, frames(samples, 16))

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(wav + Ext)
	if err != nil {
		t.Fatal(err)
	}
	table := 125000 * 4
	if len(data) != HeaderSize+2*table {
		t.Fatalf("index size = %d, want %d", len(data), HeaderSize+2*table)
	}

	wantHeader := []uint32{8, 0, 0, 0, 0, 0, 40, uint32(40 + table), uint32(40 + table), uint32(40 + 2*table)}
	for i, want := range wantHeader {
		if got := binary.BigEndian.Uint32(data[4*i:]); got != want {
			t.Errorf("header word %d = %d, want %d", i, got, want)
		}
	}

	entry := func(ch, e int) (hi, lo int16) {
		off := HeaderSize + ch*table + e*4
		return int16(binary.LittleEndian.Uint16(data[off:])), int16(binary.LittleEndian.Uint16(data[off+2:]))
	}

	tests := []struct {
		ch, e  int
		hi, lo int16
	}{
		{0, 0, 7, 0},
		{1, 0, 0, -7},
		// frames 992..999
		{0, 124, 999, 992},
		// frames 1000..1007 wrap to 0..7
		{0, 125, 7, 0},
		// the last entry also holds frames 1000000..1000004
		{0, 124999, 999, 0},
		{1, 124999, 0, -999},
	}
	for _, tt := range tests {
		hi, lo := entry(tt.ch, tt.e)
		if hi != tt.hi || lo != tt.lo {
			t.Errorf("channel %d entry %d = (%d, %d), want (%d, %d)", tt.ch, tt.e, hi, lo, tt.hi, tt.lo)
		}
	}
}

func TestWriter_PaddingIsZero(t *testing.T) {
	t.Parallel()

	const samples, pad = 999990, 10
	wav := filepath.Join(t.TempDir(), "track.wav")
	w, err := New(wav, samples, pad)
	if err != nil {
		t.Fatal(err)
	}

	a := make([]int16, samples)
	for i := range a {
		a[i] = 500
	}
	w.Add(0, audiotest.FrameBytes(a, a))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if w.hi[0][124998] != 500 {
		t.Errorf("entry 124998 = %d, want 500", w.hi[0][124998])
	}
	// frames 999992..999999 are all padding
	if w.hi[0][124999] != 0 || w.lo[1][124999] != 0 {
		t.Errorf("padded entry = (%d, %d), want zero", w.hi[0][124999], w.lo[1][124999])
	}
}

func TestWriter_Abort(t *testing.T) {
	t.Parallel()

	wav := filepath.Join(t.TempDir(), "track.wav")
	w, err := New(wav, 1000000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	if _, err := os.Stat(wav + Ext); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("index file still present after Abort()")
	}
}
