// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// mockMP3Reader serves little-endian PCM at most chunk bytes per call.
type mockMP3Reader struct {
	data  []byte
	chunk int
	err   error
}

func newMock(chunk int, samples ...int16) *mockMP3Reader {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return &mockMP3Reader{data: data, chunk: chunk}
}

func (m *mockMP3Reader) SampleRate() int { return 44100 }

func (m *mockMP3Reader) Read(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), m.chunk)], m.data)
	m.data = m.data[n:]
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{nil, []byte("This is not MP3 data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(input)); err == nil {
			t.Errorf("Decode(%q) succeeded", input)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	// go-mp3 may hand back odd byte counts; reads must still align.
	src := &source{dec: newMock(3, 16384, -16384, 8192, -32768, 0, 4096), sampleRate: 44100}
	if src.Channels() != 2 || src.SampleRate() != 44100 {
		t.Fatalf("got channels %d rate %d", src.Channels(), src.SampleRate())
	}

	buf := make([]float32, 4)
	n, err := src.ReadSamples(buf)
	if n != 4 || err != nil {
		t.Fatalf("first read = %d, %v; want 4, nil", n, err)
	}
	want := []float32{0.5, -0.5, 0.25, -1}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}

	n, err = src.ReadSamples(buf)
	if n != 2 || !errors.Is(err, io.EOF) {
		t.Fatalf("last read = %d, %v; want 2, EOF", n, err)
	}
	if buf[0] != 0 || buf[1] != 0.125 {
		t.Errorf("last frame = %v", buf[:2])
	}
}

func TestSource_ReadSamples_DropsPartialFrame(t *testing.T) {
	t.Parallel()

	src := &source{dec: newMock(64, 100, 200, 300), sampleRate: 44100}
	n, err := src.ReadSamples(make([]float32, 8))
	if n != 2 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() = %d, %v; want 2, EOF", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt frame")
	src := &source{dec: &mockMP3Reader{err: boom}, sampleRate: 44100}
	if _, err := src.ReadSamples(make([]float32, 8)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestSource_ReadSamples_OddBuffer(t *testing.T) {
	t.Parallel()

	src := &source{dec: newMock(64, 1, 2, 3, 4), sampleRate: 44100}
	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples() = %d, %v; want 0, nil", n, err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	pcm := make([]int16, 1<<16)
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src := &source{dec: newMock(4096, pcm...), sampleRate: 44100}
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
