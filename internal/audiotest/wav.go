// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Chunk is an extra RIFF chunk placed around the data chunk by BuildWAV.
type Chunk struct {
	ID   string
	Data []byte
}

// WAVSpec describes a WAV file built by BuildWAV.
type WAVSpec struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Format        int // 1 = PCM
	Before        []Chunk
	After         []Chunk
}

// StereoWAV is a 44.1 kHz 16-bit stereo PCM layout.
var StereoWAV = WAVSpec{SampleRate: 44100, Channels: 2, BitsPerSample: 16, Format: 1}

// HeaderSize is the offset of the first sample in a BuildWAV file without
// extra chunks before the data chunk.
const HeaderSize = 44

// BuildWAV builds a WAV file with the given interleaved 16-bit samples.
func BuildWAV(layout WAVSpec, samples []int16) []byte {
	buf := new(bytes.Buffer)

	blockAlign := uint16(layout.Channels * layout.BitsPerSample / 8)
	byteRate := uint32(layout.SampleRate) * uint32(blockAlign)

	body := new(bytes.Buffer)
	body.WriteString("WAVE")

	body.WriteString("fmt ")
	binary.Write(body, binary.LittleEndian, uint32(16))
	binary.Write(body, binary.LittleEndian, uint16(layout.Format))
	binary.Write(body, binary.LittleEndian, uint16(layout.Channels))
	binary.Write(body, binary.LittleEndian, uint32(layout.SampleRate))
	binary.Write(body, binary.LittleEndian, byteRate)
	binary.Write(body, binary.LittleEndian, blockAlign)
	binary.Write(body, binary.LittleEndian, uint16(layout.BitsPerSample))

	writeChunks(body, layout.Before)

	body.WriteString("data")
	binary.Write(body, binary.LittleEndian, uint32(len(samples)*2))
	for _, s := range samples {
		binary.Write(body, binary.LittleEndian, s)
	}

	writeChunks(body, layout.After)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())

	return buf.Bytes()
}

func writeChunks(w *bytes.Buffer, chunks []Chunk) {
	for _, c := range chunks {
		w.WriteString(c.ID)
		binary.Write(w, binary.LittleEndian, uint32(len(c.Data)))
		w.Write(c.Data)
		if len(c.Data)%2 == 1 {
			w.WriteByte(0)
		}
	}
}

// Interleave zips two channels into stereo samples. The shorter channel is
// padded with zeros.
func Interleave(a, b []int16) []int16 {
	n := max(len(a), len(b))
	out := make([]int16, 2*n)
	for i := range n {
		if i < len(a) {
			out[2*i] = a[i]
		}
		if i < len(b) {
			out[2*i+1] = b[i]
		}
	}
	return out
}

// FrameBytes encodes two channels as little-endian stereo frames without a header.
func FrameBytes(a, b []int16) []byte {
	samples := Interleave(a, b)
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// WriteTemp writes data into a new file in t.TempDir and returns its path.
func WriteTemp(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
