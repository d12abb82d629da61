// SPDX-License-Identifier: EPL-2.0

package pcm

import "encoding/binary"

const (
	// FrameSize is the byte stride of one stereo frame.
	FrameSize = 4
	// Channels is the number of channels in a frame.
	Channels = 2
)

// Frame is one stereo sample.
type Frame struct {
	A int16
	B int16
}

// Channel returns the value of channel ch (0 = A, 1 = B).
func (f Frame) Channel(ch int) int16 {
	if ch == 0 {
		return f.A
	}
	return f.B
}

// SetChannel replaces the value of channel ch (0 = A, 1 = B).
func (f *Frame) SetChannel(ch int, v int16) {
	if ch == 0 {
		f.A = v
		return
	}
	f.B = v
}

// Silent reports whether both channels are within floor of zero.
func (f Frame) Silent(floor int) bool {
	return abs(int(f.A)) <= floor && abs(int(f.B)) <= floor
}

// Decode reads one frame from b. b must hold at least FrameSize bytes.
func Decode(b []byte) Frame {
	_ = b[FrameSize-1]
	return Frame{
		A: int16(binary.LittleEndian.Uint16(b[0:2])),
		B: int16(binary.LittleEndian.Uint16(b[2:4])),
	}
}

// Encode writes f into b. b must hold at least FrameSize bytes.
func Encode(b []byte, f Frame) {
	_ = b[FrameSize-1]
	binary.LittleEndian.PutUint16(b[0:2], uint16(f.A))
	binary.LittleEndian.PutUint16(b[2:4], uint16(f.B))
}

// DecodeFrames decodes as many whole frames from b as fit in dst and
// returns how many were decoded.
func DecodeFrames(dst []Frame, b []byte) int {
	n := min(len(dst), len(b)/FrameSize)
	for i := range n {
		dst[i] = Decode(b[i*FrameSize:])
	}
	return n
}

// EncodeFrames encodes src into b and returns the number of bytes written.
// b must hold len(src)*FrameSize bytes.
func EncodeFrames(b []byte, src []Frame) int {
	for i, f := range src {
		Encode(b[i*FrameSize:], f)
	}
	return len(src) * FrameSize
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
