// SPDX-License-Identifier: EPL-2.0

// Package pcm converts between the on-disk layout of 16-bit stereo PCM
// frames and host integers.
//
// A frame is four bytes: channel A then channel B, each a little-endian
// signed 16-bit value. The conversion does not depend on the host byte
// order:
//
//	var raw [pcm.FrameSize]byte
//	pcm.Encode(raw[:], pcm.Frame{A: 100, B: -100})
//	f := pcm.Decode(raw[:]) // f == pcm.Frame{A: 100, B: -100}
//
// Channel indexes 0 and 1 address A and B, so code that runs the same
// algorithm over both channels can use Frame.Channel and Frame.SetChannel.
package pcm
