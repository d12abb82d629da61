// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 or 32 bits is supported with any channel count
// and sample rate. Samples are normalised to float32 in [-1,1).
//
//	src, err := aiff.Decoder{}.Decode(f)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package aiff
