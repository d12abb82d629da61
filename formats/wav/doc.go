// SPDX-License-Identifier: EPL-2.0

// Package wav decodes WAV files into audio.Source streams and writes
// 16-bit PCM WAV files, both through github.com/go-audio/wav.
//
// The decoder accepts integer PCM at 16, 24 or 32 bits with any channel
// count and sample rate, and any chunk layout go-audio can walk. Inputs
// that cannot seek are buffered in memory first.
//
//	src, err := wav.Decoder{}.Decode(f)
//	if errors.Is(err, wav.ErrUnsupportedEncoding) {
//	    // float or compressed WAV
//	}
//
// A Writer quantises float32 samples to 16 bits:
//
//	w := wav.NewWriter(out, 44100, 2)
//	err := w.Write(samples)
//	err = w.Close()
//
// Close patches the RIFF and data sizes but leaves out open.
package wav
