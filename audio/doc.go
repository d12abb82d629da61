// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives of the ingest pipeline.
//
// Every decoder yields a Source of interleaved float32 samples in [-1,1].
// Sources chain: a Resampler moves a stream to another rate and a
// StereoMixer maps any channel layout to two channels, which together turn
// any decoded input into the 16-bit stereo layout the repair engine reads.
//
//	src, _ := registry.Lookup("in.ogg")
//	dec, _ := src.Decode(f)
//	cd, _ := audio.NewResampler(audio.NewStereoMixer(dec), 44100)
//
// # Registry
//
// A Registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register(wav.Decoder{}, "wav", "wave")
//	dec, err := registry.Lookup("take1.WAV")
//
// Unknown extensions return a *FormatError wrapping ErrUnknownFormat.
//
// # Resampling
//
// The Resampler uses Catmull-Rom cubic interpolation over four frames. When
// source and target rates are equal it passes samples through untouched.
package audio
