// SPDX-License-Identifier: EPL-2.0

// Package declick removes clicks from 16-bit stereo PCM WAVE files in place.
//
// A Processor walks a list of files. For each file it can trim leading and
// trailing silence, keep the result a whole number of CD sectors, repair
// clicks with the correction engine and write a peak index next to it:
//
//	opts := declick.DefaultOptions()
//	opts.SkipLead, opts.SkipTrail = true, true
//	p, err := declick.NewProcessor(opts, logger)
//	report := p.ProcessFiles(paths)
//
// Files are rewritten in place unless Options.TestMode is set. Every file
// streams through a small windowed cache, so memory use does not depend on
// the length of the recording.
//
// # Other formats
//
// Only 16-bit stereo PCM WAVE is repaired. Convert and ConvertFile turn any
// format in Formats (WAV, AIFF, MP3, Ogg Vorbis) into that layout first:
//
//	frames, err := declick.ConvertFile("side-a.ogg", "side-a.wav", declick.CDRate)
//
// # Subpackages
//
//   - engine: adaptive threshold tracker and click correction pass
//   - cache, stream: windowed file cache and 1-based frame access
//   - wavfile: RIFF walk, silence scans, padding and trimming
//   - index: peak index writer
//   - audio, formats/*: decoding and resampling for conversion
package declick
