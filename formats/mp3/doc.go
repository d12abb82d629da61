// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III files through
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo at the stream's sample rate, so the
// source reports two channels even for mono files.
package mp3
