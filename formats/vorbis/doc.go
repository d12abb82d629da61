// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files through
// github.com/jfreymuth/oggvorbis.
//
// Vorbis decodes natively to float32, so samples pass through with their
// original channel count and rate.
package vorbis
