// SPDX-License-Identifier: EPL-2.0

// Package wavfile locates the PCM data of a RIFF/WAVE file and edits the
// container in place.
//
// Open walks every chunk of the file, repairing chunk lengths that point
// past the end of the file, and records the format and data chunks. The
// data chunk is handed to the sample layer as a Region. After the samples
// have been processed, Trim shortens the data chunk, moves any chunks that
// follow it and rewrites the RIFF size.
//
// LeadSilence, TrailSilence and Padding compute how many frames can be
// dropped from either end of the track.
package wavfile
