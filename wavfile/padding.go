// SPDX-License-Identifier: EPL-2.0

package wavfile

// SectorFrames is the number of stereo 16-bit frames in one CD sector.
const SectorFrames = 588

// Padding adjusts the lead and trail trims so that the remaining track is
// a whole number of CD sectors. Frames are given back from the trail trim
// first, then from the lead trim. The result is the number of frames that
// would still have to be appended; nothing is ever appended.
func Padding(samples int, lead, trail *int) int {
	missing := SectorFrames - (samples-*lead-*trail)%SectorFrames
	if missing == SectorFrames {
		return 0
	}

	for _, trim := range []*int{trail, lead} {
		give := min(missing, *trim)
		*trim -= give
		missing -= give
	}
	return missing
}
