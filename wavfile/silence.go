// SPDX-License-Identifier: EPL-2.0

package wavfile

import "github.com/ik5/declick/pcm"

// ScanBlock is the number of frames a silence scan reads at once.
const ScanBlock = 50000

// RawReader reads blocks of frames without going through a cache.
// *stream.Stream satisfies it.
type RawReader interface {
	Len() int
	ReadFramesRaw(i int, dst []pcm.Frame) error
}

// LeadSilence counts the silent frames at the start of s. A frame is
// silent when both channels are within floor of zero. The last frame is
// never counted, so a fully silent stream of n frames reports n-1.
func LeadSilence(s RawReader, floor int) (int, error) {
	n := s.Len()
	if n == 0 {
		return 0, nil
	}

	buf := make([]pcm.Frame, min(ScanBlock, n))
	for start := 1; start <= n; start += len(buf) {
		block := buf[:min(len(buf), n-start+1)]
		if err := s.ReadFramesRaw(start, block); err != nil {
			return 0, err
		}
		for k, f := range block {
			if i := start + k; i == n || !f.Silent(floor) {
				return i - 1, nil
			}
		}
	}
	return n - 1, nil
}

// TrailSilence counts the silent frames at the end of s. The first frame
// is never counted.
func TrailSilence(s RawReader, floor int) (int, error) {
	n := s.Len()
	if n == 0 {
		return 0, nil
	}

	buf := make([]pcm.Frame, min(ScanBlock, n))
	for end := n; end >= 1; end -= len(buf) {
		start := max(end-len(buf)+1, 1)
		block := buf[:end-start+1]
		if err := s.ReadFramesRaw(start, block); err != nil {
			return 0, err
		}
		for k := len(block) - 1; k >= 0; k-- {
			if i := start + k; i == 1 || !block[k].Silent(floor) {
				return n - i, nil
			}
		}
	}
	return n - 1, nil
}
