// SPDX-License-Identifier: EPL-2.0

package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/pcm"
)

const copyBlock = 256 * 1024

// Trim shortens the data chunk by lead+trail frames. The caller must
// already have moved the kept frames to the start of the data chunk.
// Chunks that follow the data chunk are moved down to close the gap, or
// dropped when roughCut is set, and the file is truncated. The RIFF size
// is rewritten as the file size minus 8.
func (w *File) Trim(lead, trail int, roughCut bool) error {
	if w.readOnly {
		return nil
	}
	if lead < 0 || trail < 0 || lead+trail > w.Samples() {
		return fmt.Errorf("%w: %d+%d of %d frames", ErrTrimTooLarge, lead, trail, w.Samples())
	}

	cut := int64(lead+trail) * pcm.FrameSize
	newLen := w.dataLen - cut
	oldEnd := w.DataOffset() + w.dataLen
	newEnd := oldEnd - cut

	size := w.size
	if roughCut {
		size = oldEnd
	}

	if err := putUint32(w.f, w.dataHeader+4, uint32(newLen)); err != nil {
		return err
	}
	if cut > 0 && oldEnd < size {
		if err := move(w.f, oldEnd, newEnd, size-oldEnd); err != nil {
			return fmt.Errorf("moving chunks after data: %w", err)
		}
	}

	newSize := size - cut
	if err := w.f.Truncate(newSize); err != nil {
		return fmt.Errorf("truncating: %w", err)
	}
	if err := putUint32(w.f, 4, uint32(newSize-8)); err != nil {
		return err
	}

	w.log.WithFields(logrus.Fields{
		"lead":      lead,
		"trail":     trail,
		"rough_cut": roughCut,
		"size":      newSize,
	}).Debug("container trimmed")

	w.dataLen = newLen
	w.size = newSize
	w.relocate(oldEnd, cut, roughCut)

	return nil
}

// relocate updates the recorded chunks after a trim.
func (w *File) relocate(oldEnd, cut int64, roughCut bool) {
	kept := w.Chunks[:0]
	for _, c := range w.Chunks {
		switch {
		case c.Offset == w.dataHeader:
			c.Len = w.dataLen
		case c.Offset >= oldEnd && roughCut:
			continue
		case c.Offset >= oldEnd:
			c.Offset -= cut
		}
		kept = append(kept, c)
	}
	w.Chunks = kept
}

func putUint32(w io.WriterAt, off int64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	if _, err := w.WriteAt(b[:], off); err != nil {
		return fmt.Errorf("writing header field at %d: %w", off, err)
	}
	return nil
}

type readWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// move copies n bytes from src to dst, dst < src.
func move(f readWriterAt, src, dst, n int64) error {
	buf := make([]byte, min(n, copyBlock))
	for n > 0 {
		chunk := buf[:min(int64(len(buf)), n)]
		if _, err := f.ReadAt(chunk, src); err != nil {
			return err
		}
		if _, err := f.WriteAt(chunk, dst); err != nil {
			return err
		}
		src += int64(len(chunk))
		dst += int64(len(chunk))
		n -= int64(len(chunk))
	}
	return nil
}
