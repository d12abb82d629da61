// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"fmt"
	"io"
)

// ErrInjected is returned by a MemFile whose FailAfter budget is spent.
var ErrInjected = errors.New("audiotest: injected failure")

// MemFile is an in-memory io.ReadWriteSeeker that counts the calls made
// against it. Writes past the end grow the file.
type MemFile struct {
	Data []byte
	off  int64

	Reads  int
	Writes int
	Seeks  int

	// FailAfter, when positive, makes every read and write after that many
	// successful calls fail with ErrInjected.
	FailAfter int
	calls     int
}

// NewMemFile returns a MemFile holding a copy of data.
func NewMemFile(data []byte) *MemFile {
	return &MemFile{Data: append([]byte(nil), data...)}
}

func (m *MemFile) fail() bool {
	if m.FailAfter <= 0 {
		return false
	}
	m.calls++
	return m.calls > m.FailAfter
}

func (m *MemFile) Read(p []byte) (int, error) {
	if m.fail() {
		return 0, ErrInjected
	}
	m.Reads++
	if m.off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	n := copy(p, m.Data[m.off:])
	m.off += int64(n)
	return n, nil
}

func (m *MemFile) Write(p []byte) (int, error) {
	if m.fail() {
		return 0, ErrInjected
	}
	m.Writes++
	end := m.off + int64(len(p))
	if end > int64(len(m.Data)) {
		grown := make([]byte, end)
		copy(grown, m.Data)
		m.Data = grown
	}
	copy(m.Data[m.off:], p)
	m.off = end
	return len(p), nil
}

func (m *MemFile) Seek(offset int64, whence int) (int64, error) {
	m.Seeks++
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = m.off + offset
	case io.SeekEnd:
		next = int64(len(m.Data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position")
	}
	m.off = next
	return next, nil
}
