// SPDX-License-Identifier: EPL-2.0

package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/riff"
	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/pcm"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	fmtChunkSize    = 16

	// MinSampleRate is the lowest rate the sample layer accepts.
	MinSampleRate = 1000
	formatPCM     = 1
)

// Format is the content of a fmt chunk.
type Format struct {
	AudioFormat   int
	Channels      int
	SampleRate    int
	ByteRate      int
	BlockAlign    int
	BitsPerSample int
}

// Compatible reports whether the samples are 16-bit stereo PCM.
func (f Format) Compatible() error {
	if f.AudioFormat != formatPCM || f.BitsPerSample != 16 || f.Channels != pcm.Channels ||
		f.BlockAlign != pcm.FrameSize || f.SampleRate < MinSampleRate {
		return fmt.Errorf("%w: format %d, %d channels, %d bits, block align %d, %d Hz",
			ErrIncompatibleFormat, f.AudioFormat, f.Channels, f.BitsPerSample, f.BlockAlign, f.SampleRate)
	}
	return nil
}

// Chunk is a RIFF chunk header found while opening a file.
type Chunk struct {
	ID     string
	Offset int64 // of the chunk header
	Len    int64
	Fixed  bool // the length was clamped to the file size
}

// Region describes the sample data of an open file.
type Region struct {
	File     *os.File
	Base     int64
	Samples  int
	ReadOnly bool
}

// File is an open WAVE file.
type File struct {
	f        *os.File
	path     string
	readOnly bool
	size     int64
	log      logrus.FieldLogger

	Format Format
	Chunks []Chunk

	dataHeader int64
	dataLen    int64
}

// Open opens and validates the WAVE file at path. In read-only mode
// nothing is ever written to the file, including chunk length repairs.
// A nil log uses the logrus standard logger.
func Open(path string, readOnly bool, log logrus.FieldLogger) (*File, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	w := &File{
		f:          f,
		path:       path,
		readOnly:   readOnly,
		log:        log.WithField("file", path),
		dataHeader: -1,
	}
	if err := w.walk(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

func (w *File) walk() error {
	st, err := w.f.Stat()
	if err != nil {
		return err
	}
	w.size = st.Size()

	hdr := riff.New(io.NewSectionReader(w.f, 0, riffHeaderSize))
	if err := hdr.ParseHeaders(); err != nil {
		return ErrNotWavFile
	}
	if hdr.Format != riff.WavFormatID {
		return ErrNotWaveForm
	}

	haveFmt := false
	for pos := int64(riffHeaderSize); pos < w.size; {
		id, size, err := riff.New(io.NewSectionReader(w.f, pos, chunkHeaderSize)).IDnSize()
		if err != nil {
			return fmt.Errorf("%w: truncated chunk header at %d", ErrInvalidLayout, pos)
		}

		c := Chunk{ID: string(id[:]), Offset: pos, Len: int64(size)}
		if avail := w.size - pos - chunkHeaderSize; c.Len > avail {
			c.Len, c.Fixed = avail, true
			if err := w.repair(c); err != nil {
				return err
			}
		}
		w.log.WithFields(logrus.Fields{"chunk": c.ID, "len": c.Len}).Debug("chunk")

		switch {
		case id == riff.FmtID && c.Len >= fmtChunkSize:
			ch := &riff.Chunk{ID: id, Size: int(c.Len), R: io.NewSectionReader(w.f, pos+chunkHeaderSize, c.Len)}
			if err := ch.DecodeWavHeader(hdr); err != nil {
				return fmt.Errorf("%w: reading fmt chunk: %w", ErrInvalidLayout, err)
			}
			w.Format = Format{
				AudioFormat:   int(hdr.WavAudioFormat),
				Channels:      int(hdr.NumChannels),
				SampleRate:    int(hdr.SampleRate),
				ByteRate:      int(hdr.AvgBytesPerSec),
				BlockAlign:    int(hdr.BlockAlign),
				BitsPerSample: int(hdr.BitsPerSample),
			}
			haveFmt = true
		case id == riff.DataFormatID && w.dataHeader < 0:
			w.dataHeader = pos
			w.dataLen = c.Len
		}
		w.Chunks = append(w.Chunks, c)

		// the pad byte of an odd chunk may be missing at the end of the file
		pos += chunkHeaderSize + c.Len
		if c.Len%2 == 1 && pos < w.size {
			pos++
		}
	}

	if w.dataHeader < 0 {
		return ErrNoDataChunk
	}
	if !haveFmt {
		return fmt.Errorf("%w: no fmt chunk", ErrIncompatibleFormat)
	}
	return nil
}

// repair writes a clamped chunk length back to the file.
func (w *File) repair(c Chunk) error {
	w.log.WithFields(logrus.Fields{
		"chunk":  c.ID,
		"offset": c.Offset,
		"len":    c.Len,
	}).Warn("chunk length exceeds the file size")

	if w.readOnly {
		return nil
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(c.Len))
	if _, err := w.f.WriteAt(b[:], c.Offset+4); err != nil {
		return fmt.Errorf("repairing %q chunk length: %w", c.ID, err)
	}
	return nil
}

// Path returns the file name passed to Open.
func (w *File) Path() string { return w.path }

// Size returns the file size in bytes.
func (w *File) Size() int64 { return w.size }

// DataOffset returns the offset of the first sample.
func (w *File) DataOffset() int64 { return w.dataHeader + chunkHeaderSize }

// DataLen returns the length of the data chunk in bytes.
func (w *File) DataLen() int64 { return w.dataLen }

// Samples returns the number of frames in the data chunk.
func (w *File) Samples() int {
	if w.Format.BlockAlign <= 0 {
		return 0
	}
	return int(w.dataLen / int64(w.Format.BlockAlign))
}

// Duration returns the playing time of the data chunk.
func (w *File) Duration() time.Duration {
	if w.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(w.Samples()) * time.Second / time.Duration(w.Format.SampleRate)
}

// Region returns the sample data for processing. It fails with
// ErrIncompatibleFormat for anything but 16-bit stereo PCM.
func (w *File) Region() (Region, error) {
	if err := w.Format.Compatible(); err != nil {
		return Region{}, err
	}
	return Region{
		File:     w.f,
		Base:     w.DataOffset(),
		Samples:  w.Samples(),
		ReadOnly: w.readOnly,
	}, nil
}

// Close closes the file.
func (w *File) Close() error {
	return w.f.Close()
}
