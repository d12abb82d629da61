// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Source is a stream of interleaved float32 samples in [-1,1].
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns the number
	// of float32 values written (not frames). n == 0 with io.EOF ends the stream.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps file extensions to decoders. Extensions are stored lower
// case without the leading dot.
type Registry struct {
	codecs map[string]Decoder
	mtx    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

func normExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Register binds d to every extension given.
func (r *Registry) Register(d Decoder, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, ext := range exts {
		r.codecs[normExt(ext)] = d
	}
}

func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[normExt(ext)]
	return d, ok
}

// Lookup returns the decoder registered for the extension of path.
func (r *Registry) Lookup(path string) (Decoder, error) {
	ext := filepath.Ext(path)
	if d, ok := r.Get(ext); ok {
		return d, nil
	}
	return nil, &FormatError{Ext: ext}
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
