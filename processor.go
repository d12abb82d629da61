// SPDX-License-Identifier: EPL-2.0

package declick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/cache"
	"github.com/ik5/declick/engine"
	"github.com/ik5/declick/index"
	"github.com/ik5/declick/pcm"
	"github.com/ik5/declick/stream"
	"github.com/ik5/declick/wavfile"
)

// linkedThreshold is the number of silent frames below which two adjacent
// track ends are considered joined.
const linkedThreshold = 3

// Progress describes how far a Processor is.
type Progress struct {
	File  int // 0-based index of the file being processed
	Files int
	Path  string
	Done  int // frames processed in the current file
	Total int
}

// ProgressFunc receives progress updates. It is called from the goroutine
// running the Processor.
type ProgressFunc func(Progress)

// FileDoneFunc is called by ProcessFiles after each file with the file's
// 0-based position and its report.
type FileDoneFunc func(n int, rep FileReport)

// FileReport is the outcome of processing one file.
type FileReport struct {
	Path    string
	Samples int // frames in the data chunk before trimming

	LeadTrimmed  int
	TrailTrimmed int
	// MissingPadding is the number of frames that would have to be appended
	// to reach a CD sector boundary.
	MissingPadding int
	// Linked is set when neither this track's start nor the previous
	// track's end is silent.
	Linked bool

	// Engine holds the correction counts.
	Engine engine.Result
	// Bypassed counts writes that missed every cache window.
	Bypassed int
	// Index is the path of the index file written, if any.
	Index   string
	Elapsed time.Duration
	Err     error
}

// Report summarises ProcessFiles.
type Report struct {
	Files       []FileReport
	Failed      int
	Corrections int
	Bypassed    int
}

// Err joins the errors of every failed file.
func (r Report) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Processor repairs WAVE files one after another. It remembers whether
// the previous track ended in silence, so files should be given in album
// order. A Processor is not safe for concurrent use.
type Processor struct {
	opts     Options
	log      logrus.FieldLogger
	eng      *engine.Engine
	progress ProgressFunc
	fileDone FileDoneFunc

	lastEndedSilently bool
}

// NewProcessor validates opts and returns a Processor. A nil log uses the
// logrus standard logger.
func NewProcessor(opts Options, log logrus.FieldLogger) (*Processor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	eng, err := engine.New(opts.engineConfig(), log)
	if err != nil {
		return nil, err
	}

	return &Processor{opts: opts, log: log, eng: eng, lastEndedSilently: true}, nil
}

// SetProgress installs fn as the progress callback. nil disables reporting.
func (p *Processor) SetProgress(fn ProgressFunc) { p.progress = fn }

// SetFileDone installs fn as the per-file completion callback.
func (p *Processor) SetFileDone(fn FileDoneFunc) { p.fileDone = fn }

// Options returns the processor options.
func (p *Processor) Options() Options { return p.opts }

// ProcessFiles processes every path in order. A failed file is recorded
// in the report and processing continues with the next one.
func (p *Processor) ProcessFiles(paths []string) Report {
	return p.ProcessFilesContext(context.Background(), paths)
}

// ProcessFilesContext is ProcessFiles that stops starting new files once
// ctx is done. A file already being processed always runs to completion,
// since it is rewritten in place. The report holds only the files that
// were processed.
func (p *Processor) ProcessFilesContext(ctx context.Context, paths []string) Report {
	var rep Report
	for n, path := range paths {
		if ctx.Err() != nil {
			p.log.WithField("remaining", len(paths)-n).Warn("stopped before all files were processed")
			break
		}
		fr, err := p.process(n, len(paths), path)
		if err != nil {
			fr.Err = err
			rep.Failed++
			p.log.WithError(err).WithField("file", path).Error("processing failed")
		}
		rep.Corrections += fr.Engine.Corrections
		rep.Bypassed += fr.Bypassed
		rep.Files = append(rep.Files, fr)
		if p.fileDone != nil {
			p.fileDone(n, fr)
		}
	}
	return rep
}

// ProcessFile processes a single file.
func (p *Processor) ProcessFile(path string) (FileReport, error) {
	return p.process(0, 1, path)
}

func (p *Processor) process(n, files int, path string) (rep FileReport, err error) {
	start := time.Now()
	rep.Path = path
	log := p.log.WithField("file", path)

	w, err := wavfile.Open(path, p.opts.TestMode, p.log)
	if err != nil {
		return rep, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: closing: %w", path, cerr)
		}
		rep.Elapsed = time.Since(start)
	}()

	region, err := w.Region()
	if err != nil {
		return rep, fmt.Errorf("%s: %w", path, err)
	}
	rep.Samples = region.Samples

	lead, trail, err := p.silence(w, region, &rep, log)
	if err != nil {
		return rep, fmt.Errorf("%s: silence scan: %w", path, err)
	}

	if p.opts.Declick || p.opts.CreateIndex || lead > 0 {
		if err := p.repair(n, files, region, lead, trail, &rep, log); err != nil {
			return rep, fmt.Errorf("%s: %w", path, err)
		}
	}

	if !p.opts.TestMode && (p.opts.RoughCut || lead+trail > 0) {
		if err := w.Trim(lead, trail, p.opts.RoughCut); err != nil {
			return rep, fmt.Errorf("%s: trim: %w", path, err)
		}
	}
	rep.LeadTrimmed, rep.TrailTrimmed = lead, trail

	log.WithFields(logrus.Fields{
		"samples":     rep.Samples,
		"lead":        lead,
		"trail":       trail,
		"corrections": rep.Engine.Corrections,
		"reverted":    rep.Engine.Reverted,
	}).Info("file processed")

	return rep, nil
}

// silence decides how many frames to trim from each end and updates the
// linked-track state.
func (p *Processor) silence(w *wavfile.File, region wavfile.Region, rep *FileReport, log logrus.FieldLogger) (int, int, error) {
	lead, trail := 0, 0
	samples := region.Samples

	if p.opts.SkipLead || p.opts.SkipTrail {
		c, err := cache.New(cache.Config{WindowSize: p.opts.WindowSize, Windows: p.opts.Windows, ReadOnly: true})
		if err != nil {
			return 0, 0, err
		}
		s := stream.New(region.File, c, region.Base, samples)

		l, err := wavfile.LeadSilence(s, p.opts.NoiseFloor)
		if err != nil {
			return 0, 0, err
		}
		t, err := wavfile.TrailSilence(s, p.opts.NoiseFloor)
		if err != nil {
			return 0, 0, err
		}
		log.WithFields(logrus.Fields{"lead": l, "trail": t}).Debug("silence found")

		if !p.lastEndedSilently && l < linkedThreshold {
			rep.Linked = true
			log.Warn("track is possibly linked with the previous one")
		}

		rate := w.Format.SampleRate
		if p.opts.SkipLead {
			lead = capFrames(l, p.opts.MaxLeadSeconds, rate)
		}
		if p.opts.SkipTrail {
			p.lastEndedSilently = t >= linkedThreshold
			trail = capFrames(t, p.opts.MaxTrailSeconds, rate)
		} else {
			p.lastEndedSilently = true
		}
		// a silent track is counted from both ends
		trail = min(trail, samples-lead)
	} else {
		p.lastEndedSilently = true
	}

	if p.opts.Padding {
		if rep.MissingPadding = wavfile.Padding(samples, &lead, &trail); rep.MissingPadding > 0 {
			log.WithField("frames", rep.MissingPadding).Warn("cannot pad up to a CD sector boundary")
		}
	}

	return lead, trail, nil
}

func capFrames(frames, seconds, rate int) int {
	if seconds <= 0 {
		return frames
	}
	return min(frames, seconds*rate)
}

// repair runs the engine over the kept frames. With a lead trim the cache
// writes every window back lead frames earlier, moving the kept frames to
// the start of the data chunk.
func (p *Processor) repair(n, files int, region wavfile.Region, lead, trail int, rep *FileReport, log logrus.FieldLogger) error {
	count := region.Samples - lead - trail

	var idx *index.Writer
	if p.opts.CreateIndex {
		var err error
		switch idx, err = index.New(region.File.Name(), count, 0); {
		case errors.Is(err, index.ErrTooShort):
			log.WithField("frames", count).Info("too short for an index")
		case err != nil:
			log.WithError(err).Warn("cannot create index")
		}
	}

	cfg := cache.Config{
		WindowSize: p.opts.WindowSize,
		Windows:    p.opts.Windows,
		LeadOffset: int64(lead) * pcm.FrameSize,
		Limit:      region.Base + int64(region.Samples)*pcm.FrameSize,
		ReadOnly:   p.opts.TestMode,
	}
	if idx != nil {
		cfg.OnFlush = idx.Add
	}
	c, err := cache.New(cfg)
	if err != nil {
		return p.abortIndex(idx, err)
	}

	s := stream.New(region.File, c, region.Base+cfg.LeadOffset, count)
	res, err := p.eng.Run(s, func(done, total int) {
		if p.progress != nil {
			p.progress(Progress{File: n, Files: files, Path: region.File.Name(), Done: done, Total: total})
		}
	})
	if ierr := c.Invalidate(); err == nil {
		err = ierr
	}
	if err != nil {
		return p.abortIndex(idx, err)
	}

	rep.Engine = res
	rep.Bypassed = c.Bypassed()
	if rep.Bypassed > 0 {
		log.WithField("writes", rep.Bypassed).Warn("writes bypassed the cache")
	}

	if idx != nil {
		if err := idx.Close(); err != nil {
			log.WithError(err).Warn("index not written")
		} else {
			rep.Index = idx.Path()
		}
	}
	return nil
}

func (p *Processor) abortIndex(idx *index.Writer, err error) error {
	if idx != nil {
		if aerr := idx.Abort(); aerr != nil {
			p.log.WithError(aerr).Warn("cannot remove index")
		}
	}
	return err
}
