// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/ik5/declick"
	"github.com/ik5/declick/cache"
	"github.com/ik5/declick/internal/cli"
	"github.com/ik5/declick/internal/ui"
)

var version = "0.0.1"

var errInterrupted = errors.New("interrupted")

// CLI defines the command-line interface.
type CLI struct {
	Log LogFlags `embed:"" prefix:"log-"`

	Clean   CleanCmd   `cmd:"" default:"withargs" help:"Repair clicks and trim silence in 16-bit stereo WAVE files, in place."`
	Convert ConvertCmd `cmd:"" help:"Convert an audio file to a 16-bit stereo WAVE file."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// LogFlags select where and how diagnostics are logged.
type LogFlags struct {
	Level  string `default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Format string `default:"text" enum:"text,json" help:"Log format (text, json)."`
	File   string `type:"path" placeholder:"PATH" help:"Write logs to PATH instead of stderr."`
}

// CleanCmd repairs files in place.
type CleanCmd struct {
	Declick   bool `short:"d" help:"Repair clicks. This is the default when no other action is given."`
	SkipLead  bool `short:"s" help:"Trim leading silence."`
	MaxLead   int  `placeholder:"SEC" help:"Trim at most SEC seconds of leading silence, 0 for no limit."`
	SkipTrail bool `short:"e" help:"Trim trailing silence."`
	MaxTrail  int  `placeholder:"SEC" help:"Trim at most SEC seconds of trailing silence, 0 for no limit."`
	Index     bool `short:"i" help:"Write a peak index file next to each WAVE file."`
	Test      bool `short:"t" help:"Count clicks without changing any file."`
	Cut       bool `short:"c" help:"Drop every chunk after the sample data."`
	Severity  int  `short:"v" default:"0" placeholder:"0-9" help:"Repair severity; higher values treat smaller jumps as clicks."`
	Pad       bool `short:"p" help:"Keep trimmed tracks a whole number of CD sectors long."`
	Quiet     bool `short:"q" help:"Print plain summary lines instead of the progress display."`

	NoiseFloor int `default:"1" help:"Largest absolute sample value still treated as silence."`
	WindowSize int `default:"${window_size}" help:"Cache window size in bytes, a power of two."`
	Windows    int `default:"2" help:"Number of cache windows."`
	Lookahead  int `default:"8" help:"Frames inspected after a click candidate."`
	Span       int `default:"75" help:"Frames between a repair and its recheck."`

	Files []string `arg:"" name:"files" type:"existingfile" help:"WAVE files to process, in album order."`
}

// ConvertCmd converts another format into a file CleanCmd accepts.
type ConvertCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Input file (wav, aiff, mp3, ogg)."`
	Output string `arg:"" type:"path" help:"Output WAVE file."`
	Rate   int    `default:"44100" help:"Output sample rate."`
}

// VersionCmd prints the version.
type VersionCmd struct{}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("declick"),
		kong.Description("Click repair for 16-bit stereo WAVE files"),
		kong.UsageOnError(),
		kong.Vars{
			"version":     version,
			"window_size": strconv.Itoa(cache.DefaultWindowSize),
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := ctx.Run(&cliArgs.Log); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// options maps the flags onto processor options. Without an action flag
// the files are declicked.
func (c *CleanCmd) options() declick.Options {
	opts := declick.DefaultOptions()
	opts.Declick = c.Declick
	opts.Severity = c.Severity
	opts.TestMode = c.Test
	opts.CreateIndex = c.Index
	opts.SkipLead, opts.MaxLeadSeconds = c.SkipLead, c.MaxLead
	opts.SkipTrail, opts.MaxTrailSeconds = c.SkipTrail, c.MaxTrail
	opts.Padding = c.Pad
	opts.RoughCut = c.Cut
	opts.NoiseFloor = c.NoiseFloor
	opts.WindowSize = c.WindowSize
	opts.Windows = c.Windows
	opts.Lookahead = c.Lookahead
	opts.Span = c.Span

	if !opts.HasAction() {
		opts.Declick = true
	}
	return opts
}

func (c *CleanCmd) Run(lf *LogFlags) error {
	opts := c.options()
	interactive := !c.Quiet && isTerminal(os.Stdout)

	log, closeLog, err := newLogger(*lf, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := declick.NewProcessor(opts, log)
	if err != nil {
		return err
	}

	var rep declick.Report
	if interactive {
		if rep, err = runInteractive(p, c.Files); err != nil {
			return err
		}
	} else {
		rep = p.ProcessFiles(c.Files)
		cli.PrintReport(os.Stdout, rep, opts.TestMode)
	}

	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", rep.Failed, len(rep.Files))
	}
	if len(rep.Files) < len(c.Files) {
		return fmt.Errorf("stopped after %d of %d files", len(rep.Files), len(c.Files))
	}
	return nil
}

// runInteractive processes files behind the bubbletea progress display.
// Messages go through the model channel so that the final summary is
// always received after the last file report. Quitting only stops new
// files from starting; the display stays up until the current file is
// finished.
func runInteractive(p *declick.Processor, files []string) (declick.Report, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := ui.NewModel(files, p.Options().TestMode)
	model.Cancel = cancel
	p.SetProgress(model.Progress())
	p.SetFileDone(model.FileDone())

	go func() {
		rep := p.ProcessFilesContext(ctx, files)
		model.ProgressChan <- ui.AllCompleteMsg{Report: rep}
	}()

	final, runErr := tea.NewProgram(model).Run()
	if m, ok := final.(ui.Model); runErr == nil && ok && m.Done {
		return m.Report, nil
	}

	// the display ended early: let the current file finish before exiting
	cancel()
	err := errInterrupted
	if runErr != nil {
		err = fmt.Errorf("UI error: %w", runErr)
	}
	for msg := range model.ProgressChan {
		if done, ok := msg.(ui.AllCompleteMsg); ok {
			return done.Report, err
		}
	}
	return declick.Report{}, err
}

func (c *ConvertCmd) Run(lf *LogFlags) error {
	log, closeLog, err := newLogger(*lf, false)
	if err != nil {
		return err
	}
	defer closeLog()

	frames, err := declick.ConvertFile(c.Input, c.Output, c.Rate)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"input": c.Input, "output": c.Output, "frames": frames}).Info("converted")

	fmt.Printf("%s %s (%d frames at %d Hz)\n", cli.OKStyle.Render("✓"), c.Output, frames, c.Rate)
	return nil
}

func (VersionCmd) Run() error {
	cli.PrintVersion(os.Stdout, version)
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogger builds the logger described by lf. Without a log file the
// progress display owns the terminal, so logs are dropped while it runs.
func newLogger(lf LogFlags, interactive bool) (*logrus.Logger, func(), error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(lf.Level)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	if lf.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch {
	case lf.File != "":
		f, err := os.OpenFile(lf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		log.SetOutput(f)
		return log, func() { f.Close() }, nil
	case interactive:
		log.SetOutput(io.Discard)
	default:
		log.SetOutput(os.Stderr)
	}
	return log, func() {}, nil
}
