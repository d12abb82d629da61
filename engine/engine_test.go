// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/cache"
	"github.com/ik5/declick/internal/audiotest"
	"github.com/ik5/declick/pcm"
	"github.com/ik5/declick/stream"
)

// memFrames is an in-memory Frames.
type memFrames struct {
	frames []pcm.Frame
	reads  int
	writes []int
	values []pcm.Frame

	failRead int
}

func newMemFrames(a, b []int16) *memFrames {
	n := max(len(a), len(b))
	m := &memFrames{frames: make([]pcm.Frame, n)}
	for i := range n {
		if i < len(a) {
			m.frames[i].A = a[i]
		}
		if i < len(b) {
			m.frames[i].B = b[i]
		}
	}
	return m
}

func (m *memFrames) Len() int { return len(m.frames) }

func (m *memFrames) ReadFrame(i int) (pcm.Frame, error) {
	if i == m.failRead {
		return pcm.Frame{}, &stream.SampleError{Op: "read", Index: i, Err: io.ErrUnexpectedEOF}
	}
	m.reads++
	return m.frames[i-1], nil
}

func (m *memFrames) WriteFrame(i int, f pcm.Frame) error {
	m.writes = append(m.writes, i)
	m.values = append(m.values, f)
	m.frames[i-1] = f
	return nil
}

func (m *memFrames) channel(ch int) []int16 {
	out := make([]int16, len(m.frames))
	for i, f := range m.frames {
		out[i] = f.Channel(ch)
	}
	return out
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newEngine(t testing.TB, cfg Config) *Engine {
	t.Helper()

	e, err := New(cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func run(t testing.TB, cfg Config, m *memFrames) Result {
	t.Helper()

	res, err := newEngine(t, cfg).Run(m, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

// ramp returns zeros up to start followed by a rise whose step doubles
// from 10 up to 2560, ending at 5110.
func ramp(n, start int) []int16 {
	out := make([]int16, n)
	v, step := 0, 10
	for i := start; i < n; i++ {
		if step <= 2560 {
			v += step
			step *= 2
		}
		out[i] = int16(v)
	}
	return out
}

func TestLimitDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity int
		want     int
		wantErr  bool
	}{
		{0, 65534, false},
		{1, 21600, false},
		{5, 12000, false},
		{9, 2400, false},
		{-1, 0, true},
		{10, 0, true},
	}
	for _, tt := range tests {
		got, err := LimitDiff(tt.severity)
		if tt.wantErr {
			if !errors.Is(err, ErrSeverity) {
				t.Errorf("LimitDiff(%d) error = %v, want ErrSeverity", tt.severity, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("LimitDiff(%d) = %d, %v, want %d", tt.severity, got, err, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "severity", modify: func(c *Config) { c.Severity = 12 }, wantErr: ErrSeverity},
		{name: "lookahead", modify: func(c *Config) { c.Lookahead = 1 }, wantErr: ErrConfig},
		{name: "span", modify: func(c *Config) { c.Span = 0 }, wantErr: ErrConfig},
		{name: "history shorter than span", modify: func(c *Config) { c.History = c.Span }, wantErr: ErrConfig},
		{name: "min correction", modify: func(c *Config) { c.MinCorrection = -1 }, wantErr: ErrConfig},
		{name: "zero value", modify: func(c *Config) { *c = Config{} }, wantErr: ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := New(cfg, nil); (err != nil) != (tt.wantErr != nil) {
				t.Errorf("New() error = %v", err)
			}
		})
	}
}

func TestRun_SingleClick(t *testing.T) {
	t.Parallel()

	m := newMemFrames([]int16{0, 0, 0, 0, 30000, 0, 0, 0, 0, 0}, make([]int16, 10))
	res := run(t, DefaultConfig(), m)

	want := Result{Samples: 10, Corrections: 1, Rechecks: 1}
	if res != want {
		t.Errorf("Run() = %+v, want %+v", res, want)
	}
	if got := m.channel(0); !slices.Equal(got, make([]int16, 10)) {
		t.Errorf("channel A = %v, want all zero", got)
	}
	if !slices.Equal(m.writes, []int{5}) {
		t.Errorf("writes = %v, want [5]", m.writes)
	}
}

func TestRun_RevertsFittingOutlier(t *testing.T) {
	t.Parallel()

	// the spike at frame 5 is followed by a rise whose steps exceed it, so
	// once that rise is known the spike is within the local volatility
	a := ramp(30, 6)
	a[4] = 2000
	orig := slices.Clone(a)

	m := newMemFrames(a, nil)
	res := run(t, DefaultConfig(), m)

	want := Result{Samples: 30, Corrections: 0, Reverted: 1, Rechecks: 1}
	if res != want {
		t.Errorf("Run() = %+v, want %+v", res, want)
	}
	if got := m.channel(0); !slices.Equal(got, orig) {
		t.Errorf("channel A = %v, want %v", got, orig)
	}
	// corrected on the way forward, restored by the recheck at frame 30
	if !slices.Equal(m.writes, []int{5, 5}) {
		t.Errorf("writes = %v, want [5 5]", m.writes)
	}
}

func TestRun_RevertsSecondCorrectionNearEnd(t *testing.T) {
	t.Parallel()

	// both corrections are within Span of the last frame, so they share
	// the recheck at frame 30; only the spike at frame 7 fits the rise
	a := ramp(30, 8)
	a[6] = 2000
	want := slices.Clone(a)
	a[1] = 30000

	m := newMemFrames(a, nil)
	res := run(t, DefaultConfig(), m)

	wantRes := Result{Samples: 30, Corrections: 1, Reverted: 1, Rechecks: 1}
	if res != wantRes {
		t.Errorf("Run() = %+v, want %+v", res, wantRes)
	}
	if got := m.channel(0); !slices.Equal(got, want) {
		t.Errorf("channel A = %v, want %v", got, want)
	}
	if !slices.Equal(m.writes, []int{2, 7, 7}) {
		t.Errorf("writes = %v, want [2 7 7]", m.writes)
	}
}

func TestRun_InsignificantCorrection(t *testing.T) {
	t.Parallel()

	a := make([]int16, 20)
	a[4] = 100
	m := newMemFrames(a, nil)
	res := run(t, DefaultConfig(), m)

	if res.Corrections != 0 || res.Rechecks != 0 {
		t.Errorf("Run() = %+v, want no corrections", res)
	}
	if len(m.writes) != 0 {
		t.Errorf("writes = %v, want none", m.writes)
	}
	if m.frames[4].A != 100 {
		t.Errorf("frame 5 = %+v, want unchanged", m.frames[4])
	}
}

func TestRun_Interpolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    []int16
		want []int16
	}{
		{
			name: "halfway to the next frame",
			a:    []int16{0, 0, 0, 0, 5000, 10, 10, 10},
			want: []int16{0, 0, 0, 0, 5, 10, 10, 10},
		},
		{
			name: "truncates towards zero",
			a:    []int16{0, 0, 0, 0, -5000, -15, -15, -15},
			want: []int16{0, 0, 0, 0, -7, -15, -15, -15},
		},
		{
			name: "burst",
			a:    []int16{0, 0, 0, 0, 3000, 3000, 3000, 0, 0, 0, 0, 0},
			want: []int16{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "last frame",
			a:    []int16{0, 0, 0, 0, 0, 0, 0, 0, 0, 30000},
			want: []int16{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newMemFrames(tt.a, nil)
			run(t, DefaultConfig(), m)
			if got := m.channel(0); !slices.Equal(got, tt.want) {
				t.Errorf("channel A = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_StepEdge(t *testing.T) {
	t.Parallel()

	step := []int16{0, 0, 0, 0, 8000, 8000, 8000, 8000, 8000, 8000, 8000, 8000, 8000, 8000}

	tests := []struct {
		lookahead int
		first     int16
	}{
		// no frame within reach: interpolate over the whole lookahead
		{lookahead: 8, first: 1000},
		{lookahead: 4, first: 2000},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.lookahead), func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Lookahead = tt.lookahead
			m := newMemFrames(step, nil)
			res := run(t, cfg, m)

			if len(m.values) == 0 || m.writes[0] != 5 || m.values[0].A != tt.first {
				t.Fatalf("first write = %v %v, want frame 5 set to %d", m.writes, m.values, tt.first)
			}
			// the edge is steady once the frames after it are known
			if got := m.channel(0); !slices.Equal(got, step) {
				t.Errorf("channel A = %v, want %v", got, step)
			}
			if res.Corrections != 0 || res.Reverted == 0 {
				t.Errorf("Run() = %+v, want every correction reverted", res)
			}
		})
	}
}

func TestRun_ChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	a := make([]int16, 12)
	b := make([]int16, 12)
	a[4] = 30000
	b[7] = -30000
	m := newMemFrames(a, b)
	res := run(t, DefaultConfig(), m)

	if res.Corrections != 2 || res.Rechecks != 2 {
		t.Errorf("Run() = %+v, want 2 corrections and 2 rechecks", res)
	}
	for i, f := range m.frames {
		if f != (pcm.Frame{}) {
			t.Errorf("frame %d = %+v, want silence", i+1, f)
		}
	}
	if !slices.Equal(m.writes, []int{5, 8}) {
		t.Errorf("writes = %v, want [5 8]", m.writes)
	}
}

func TestRun_IdempotentOnCleanAudio(t *testing.T) {
	t.Parallel()

	n := 5000
	a := make([]int16, n)
	b := make([]int16, n)
	for i := range n {
		// steps of at most 10
		a[i] = int16(1000 * math.Sin(float64(i)/100))
		b[i] = int16(500 * math.Cos(float64(i)/80))
	}
	m := newMemFrames(a, b)

	for pass := range 2 {
		res := run(t, DefaultConfig(), m)
		if res.Corrections != 0 || res.Reverted != 0 || len(m.writes) != 0 {
			t.Fatalf("pass %d: Run() = %+v, writes %v, want nothing", pass+1, res, m.writes)
		}
	}
	if !slices.Equal(m.channel(0), a) || !slices.Equal(m.channel(1), b) {
		t.Error("frames changed")
	}
}

func TestRun_SeverityIsMonotonic(t *testing.T) {
	t.Parallel()

	// a rise to 5110 then a swing of 3000 every other frame: within reach
	// for every ceiling except the 2400 of severity 9
	a := ramp(200, 20)
	for i := 60; i < 200; i += 2 {
		a[i] = 2110
	}

	prev := -1
	for severity := 0; severity <= MaxSeverity; severity++ {
		cfg := DefaultConfig()
		cfg.Severity = severity
		res := run(t, cfg, newMemFrames(a, nil))

		if res.Corrections < prev {
			t.Errorf("severity %d: %d corrections, fewer than %d at severity %d",
				severity, res.Corrections, prev, severity-1)
		}
		if severity < MaxSeverity && res.Corrections != 0 {
			t.Errorf("severity %d: %d corrections, want 0", severity, res.Corrections)
		}
		if severity == MaxSeverity && res.Corrections == 0 {
			t.Errorf("severity %d: no corrections", severity)
		}
		prev = res.Corrections
	}
}

func TestRun_IndexOnly(t *testing.T) {
	t.Parallel()

	a := make([]int16, 100)
	a[50] = 30000
	m := newMemFrames(a, nil)

	var calls, last int
	cfg := DefaultConfig()
	cfg.Declick = false
	res, err := newEngine(t, cfg).Run(m, func(done, total int) {
		calls++
		last = done
		if total != 100 {
			t.Errorf("total = %d, want 100", total)
		}
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res != (Result{Samples: 100}) {
		t.Errorf("Run() = %+v", res)
	}
	if m.reads != 100 || len(m.writes) != 0 {
		t.Errorf("reads=%d writes=%v, want 100 reads and no writes", m.reads, m.writes)
	}
	if calls != 100 || last != 100 {
		t.Errorf("progress calls=%d last=%d, want 100 100", calls, last)
	}
}

func TestRun_ReadError(t *testing.T) {
	t.Parallel()

	m := newMemFrames(make([]int16, 50), nil)
	m.failRead = 17

	_, err := newEngine(t, DefaultConfig()).Run(m, nil)
	var se *stream.SampleError
	if !errors.As(err, &se) || se.Index != 17 {
		t.Errorf("Run() error = %v, want SampleError at 17", err)
	}
}

func TestRun_ThroughCache(t *testing.T) {
	t.Parallel()

	a := ramp(3000, 500)
	a[100] = 20000
	a[2000] = -20000
	b := make([]int16, 3000)
	b[1500] = 12000

	ref := newMemFrames(a, b)
	want := run(t, DefaultConfig(), ref)

	for _, windowSize := range []int{4, 64, 1024, cache.DefaultWindowSize} {
		f := audiotest.NewMemFile(append([]byte("LEAD"), audiotest.FrameBytes(a, b)...))
		c, err := cache.New(cache.Config{WindowSize: windowSize})
		if err != nil {
			t.Fatal(err)
		}
		s := stream.New(f, c, 4, 3000)

		got, err := newEngine(t, DefaultConfig()).Run(s, nil)
		if err != nil {
			t.Fatalf("window %d: Run() error = %v", windowSize, err)
		}
		if err := c.Invalidate(); err != nil {
			t.Fatal(err)
		}

		if got != want {
			t.Errorf("window %d: Run() = %+v, want %+v", windowSize, got, want)
		}
		wantBytes := audiotest.FrameBytes(ref.channel(0), ref.channel(1))
		if string(f.Data[4:]) != string(wantBytes) {
			t.Errorf("window %d: stream bytes differ from the in-memory run", windowSize)
		}
		// tiny windows are evicted by the lookahead before the write lands
		if windowSize >= 1024 && c.Bypassed() != 0 {
			t.Errorf("window %d: %d bypassed writes", windowSize, c.Bypassed())
		}
	}
}

func ExampleEngine_Run() {
	a := make([]int16, 10)
	a[4] = 30000

	frames := newMemFrames(a, nil)
	e, _ := New(DefaultConfig(), quietLogger())
	res, _ := e.Run(frames, nil)

	fmt.Println(res)
	fmt.Println(frames.channel(0))
	// Output:
	// 10 samples, 1 corrections, 0 reverted, 1 rechecks
	// [0 0 0 0 0 0 0 0 0 0]
}

func BenchmarkEngine_Run(b *testing.B) {
	n := 44100
	a := make([]int16, n)
	c := make([]int16, n)
	for i := range n {
		a[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/44100))
		c[i] = int16(8000 * math.Sin(2*math.Pi*330*float64(i)/44100))
		if i%4410 == 0 {
			a[i] = 30000
		}
	}
	e := newEngine(b, DefaultConfig())

	b.ReportAllocs()
	for b.Loop() {
		m := newMemFrames(a, c)
		if _, err := e.Run(m, nil); err != nil {
			b.Fatal(err)
		}
	}
}
