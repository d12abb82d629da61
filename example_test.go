// SPDX-License-Identifier: EPL-2.0

package declick_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ik5/declick"
	"github.com/ik5/declick/internal/audiotest"
)

func ExampleConvert() {
	source := audiotest.NewSineSource(22050, 1, 22050, 440.0)
	out := audiotest.NewMemFile(nil)

	frames, err := declick.Convert(source, out, declick.CDRate)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%d frames, %d bytes\n", frames, len(out.Data))
	// Output:
	// 44098 frames, 176436 bytes
}

func ExampleNewProcessor() {
	dir, err := os.MkdirTemp("", "declick")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "track01.wav")
	click := []int16{0, 0, 0, 0, 30000, 0, 0, 0, 0, 0}
	wav := audiotest.BuildWAV(audiotest.StereoWAV, audiotest.Interleave(click, nil))
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		fmt.Println(err)
		return
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	p, err := declick.NewProcessor(declick.DefaultOptions(), log)
	if err != nil {
		fmt.Println(err)
		return
	}
	rep := p.ProcessFiles([]string{path})
	fmt.Printf("corrections: %d, failed: %d\n", rep.Corrections, rep.Failed)
	// Output:
	// corrections: 1, failed: 0
}
