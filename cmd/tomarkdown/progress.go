// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/tomarkdown/internal/convert"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// progressBar renders conversion progress and prints failure lines above
// it. All methods are called from the pool's aggregating goroutine; w must
// be the same synchronized writer the logger uses.
type progressBar struct {
	bar    *progressbar.ProgressBar
	w      io.Writer
	failed int
}

func newProgressBar(total int, w io.Writer) *progressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &progressBar{bar: bar, w: w}
}

// Record advances the bar by one outcome. A failure clears the bar, prints
// its error line and lets the next redraw restore the bar below it.
func (p *progressBar) Record(o types.Outcome) {
	if o.Kind == types.OutcomeFailed {
		p.failed++
		_ = p.bar.Clear()
		io.WriteString(p.w, convert.FailureLine(o.Task.InputPath, o.Err))
		p.bar.Describe(fmt.Sprintf("Converting (%d failed)", p.failed))
	}
	_ = p.bar.Add(1)
}

// Finish completes the bar.
func (p *progressBar) Finish() {
	_ = p.bar.Finish()
}
