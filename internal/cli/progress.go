package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress shows a spinner with a running customer count. The total is
// unknown until the last page has been fetched.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a spinner writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("[cyan][bold]Syncing partners...[reset]"),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(w); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		),
	}
}

// Add advances the customer count.
func (p *Progress) Add(n int) {
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Describe replaces the text shown next to the spinner.
func (p *Progress) Describe(description string) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]Syncing partners, %s[reset]", description))
}

// Finish stops the spinner.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
