package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mediasort/internal/organizer"
)

type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, total int, mode string) *progress {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(mode),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	}
	if !isTerminal(w) {
		opts = append(opts, progressbar.OptionSetPredictTime(false))
	}
	return &progress{bar: progressbar.NewOptions(total, opts...)}
}

// advance is safe for concurrent use; the bar serializes updates itself.
func (p *progress) advance(organizer.Result) {
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	_ = p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
