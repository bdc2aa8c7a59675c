package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/rshade/mealcarbon/internal/batch"
)

// progressReporter draws a trial progress bar from batch snapshots.
type progressReporter struct {
	bar *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer, trials int) *progressReporter {
	bar := progressbar.NewOptions64(int64(trials),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar}
}

// update is a batch.ProgressCallback. Snapshots arrive serialized.
func (p *progressReporter) update(s batch.Snapshot) {
	_ = p.bar.Set64(int64(s.CompletedUnits))
}

// finish completes the bar on success and leaves it as-is otherwise.
func (p *progressReporter) finish(ok bool) {
	if ok {
		_ = p.bar.Finish()
		return
	}
	_ = p.bar.Exit()
}
