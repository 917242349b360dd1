package pool

import (
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// newProgressBar builds the batch progress bar, or returns nil when progress
// reporting is disabled.
func (p *Pool[T, R]) newProgressBar(total int) *progressbar.ProgressBar {
	if !p.conf.progress || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(p.conf.progressMsg),
		progressbar.OptionSetWriter(p.conf.progressOut),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			_, _ = p.conf.progressOut.Write([]byte("\n"))
		}),
	)
}

// observe records one completed task: progress bar tick plus a debug log
// line with the task's identity, duration and outcome kind.
func (p *Pool[T, R]) observe(bar *progressbar.ProgressBar, logger *zap.Logger, index int, elapsed time.Duration, err error) {
	if bar != nil {
		_ = bar.Add(1)
	}
	if err != nil {
		logger.Debug("task failed",
			zap.Int("index", index),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	logger.Debug("task complete",
		zap.Int("index", index),
		zap.Duration("elapsed", elapsed),
	)
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
