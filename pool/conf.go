package pool

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a Pool.
type Option func(*config)

type config struct {
	mode        Mode
	ncpu        int
	workers     []string
	workersSet  bool
	callTimeout time.Duration
	rateLimiter *rate.Limiter
	progress    bool
	progressMsg string
	progressOut io.Writer
	logger      *zap.Logger
}

func defaultConfig() *config {
	return &config{
		mode:        ModeSerial,
		ncpu:        1,
		progressMsg: "computing",
		progressOut: os.Stderr,
		logger:      zap.NewNop(),
	}
}

// validate checks that the mode's required parameter set is satisfiable.
// Parameters that do not apply to the selected mode are ignored.
func (c *config) validate() error {
	switch c.mode {
	case ModeSerial, ModeParallel, ModeDistributed:
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown mode %q", c.mode)}
	}

	if c.ncpu < 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("ncpu must be positive, got %d", c.ncpu)}
	}

	if c.mode == ModeDistributed && c.workersSet && len(c.workers) == 0 {
		return &ConfigurationError{Reason: "distributed mode requires a non-empty worker list"}
	}

	return nil
}

// WithMode sets the execution mode used by Map.
// If not specified, defaults to ModeSerial.
func WithMode(mode Mode) Option {
	return func(cfg *config) {
		cfg.mode = mode
	}
}

// WithNCPU sets the number of local worker goroutines used by parallel mode.
// If not specified, defaults to 1. Ignored by serial and distributed modes.
func WithNCPU(n int) Option {
	return func(cfg *config) {
		if n != 0 {
			cfg.ncpu = n
		}
	}
}

// WithWorkers sets the remote worker endpoint URIs used by distributed mode,
// in "grpc:<name>@<host>:<port>" form. Endpoints are resolved once per Pool
// lifetime and reused across every task routed to them. Ignored by serial
// and parallel modes.
func WithWorkers(uris ...string) Option {
	return func(cfg *config) {
		cfg.workers = uris
		cfg.workersSet = true
	}
}

// WithCallTimeout bounds each remote call in distributed mode. A task whose
// call exceeds the timeout is captured as a timeout-kind
// RemoteCommunicationError. If not specified, no per-call timeout applies.
func WithCallTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.callTimeout = d
		}
	}
}

// WithRateLimit sets a rate limiter for controlling task dispatch throughput
// in parallel and distributed modes. tasksPerSecond specifies the maximum
// number of tasks dispatched per second, burst the maximum dispatched in a
// burst. This is useful when remote endpoints shield a constrained service.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithProgress enables a terminal progress bar reporting completed/total
// counts while a batch runs.
func WithProgress() Option {
	return func(cfg *config) {
		cfg.progress = true
	}
}

// WithProgressMessage sets the description shown next to the progress bar.
// If not specified, defaults to "computing".
func WithProgressMessage(msg string) Option {
	return func(cfg *config) {
		if msg != "" {
			cfg.progressMsg = msg
		}
	}
}

// WithProgressWriter redirects progress bar output. If not specified,
// defaults to stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(cfg *config) {
		if w != nil {
			cfg.progressOut = w
		}
	}
}

// WithLogger sets the logger used for per-task debug logging and endpoint
// diagnostics. If not specified, the Pool stays silent.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
