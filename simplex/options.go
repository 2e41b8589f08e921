package simplex

import (
	"log/slog"
	"runtime"

	"github.com/pkg/errors"
)

const defaultChunkSize = 64

type options struct {
	workers int
	chunk   int
	logger  *slog.Logger
}

// Option configures Solve.
type Option func(*options)

// WithWorkers sets the size of the worker team. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithChunkSize sets how many loop indices a worker is assigned per
// scheduling step in each parallel phase. Defaults to 64.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunk = n }
}

// WithLogger sets the structured logger the engine reports progress and
// terminal states on. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		workers: runtime.GOMAXPROCS(0),
		chunk:   defaultChunkSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		return o, errors.Errorf("simplex: worker count must be positive, got %d", o.workers)
	}
	if o.chunk < 1 {
		return o, errors.Errorf("simplex: chunk size must be positive, got %d", o.chunk)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}
