package chunkring

import "log/slog"

// Option configures a Ring.
type Option func(*options)

type options struct {
	logger *slog.Logger
	name   string
}

// WithLogger sets the logger used for lifecycle events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the ring in logs and exported metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		logger: slog.Default(),
		name:   "chunkring",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
