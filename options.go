package texgen

import (
	"log/slog"
	"time"
)

// DefaultDebounce is the quiescence window after a parameter edit before
// the map regenerates.
const DefaultDebounce = 50 * time.Millisecond

// Option configures a Pipeline, Workspace or Tuner. Options that do not
// apply to the value being constructed are ignored.
//
// Example:
//
//	pipe := texgen.NewPipeline(dev, texgen.WithMaxDimension(4096))
//	tuner := texgen.NewTuner(texgen.WithDebounce(80*time.Millisecond))
//	ws := texgen.NewWorkspace(pipe, texgen.WithParamSource(tuner))
type Option func(*options)

// options holds optional configuration.
type options struct {
	logger   *slog.Logger
	maxDim   int
	debounce time.Duration
	clock    Clock
	preview  PreviewSink
	params   ParamSource

	resetOnSource bool
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		debounce: DefaultDebounce,
		clock:    systemClock{},
		params:   defaultParamSource{},
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// log returns the configured logger, or the package logger.
func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}

// WithLogger sets a logger for this value instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxDimension caps the width and height of pipeline allocations
// below the device limit.
func WithMaxDimension(n int) Option {
	return func(o *options) {
		o.maxDim = n
	}
}

// WithDebounce sets the tuner's quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithClock sets the tuner's time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithPreviewSink sets where the tuner sends preview-only parameters.
func WithPreviewSink(s PreviewSink) Option {
	return func(o *options) {
		o.preview = s
	}
}

// WithParamSource sets where a workspace reads current parameters.
func WithParamSource(s ParamSource) Option {
	return func(o *options) {
		if s != nil {
			o.params = s
		}
	}
}

// WithResetOnNewSource makes a workspace restore every default parameter
// when its source image is replaced. It applies when the param source has
// a ResetAll method, as *Tuner does.
func WithResetOnNewSource() Option {
	return func(o *options) {
		o.resetOnSource = true
	}
}
