package mapping

import (
	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/resource"
)

type options struct {
	logger *whale.Logger
	rc     *resource.Controller
}

// Option configures a Mapping.
type Option func(*options)

// WithLogger sets the logger. Defaults to whale.NoopLogger().
func WithLogger(l *whale.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithResource accounts the memory of owned index tables against rc.
func WithResource(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
