package layout

import (
	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/resource"
)

type options struct {
	logger    *whale.Logger
	blockSize int
	rc        *resource.Controller
}

// Option configures a Layout.
type Option func(*options)

// WithLogger sets the logger. Defaults to whale.NoopLogger().
func WithLogger(l *whale.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBlockSize sets the initial block size. Defaults to 1.
func WithBlockSize(bs int) Option {
	return func(o *options) {
		o.blockSize = bs
	}
}

// WithResource reserves the memory of the ranges table from rc.
func WithResource(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
