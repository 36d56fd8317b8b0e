package snapshot

import (
	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/resource"
	"github.com/hupe1980/whale/viewer"
)

type options struct {
	logger      *whale.Logger // as configured, passed on to decoded objects
	log         *whale.Logger
	rc          *resource.Controller
	exclusive   bool
	compression viewer.Compression
}

// Option configures Save and Load.
type Option func(*options)

// WithLogger sets the logger. Defaults to whale.NoopLogger().
func WithLogger(l *whale.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithResource throttles snapshot IO with the IO limit of rc and accounts
// decoded objects against its memory budget.
func WithResource(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithExclusive makes Save fail with blobstore.ErrExists instead of
// overwriting an existing snapshot.
func WithExclusive() Option {
	return func(o *options) {
		o.exclusive = true
	}
}

// WithCompression sets the payload compression of encoded objects.
func WithCompression(c viewer.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(opts []Option) options {
	o := options{compression: viewer.CompressionNone}
	for _, fn := range opts {
		fn(&o)
	}
	o.log = whale.OrNoop(o.logger).WithComponent("snapshot")
	return o
}
