package snapshot

import (
	"context"

	"github.com/hupe1980/whale/blobstore"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/layout"
	"github.com/hupe1980/whale/mapping"
	"github.com/hupe1980/whale/viewer"
)

// SaveLayout encodes a set-up layout and saves it under name.
func SaveLayout(ctx context.Context, store blobstore.Store, name string, l *layout.Layout, opts ...Option) error {
	o := applyOptions(opts)
	data, err := viewer.EncodeLayout(l, viewer.WithCompression(o.compression))
	if err != nil {
		return err
	}
	return Save(ctx, store, name, data, opts...)
}

// LoadLayout loads the layout saved under name onto c.
func LoadLayout(ctx context.Context, store blobstore.Store, name string, c comm.Communicator, opts ...Option) (*layout.Layout, error) {
	o := applyOptions(opts)
	data, err := Load(ctx, store, name, opts...)
	if err != nil {
		return nil, err
	}
	var lopts []layout.Option
	if o.logger != nil {
		lopts = append(lopts, layout.WithLogger(o.logger))
	}
	if o.rc != nil {
		lopts = append(lopts, layout.WithResource(o.rc))
	}
	return viewer.DecodeLayout(c, data, lopts...)
}

// SaveMapping encodes m and saves it under name.
func SaveMapping(ctx context.Context, store blobstore.Store, name string, m *mapping.Mapping, opts ...Option) error {
	o := applyOptions(opts)
	data, err := viewer.EncodeMapping(m, viewer.WithCompression(o.compression))
	if err != nil {
		return err
	}
	return Save(ctx, store, name, data, opts...)
}

// LoadMapping loads the mapping saved under name onto c.
func LoadMapping(ctx context.Context, store blobstore.Store, name string, c comm.Communicator, opts ...Option) (*mapping.Mapping, error) {
	o := applyOptions(opts)
	data, err := Load(ctx, store, name, opts...)
	if err != nil {
		return nil, err
	}
	var mopts []mapping.Option
	if o.logger != nil {
		mopts = append(mopts, mapping.WithLogger(o.logger))
	}
	if o.rc != nil {
		mopts = append(mopts, mapping.WithResource(o.rc))
	}
	return viewer.DecodeMapping(c, data, mopts...)
}

// SaveIS encodes s and saves it under name.
func SaveIS(ctx context.Context, store blobstore.Store, name string, s is.IndexSet, opts ...Option) error {
	o := applyOptions(opts)
	data, err := viewer.EncodeIS(s, viewer.WithCompression(o.compression))
	if err != nil {
		return err
	}
	return Save(ctx, store, name, data, opts...)
}

// LoadIS loads the index set saved under name onto c.
func LoadIS(ctx context.Context, store blobstore.Store, name string, c comm.Communicator, opts ...Option) (is.IndexSet, error) {
	data, err := Load(ctx, store, name, opts...)
	if err != nil {
		return nil, err
	}
	return viewer.DecodeIS(c, data)
}
