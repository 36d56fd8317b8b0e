package viewer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/layout"
	"github.com/hupe1980/whale/mapping"
)

// EncodeLayout encodes the block size and ownership ranges of a set-up
// layout.
func EncodeLayout(l *layout.Layout, opts ...Option) ([]byte, error) {
	ranges, err := l.Ranges()
	if err != nil {
		return nil, fmt.Errorf("viewer: encode layout: %w", err)
	}
	buf := binary.AppendUvarint(nil, uint64(l.BlockSize()))
	buf = binary.AppendUvarint(buf, uint64(len(ranges)-1))
	buf = appendVarints(buf, ranges)
	return seal(KindLayout, buf, opts)
}

// DecodeLayoutRanges returns the block size and ownership ranges of an
// encoded layout without building one.
func DecodeLayoutRanges(data []byte) (bs int, ranges []int, err error) {
	payload, err := open(KindLayout, data)
	if err != nil {
		return 0, nil, err
	}
	d := decoder{buf: payload}
	bs = d.uvarint()
	p := d.count()
	ranges = d.varints(p + 1)
	if err := d.finish(); err != nil {
		return 0, nil, err
	}
	return bs, ranges, nil
}

// DecodeLayout rebuilds a set-up layout on c. The encoded process count must
// equal c.Size().
func DecodeLayout(c comm.Communicator, data []byte, opts ...layout.Option) (*layout.Layout, error) {
	bs, ranges, err := DecodeLayoutRanges(data)
	if err != nil {
		return nil, err
	}
	if p := len(ranges) - 1; c != nil && p != c.Size() {
		return nil, fmt.Errorf("viewer: decode layout: encoded for %d processes, communicator has %d: %w", p, c.Size(), whale.ErrInvalidArgument)
	}
	return layout.NewFromRanges(c, ranges, append([]layout.Option{layout.WithBlockSize(bs)}, opts...)...)
}

// EncodeMapping encodes the local-to-global table of m.
func EncodeMapping(m *mapping.Mapping, opts ...Option) ([]byte, error) {
	idx, err := m.GetIndices()
	if err != nil {
		return nil, fmt.Errorf("viewer: encode mapping: %w", err)
	}
	buf := binary.AppendUvarint(nil, uint64(len(idx)))
	buf = appendVarints(buf, idx)
	if err := m.RestoreIndices(idx); err != nil {
		return nil, err
	}
	return seal(KindMapping, buf, opts)
}

// DecodeMapping rebuilds a mapping on c.
func DecodeMapping(c comm.Communicator, data []byte, opts ...mapping.Option) (*mapping.Mapping, error) {
	payload, err := open(KindMapping, data)
	if err != nil {
		return nil, err
	}
	d := decoder{buf: payload}
	n := d.count()
	idx := d.varints(n)
	if err := d.finish(); err != nil {
		return nil, err
	}
	return mapping.New(c, n, idx, whale.OwnPointer, opts...)
}

// EncodeIS encodes an index set, keeping its variant.
func EncodeIS(s is.IndexSet, opts ...Option) ([]byte, error) {
	buf := []byte{byte(s.Type())}
	switch v := s.(type) {
	case *is.Stride:
		first, step := v.Info()
		buf = binary.AppendUvarint(buf, uint64(v.Len()))
		buf = binary.AppendVarint(buf, int64(first))
		buf = binary.AppendVarint(buf, int64(step))
	case *is.Block:
		blocks := v.BlockIndices()
		buf = binary.AppendUvarint(buf, uint64(v.BlockSize()))
		buf = binary.AppendUvarint(buf, uint64(len(blocks)))
		buf = appendVarints(buf, blocks)
	default:
		idx := s.Indices()
		buf[0] = byte(is.TypeGeneral)
		buf = binary.AppendUvarint(buf, uint64(len(idx)))
		buf = appendVarints(buf, idx)
	}
	return seal(KindIS, buf, opts)
}

// DecodeIS rebuilds an index set on c.
func DecodeIS(c comm.Communicator, data []byte) (is.IndexSet, error) {
	payload, err := open(KindIS, data)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty index set payload", ErrCorrupt)
	}
	typ := is.Type(payload[0])
	d := decoder{buf: payload[1:]}

	switch typ {
	case is.TypeGeneral:
		idx := d.varints(d.count())
		if err := d.finish(); err != nil {
			return nil, err
		}
		return is.NewGeneral(c, idx, whale.OwnPointer)
	case is.TypeStride:
		n := d.uvarint()
		first := d.varint()
		step := d.varint()
		if err := d.finish(); err != nil {
			return nil, err
		}
		if n > MaxStrideLen {
			return nil, fmt.Errorf("%w: stride length %d exceeds %d", ErrCorrupt, n, MaxStrideLen)
		}
		if !strideFits(first, n, step) {
			return nil, fmt.Errorf("%w: stride of %d from %d by %d overflows", ErrCorrupt, n, first, step)
		}
		return is.NewStride(c, n, first, step)
	case is.TypeBlock:
		bs := d.uvarint()
		blocks := d.varints(d.count())
		if err := d.finish(); err != nil {
			return nil, err
		}
		return is.NewBlock(c, bs, blocks, whale.OwnPointer)
	default:
		return nil, fmt.Errorf("%w: index set type %s", ErrCorrupt, typ)
	}
}

// strideFits reports whether every index first+i*step, i < n, fits an int.
func strideFits(first, n, step int) bool {
	if n <= 1 || step == 0 {
		return true
	}
	var mag, room uint64
	if step > 0 {
		mag = uint64(step)
		room = uint64(math.MaxInt) - uint64(first)
	} else {
		mag = uint64(-(step + 1)) + 1
		room = uint64(first) + uint64(math.MaxInt) + 1
	}
	return mag <= room/uint64(n-1)
}
