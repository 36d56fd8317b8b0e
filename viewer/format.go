package viewer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/whale/internal/compress"
	"github.com/hupe1980/whale/internal/conv"
	"github.com/hupe1980/whale/internal/hash"
)

const (
	// MagicNumber identifies encoded whale objects (ASCII: "WHL0").
	MagicNumber = 0x57484c30
	// Version is the current format version.
	Version = 1

	// HeaderSize is the encoded size of Header.
	HeaderSize = 20
)

// Kind identifies the encoded object.
type Kind uint8

const (
	KindLayout  Kind = 1
	KindMapping Kind = 2
	KindIS      Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindLayout:
		return "layout"
	case KindMapping:
		return "mapping"
	case KindIS:
		return "is"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Compression selects the block compression of encoded objects.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return compress.ParseType(s)
}

// MaxStrideLen bounds the length of a decoded stride set. It matches the
// number of indices a General payload can carry in one block.
const MaxStrideLen = compress.MaxBlockSize

var (
	ErrInvalidMagic   = errors.New("viewer: invalid magic number")
	ErrInvalidVersion = errors.New("viewer: unsupported version")
	ErrInvalidKind    = errors.New("viewer: unexpected object kind")
	ErrChecksum       = errors.New("viewer: checksum mismatch")
	ErrCorrupt        = errors.New("viewer: corrupt payload")
)

// Header precedes every encoded object.
type Header struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	Compression Compression
	Padding     [2]byte
	Checksum    uint32 // CRC32C of the stored block
	BlockLen    uint32
}

// Option configures encoding.
type Option func(*encodeOptions)

type encodeOptions struct {
	compression Compression
}

// WithCompression compresses the payload block. Defaults to CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *encodeOptions) {
		o.compression = c
	}
}

func seal(kind Kind, payload []byte, opts []Option) ([]byte, error) {
	o := encodeOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	block, err := compress.Encode(payload, o.compression)
	if err != nil {
		return nil, fmt.Errorf("viewer: encode %s: %w", kind, err)
	}
	blockLen, err := conv.IntToUint32(len(block))
	if err != nil {
		return nil, fmt.Errorf("viewer: encode %s: %w", kind, err)
	}

	h := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: o.compression,
		Checksum:    hash.CRC32C(block),
		BlockLen:    blockLen,
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(block))
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	buf.Write(block)
	return buf.Bytes(), nil
}

// ReadHeader parses and validates the header of an encoded object.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, err
	}
	if h.Magic != MagicNumber {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	return h, nil
}

// open validates data and returns the decompressed payload.
func open(kind Kind, data []byte) ([]byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrInvalidKind, kind, h.Kind)
	}
	block := data[HeaderSize:]
	if uint64(len(block)) != uint64(h.BlockLen) {
		return nil, fmt.Errorf("%w: block is %d bytes, header says %d", ErrCorrupt, len(block), h.BlockLen)
	}
	if !hash.Verify(block, h.Checksum) {
		return nil, ErrChecksum
	}
	payload, err := compress.Decode(block, h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return payload, nil
}

// decoder reads varints and remembers the first failure.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) uvarint() int {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.err = fmt.Errorf("%w: truncated uvarint", ErrCorrupt)
		return 0
	}
	d.buf = d.buf[n:]
	i, err := conv.Uint64ToInt(v)
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return i
}

func (d *decoder) varint() int {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.buf)
	if n <= 0 {
		d.err = fmt.Errorf("%w: truncated varint", ErrCorrupt)
		return 0
	}
	d.buf = d.buf[n:]
	i, err := conv.Int64ToInt(v)
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return i
}

// count reads a length prefix and bounds it by the remaining input, since
// every varint takes at least one byte.
func (d *decoder) count() int {
	n := d.uvarint()
	if d.err == nil && n > len(d.buf) {
		d.err = fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrCorrupt, n, len(d.buf))
		return 0
	}
	return n
}

func (d *decoder) varints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = d.varint()
	}
	return out
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if len(d.buf) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.buf))
	}
	return nil
}

func appendVarints(buf []byte, vals []int) []byte {
	for _, v := range vals {
		buf = binary.AppendVarint(buf, int64(v))
	}
	return buf
}
