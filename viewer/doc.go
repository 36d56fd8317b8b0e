// Package viewer prints layouts, mappings and index sets, and encodes them
// to a compact binary form.
//
// # Binary format
//
// An encoded object is a 20-byte little-endian Header followed by a
// compressed block (see internal/compress). The payload inside the block is
// a sequence of varints whose shape depends on Header.Kind:
//
//	layout:  bs, P, ranges[0..P]
//	mapping: n, indices[0..n)
//	is:      type, then n indices (general), n first step (stride) or
//	         bs n blocks[0..n) (block)
//
// Header.Checksum is the CRC32C of the stored block.
package viewer
