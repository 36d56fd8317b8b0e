// Package hash provides the CRC32-Castagnoli checksum used to protect
// encoded snapshots.
//
//	sum := hash.CRC32C(payload)
//
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when available.
package hash
