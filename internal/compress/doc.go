// Package compress provides single-block LZ4 and ZSTD compression with a
// small size header, used for binary snapshots.
//
// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means Data is stored uncompressed, which happens when
// compression does not save at least 10%.
package compress
