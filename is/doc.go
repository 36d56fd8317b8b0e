// Package is implements index sets: ordered, possibly non-unique sequences
// of global indices.
//
// Three variants share the IndexSet interface:
//
//   - General holds an explicit list.
//   - Stride holds first, step and a count, so storage is O(1).
//   - Block holds block indices that expand to bs consecutive entries each.
//
// Set algebra (Difference, Sum, Expand, Complement) runs on 64-bit roaring
// bitmaps and returns sorted General sets without duplicates.
package is
