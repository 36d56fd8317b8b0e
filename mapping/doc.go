// Package mapping translates between a process-private local numbering
// [0, n) and global indices.
//
// A Mapping is built from an index sequence: local slot i maps to
// indices[i]. Duplicate global values are allowed and represent ghost or
// shared entries. The reverse direction (GlobalToLocal) uses a table that is
// built on first use; when a global value occurs several times the first
// local slot wins.
//
//	m, _ := mapping.New(c, 4, []int{5, 2, 2, 7}, whale.CopyValues)
//	_, local, _ := m.GlobalToLocal(mapping.Mask, []int{2, 3})
//	// local == [1 -1]
//
// Mappings are reference counted. Reference shares the handle and Destroy
// releases it; storage is freed when the last holder destroys it.
package mapping
