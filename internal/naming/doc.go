// Package naming allocates collision-free names for members synthesized
// into a containing type.
//
// One Allocator serves one type. Existing members are reserved first, then
// generated members are allocated in a fixed order so that identical input
// always yields identical names. Names are compared after NFC normalization.
package naming
