// Package typedfs is a typed virtual file system. Entries are addressed by
// a hierarchical id plus a content type, and are cached in a lazily
// populated folder tree over a pluggable backend.Adapter.
//
// A Root owns the cache. Folders enumerate their adapter on first access
// only, keep their children sorted by id, and reconcile against a fresh
// enumeration on Refresh without losing unsaved edits. Entries decode their
// bytes on first Read and write them back on Flush once modified.
//
// The cache is not safe for concurrent use; one owner drives a Root.
package typedfs
