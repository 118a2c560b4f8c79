// Package chimneyfs defines the filesystem port the path resolver depends
// on (spec.md §4.4, §9 "Polymorphic filesystem"): a small capability set of
// stat/read/list/exists, with a local disk implementation and an in-memory
// mock for tests. No other variants are required.
package chimneyfs

import (
	"io"
	"time"
)

// EntryKind distinguishes a file from a directory in a Stat result.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
)

// Info is the result of Stat.
type Info struct {
	Kind    EntryKind
	Size    int64
	ModTime time.Time
}

// IsDir reports whether the stat result describes a directory.
func (i Info) IsDir() bool { return i.Kind == KindDir }

// Entry is one item returned by List.
type Entry struct {
	Name string
	Info Info
}

// FS is the capability set the path resolver (component K) needs: stat,
// read, list, exists. The local implementation rejects any path that
// escapes the site root after canonicalization (spec.md §4.4).
type FS interface {
	// Stat returns metadata for path, or ErrNotFound / ErrDenied.
	Stat(path string) (Info, error)

	// Open returns a streaming reader for path, or ErrNotFound / ErrDenied.
	// Callers must Close the returned reader.
	Open(path string) (io.ReadCloser, error)

	// List returns the entries of a directory, or ErrNotFound / ErrNotDir.
	List(path string) ([]Entry, error)

	// Exists reports whether path exists, swallowing any error.
	Exists(path string) bool
}
