// Package storage defines the source-tree file abstraction used by the sync
// engine.
package storage

import "time"

// FileMeta is the lightweight description of one markdown file.
type FileMeta struct {
	Path    string    // relative to the tree root
	ModTime time.Time // last modification time, normalized to UTC
}

// Provider is the interface for source-tree file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Touch sets the modification time of the file at path. The sync engine
	// uses it to equalize a freshly written file with its record timestamp.
	Touch(path string, mtime time.Time) error
}
