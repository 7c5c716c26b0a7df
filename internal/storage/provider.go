// Package storage defines the file-system abstraction behind the day logs.
package storage

import "time"

// FileMeta describes one stored file.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for file operations relative to a root directory.
// A missing file surfaces as an error matching fs.ErrNotExist.
type Provider interface {
	// Abs returns the absolute location of path (relative to root).
	Abs(path string) (string, error)
	// List returns metadata for every file under root whose name ends with ext.
	// A missing root yields an empty list.
	List(ext string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Append writes line plus a newline to the end of path in a single write,
	// creating the file and its parents when needed.
	Append(path string, line []byte) error
	// Write atomically replaces the content of path.
	Write(path string, content []byte) error
}
