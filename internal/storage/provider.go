// Package storage implements whole-file reads and writes of JSON documents.
package storage

import "github.com/starford/cravetown/internal/models"

// Provider is the interface for raw file operations. Paths are used as
// given; there is no sandboxing to the data directory.
type Provider interface {
	// Read returns the full content of the file at path.
	Read(path string) ([]byte, error)
	// Write replaces the content of the file at path. The parent
	// directory must already exist.
	Write(path string, content []byte) error
	// List returns metadata for every .json file under dir.
	List(dir string) ([]models.FileMetadata, error)
}
