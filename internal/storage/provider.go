// Package storage defines the read-only posts directory abstraction.
package storage

import "github.com/starford/folio/internal/models"

// Provider is the interface for reading the posts directory.
type Provider interface {
	// List returns every regular file directly under the root whose name
	// matches pattern, in directory enumeration order.
	List(pattern string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file name (relative to the root).
	Read(name string) ([]byte, error)
	// Root returns the absolute path of the directory.
	Root() string
}
