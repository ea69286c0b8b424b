// Package storage defines the workspace state-file abstraction.
package storage

// Provider is the interface for state file operations under the workspace
// state directory. Paths are relative to the provider root.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Rename atomically renames oldPath to newPath within the root.
	Rename(oldPath, newPath string) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
}
