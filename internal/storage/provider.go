// Package storage defines the vault file-system abstraction.
package storage

// Provider is the interface for vault file operations.
// All paths are relative to the vault root.
type Provider interface {
	// List returns the names of regular files directly inside dir
	// (non-recursive, directories excluded).
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Append appends content to path, creating it (and parent directories)
	// when absent. Existing bytes are never touched.
	Append(path string, content []byte) error
	// Tail returns up to n bytes from the end of the file at path.
	Tail(path string, n int) ([]byte, error)
	// Copy duplicates src to dst, creating parent directories.
	Copy(src, dst string) error
	// Rename moves oldPath to newPath within the vault.
	Rename(oldPath, newPath string) error
	// Remove deletes the file at path.
	Remove(path string) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}
