// Package transport abstracts the storage a backup archive is kept on.
//
// All paths are slash separated and relative to the transport root, ""
// meaning the root itself.  Only a local filesystem implementation
// exists at present but everything above this layer goes through the
// interface.
package transport

// Transport reads and writes whole files on some storage.
type Transport interface {
	// Root returns a description of where this transport is, for
	// error messages and logging.
	Root() string

	// ReadFile returns the entire contents of the named file.
	ReadFile(name string) ([]byte, error)

	// WriteFile atomically writes data to the named file, creating
	// parent directories as needed.
	WriteFile(name string, data []byte) error

	// ListDir returns the file and directory names directly inside
	// name, each sorted.
	ListDir(name string) (files, dirs []string, err error)

	// Mkdir creates the named directory.  It is not an error if it
	// already exists.
	Mkdir(name string) error

	// Exists reports whether the named file or directory exists.
	Exists(name string) (bool, error)

	// Remove removes the named file.
	Remove(name string) error

	// Sub returns a Transport rooted at the named subdirectory.
	Sub(name string) Transport
}
