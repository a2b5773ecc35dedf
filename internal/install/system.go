package install

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/promptdeck/promptdeck/internal/fsutil"
)

// System abstracts the filesystem operations the install engine performs.
// The interface is package-local so fault-injection tests do not share
// global state with other packages.
type System interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	Mkdir(path string, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	WalkDir(root string, fn fs.WalkDirFunc) error
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
	CopyFile(src string, dst string) error
	CopyTree(src string, dst string) error
	MoveDir(src string, dst string) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile reads the named file and returns the contents.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Mkdir creates a single directory; it fails if the path already exists.
func (RealSystem) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(path, perm)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// WalkDir walks the file tree rooted at root.
func (RealSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file and renaming.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}

// CopyFile copies a single regular file, preserving permissions.
func (RealSystem) CopyFile(src string, dst string) error {
	return fsutil.CopyFile(src, dst)
}

// CopyTree recursively overlays src onto dst.
func (RealSystem) CopyTree(src string, dst string) error {
	return fsutil.CopyTree(src, dst)
}

// MoveDir moves src to dst, degrading to copy+delete across filesystems.
func (RealSystem) MoveDir(src string, dst string) error {
	return fsutil.MoveDir(src, dst)
}
