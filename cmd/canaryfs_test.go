package cmd

import (
	"os"

	vfs "github.com/twpayne/go-vfs"
)

// A canaryFS wraps a vfs.FS and records calls to Open, the files it returned,
// and calls to its mutating methods.
type canaryFS struct {
	vfs.FS
	opened    []string
	files     []*os.File
	mutations []string
}

func newCanaryFS(fs vfs.FS) *canaryFS {
	return &canaryFS{
		FS: fs,
	}
}

// Mkdir implements vfs.FS.Mkdir.
func (fs *canaryFS) Mkdir(name string, perm os.FileMode) error {
	fs.mutations = append(fs.mutations, "Mkdir "+name)
	return fs.FS.Mkdir(name, perm)
}

// Open implements vfs.FS.Open.
func (fs *canaryFS) Open(name string) (*os.File, error) {
	fs.opened = append(fs.opened, name)
	f, err := fs.FS.Open(name)
	if err == nil {
		fs.files = append(fs.files, f)
	}
	return f, err
}

// Remove implements vfs.FS.Remove.
func (fs *canaryFS) Remove(name string) error {
	fs.mutations = append(fs.mutations, "Remove "+name)
	return fs.FS.Remove(name)
}

// Rename implements vfs.FS.Rename.
func (fs *canaryFS) Rename(oldpath, newpath string) error {
	fs.mutations = append(fs.mutations, "Rename "+oldpath)
	return fs.FS.Rename(oldpath, newpath)
}

// WriteFile implements vfs.FS.WriteFile.
func (fs *canaryFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	fs.mutations = append(fs.mutations, "WriteFile "+name)
	return fs.FS.WriteFile(name, data, perm)
}
