package types

import "io/fs"

// FS abstracts filesystem operations so that the downloader and the
// package index can run against an in-memory filesystem in tests.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	Rename(oldpath, newpath string) error
}
