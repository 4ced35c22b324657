//go:build !unix

package storage

import (
	"errors"
	"os"
)

var errNotRegular = errors.New("not a regular file")

// openEntry opens target for reading and checks that the descriptor refers to
// the same regular file that lstat saw.
func openEntry(target string) (*os.File, error) {
	checked, err := os.Lstat(target)
	if err != nil {
		return nil, err
	}
	if !checked.Mode().IsRegular() {
		return nil, errNotRegular
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, err
	}
	opened, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !os.SameFile(checked, opened) {
		f.Close()
		return nil, errNotRegular
	}
	return f, nil
}
