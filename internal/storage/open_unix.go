//go:build unix

package storage

import (
	"errors"
	"os"
	"syscall"
)

var errNotRegular = errors.New("not a regular file")

// openEntry opens target for reading without following a final symlink.
// O_NONBLOCK keeps a FIFO swapped in for the entry from blocking the open.
func openEntry(target string) (*os.File, error) {
	f, err := os.OpenFile(target, os.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_NONBLOCK, 0)
	if err != nil {
		// Linux and darwin report ELOOP for a symlink, FreeBSD reports EMLINK.
		if errors.Is(err, syscall.ELOOP) || errors.Is(err, syscall.EMLINK) {
			return nil, errNotRegular
		}
		return nil, err
	}
	return f, nil
}
