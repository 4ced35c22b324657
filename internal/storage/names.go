package storage

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// maxNameLength matches NAME_MAX on common filesystems.
	maxNameLength = 255

	// tempPrefix marks in-progress uploads in the root. Names carrying it are
	// reserved so that temp files can never be mistaken for entries.
	tempPrefix = ".filedrop-"
	tempSuffix = ".tmp"

	// maxDecodeRounds bounds repeated percent-decoding of a name.
	maxDecodeRounds = 8
)

// ValidateName checks a client-supplied entry name and returns it unchanged
// when it is safe to use as a direct child of a storage root.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}

	candidate := name
	for i := 0; i < maxDecodeRounds; i++ {
		if err := checkName(candidate); err != nil {
			return "", fmt.Errorf("%w: %q %s", ErrInvalidName, name, err.Error())
		}
		decoded, err := url.PathUnescape(candidate)
		if err != nil || decoded == candidate {
			return name, nil
		}
		candidate = decoded
	}

	return "", fmt.Errorf("%w: %q is encoded too many times", ErrInvalidName, name)
}

func checkName(name string) error {
	switch {
	case name == "" || name == ".":
		return fmt.Errorf("does not name a file")
	case len(name) > maxNameLength:
		return fmt.Errorf("is longer than %d bytes", maxNameLength)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("contains a path separator")
	case strings.Contains(name, ".."):
		return fmt.Errorf("contains a parent-directory reference")
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("contains a NUL byte")
	case strings.HasPrefix(name, tempPrefix):
		return fmt.Errorf("uses the reserved prefix %q", tempPrefix)
	}
	return nil
}

// listable reports whether a name found in a backend can be served back
// through Get.
func listable(name string) bool {
	_, err := ValidateName(name)
	return err == nil
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}
