package errors

import (
	"strings"
	"unicode"
)

// ValidateJobName validates an explicit job script name. An empty name
// is valid and means the name is derived from the library.
//
// The rules keep the script inside the output directory:
//   - No path separators, the name must be a bare file name
//   - No control characters or null bytes
//   - Must end in .gwl
//   - Maximum length of 128 characters
func ValidateJobName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "job name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "job name contains control characters")
		}
	}

	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidInput, "job name %q must be a bare file name", name)
	}

	if !strings.HasSuffix(name, ".gwl") {
		return New(ErrCodeInvalidInput, "job name %q must end in .gwl", name)
	}

	return nil
}

// ValidateRunRelPath validates a path stored in a run manifest before it
// is resolved against the run directory. Manifests are plain JSON and may
// have been edited, so a path that could escape the directory is
// rejected rather than joined.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes
func ValidateRunRelPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, `\`) {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
