package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxIdentifierLength bounds entity and model identifiers. IRIs used as
// identifiers are long but never this long in practice.
const MaxIdentifierLength = 2048

// ValidateIdentifier validates an entity or model identifier.
//
// Identifiers are opaque, so the rules only reject values that cannot be
// meaningful keys:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of [MaxIdentifierLength]
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s identifier cannot be empty", kind)
	}
	if len(id) > MaxIdentifierLength {
		return New(ErrCodeInvalidInput, "%s identifier too long (max %d characters)", kind, MaxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s identifier %q contains control characters", kind, id)
		}
	}
	return nil
}

// ValidateOutputPath validates a path the CLI is about to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Must not name a directory (trailing separator)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "path %q names a directory", path)
	}

	return nil
}
