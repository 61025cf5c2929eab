package errors

import (
	"strings"
	"unicode"
)

// ValidateScoreID validates a score identifier for safety before it reaches
// the store or the filesystem cache. It rejects identifiers that could be
// used for path traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 128 characters
func ValidateScoreID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "score id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "score id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "score id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Path separator
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "score id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateScoreFilename validates a score filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateScoreFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "score filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "score filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPath, "score filename cannot be a hidden file")
	}

	return nil
}
