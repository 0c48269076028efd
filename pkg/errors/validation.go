package errors

import (
	"strings"
	"unicode"
)

const maxCoordinatePartLength = 256

// ValidateCoordinatePart validates one segment of a Maven coordinate
// (groupId, artifactId, version or classifier).
//
// Rules:
//   - Non-empty, at most 256 characters
//   - No whitespace or control characters
//   - No colons (the segment separator) or slashes
//   - No path traversal sequences (..)
func ValidateCoordinatePart(field, value string) error {
	if value == "" {
		return New(ErrCodeInvalidCoordinate, "%s cannot be empty", field)
	}
	if len(value) > maxCoordinatePartLength {
		return New(ErrCodeInvalidCoordinate, "%s too long (max %d characters)", field, maxCoordinatePartLength)
	}
	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidCoordinate, "%s contains invalid characters: %q", field, value)
		}
	}
	if strings.ContainsAny(value, ":/\\") {
		return New(ErrCodeInvalidCoordinate, "%s cannot contain ':' or path separators: %q", field, value)
	}
	if strings.Contains(value, "..") {
		return New(ErrCodeInvalidCoordinate, "%s cannot contain path traversal sequences: %q", field, value)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
