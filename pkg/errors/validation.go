package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MaxDimension is the largest accepted viewport side in pixels.
const MaxDimension = 16384

// ValidateDimensions checks a viewport size for rendering.
// Zero is accepted so callers can ask for defaults; negative, non-finite and
// oversized values are rejected.
func ValidateDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidViewport, "viewport dimensions must be finite")
		}
		if v < 0 {
			return New(ErrCodeInvalidViewport, "viewport dimensions cannot be negative: %gx%g", width, height)
		}
		if v > MaxDimension {
			return New(ErrCodeInvalidViewport, "viewport too large (max %d pixels per side)", MaxDimension)
		}
	}
	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a hex color string such as "#1f77b4".
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid hex color: %q", color)
	}
	return nil
}

// ValidateIdentity validates a slice identity passed in from outside, such as
// a --select flag or an HTTP request body.
func ValidateIdentity(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "identity cannot be empty")
	}
	if len(id) > 512 {
		return New(ErrCodeInvalidInput, "identity too long (max 512 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "identity contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a dataset or settings path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
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
