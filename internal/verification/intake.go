package verification

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultAllowedTypes is the default MIME allow-list for certificate uploads.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

// DefaultMaxFileSize is the default upload ceiling (10 MB).
const DefaultMaxFileSize int64 = 10 << 20

// IntakeError is a local validation rejection. The submission is never
// attempted when intake fails.
type IntakeError struct {
	Reason  string // "unsupported_type" or "file_too_large"
	Message string
}

func (e *IntakeError) Error() string { return e.Message }

// FileValidator checks candidate files against a MIME allow-list and a size
// ceiling before any network call is made.
type FileValidator struct {
	allowedTypes []string
	maxSize      int64
}

// NewFileValidator builds a validator. Nil allowedTypes or non-positive
// maxSize fall back to the defaults.
func NewFileValidator(allowedTypes []string, maxSize int64) *FileValidator {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &FileValidator{allowedTypes: allowedTypes, maxSize: maxSize}
}

// Validate accepts or rejects a candidate file. The type and size checks are
// independent; a file that violates both reports the type mismatch.
func (v *FileValidator) Validate(contentType string, size int64) error {
	if !v.typeAllowed(contentType) {
		return &IntakeError{
			Reason:  "unsupported_type",
			Message: fmt.Sprintf("unsupported file type %q, allowed: %s", contentType, strings.Join(v.allowedTypes, ", ")),
		}
	}
	if size > v.maxSize {
		return &IntakeError{
			Reason:  "file_too_large",
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", size, v.maxSize),
		}
	}
	return nil
}

func (v *FileValidator) typeAllowed(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range v.allowedTypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// IsImage reports whether the MIME type is an image type eligible for preview.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// Preview decodes an accepted image and re-encodes it as a data URL for
// client-side display. It is best-effort: callers log failures and continue,
// acceptance of the file is never conditioned on it. Non-image types return
// an empty preview without error.
func Preview(contentType string, data []byte) (string, error) {
	if !IsImage(contentType) {
		return "", nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("verification: decode preview image: %w", err)
	}
	return "data:" + strings.ToLower(contentType) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
