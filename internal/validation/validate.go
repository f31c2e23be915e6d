// Package validation provides centralized input validation logic.
// All user inputs are checked before any network call so malformed
// requests fail fast with a structured error instead of a service round
// trip.
package validation

import (
	"mime"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
)

// MaxKeyLength is the longest object key the service accepts, in bytes.
const MaxKeyLength = 1024

// ValidateBucketName validates a UFile bucket (space) name. The service
// embeds the bucket into a virtual hostname, so it must be non-empty and
// free of characters that cannot appear in a DNS label.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithMessage("bucket name cannot be empty")
	}
	for _, r := range bucket {
		if r == '.' || r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
				WithBucket(bucket).
				WithMessage("bucket name cannot contain dots, slashes, spaces or control characters")
		}
	}
	return nil
}

// ValidateObjectKey validates a UFile object key.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key[:64] + "...").
			WithMessage("object key cannot exceed 1024 bytes")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
				WithKey(key).
				WithMessage("object key cannot contain control characters")
		}
	}
	return nil
}

// ValidateMimeType checks that a mime type is present and parses as a
// media type.
func ValidateMimeType(mimeType string) error {
	if mimeType == "" {
		return errors.NewError("validateMimeType", errors.ErrMissingContentType)
	}
	if _, _, err := mime.ParseMediaType(mimeType); err != nil {
		return errors.NewError("validateMimeType", errors.ErrInvalidInput).
			WithMessage("mime type " + mimeType + " is invalid")
	}
	return nil
}

// ValidateMetadata checks user metadata entries. Keys become
// X-Ufile-Meta-{key} headers, so they must be valid header tokens; values
// must be printable without CR/LF.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if key == "" {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata key cannot be empty")
		}
		for _, r := range key {
			if !isHeaderTokenChar(r) {
				return errors.NewError("validateMetadata", errors.ErrInvalidInput).
					WithMessage("metadata key " + key + " contains invalid characters")
			}
		}
		if strings.ContainsAny(value, "\r\n") {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata value for " + key + " contains line breaks")
		}
	}
	return nil
}

// isHeaderTokenChar reports whether r may appear in an HTTP header field
// name.
func isHeaderTokenChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
