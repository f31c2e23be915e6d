// Package errors provides error types and handling for UFile operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a UFile operation error with context about the operation
// that failed. It wraps the underlying transport or service error with
// additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "uploadPart", "finish")
	Op string

	// Bucket is the UFile bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// UploadID is the multipart session identifier (if applicable).
	// A caller holding an Error with a non-empty UploadID is expected to
	// abort the session explicitly once it is done inspecting the failure.
	UploadID string

	// PartNumber is the failing part number, zero when not part-scoped.
	PartNumber int

	// Err is the underlying error from the transport, the service, or another source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	switch {
	case e.PartNumber > 0 && e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("ufile.%s %s/%s part %d: %v", e.Op, e.Bucket, e.Key, e.PartNumber, e.Err)
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("ufile.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("ufile.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	case e.Key != "":
		return fmt.Sprintf("ufile.%s object %s: %v", e.Op, e.Key, e.Err)
	default:
		return fmt.Sprintf("ufile.%s: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithUploadID adds multipart session context to an existing error.
func (e *Error) WithUploadID(uploadID string) *Error {
	e.UploadID = uploadID
	return e
}

// WithPart adds part number context to an existing error.
func (e *Error) WithPart(partNumber int) *Error {
	e.PartNumber = partNumber
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// ServiceError is the structured error envelope returned by the UFile
// service on a non-2xx response. The body carries a RetCode integer and a
// Message (or ErrMsg) string; Status is the HTTP status code.
type ServiceError struct {
	// Status is the HTTP status code of the failed response
	Status int

	// RetCode is the service-level error code from the response body
	RetCode int

	// Message is the service-level error message, empty if the body
	// could not be parsed
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ufile: service error (http %d, retcode %d): %s", e.Status, e.RetCode, e.Message)
	}
	return fmt.Sprintf("ufile: service error (http %d)", e.Status)
}

// Sentinel errors for common UFile operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("ufile: invalid input")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("ufile: invalid object key")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("ufile: invalid bucket name")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("ufile: object not found")

	// ErrMissingContentType indicates that a mime type was required but unset
	ErrMissingContentType = errors.New("ufile: missing content type")

	// ErrInvalidExpires indicates that a pre-signed URL expiry is zero or negative
	ErrInvalidExpires = errors.New("ufile: invalid expires")

	// ErrInvalidRange indicates that the requested byte range is invalid
	ErrInvalidRange = errors.New("ufile: invalid range")

	// ErrSessionClosed indicates that a multipart session was used after
	// Finish or Abort completed
	ErrSessionClosed = errors.New("ufile: multipart session closed")

	// ErrChecksumMismatch indicates that checksums don't match
	ErrChecksumMismatch = errors.New("ufile: checksum mismatch")
)

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// AsServiceError extracts a ServiceError from an error chain, returning nil
// when the chain carries no service error.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// UploadIDOf extracts the multipart session identifier from an error chain.
// It returns the empty string when the failure is not session-scoped, e.g.
// when Init itself failed and there is nothing to abort.
func UploadIDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UploadID
	}
	return ""
}
