// Package ufiletypes provides shared type definitions for the UFile module.
package ufiletypes

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// StorageClass represents the UFile storage class for objects.
type StorageClass string

// Predefined UFile storage classes
const (
	// StorageClassStandard is the default UFile storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassIA provides infrequent access storage
	StorageClassIA StorageClass = "IA"

	// StorageClassArchive provides archival storage
	StorageClassArchive StorageClass = "ARCHIVE"
)

// MetadataDirective controls how object metadata is handled during copy.
type MetadataDirective string

// Predefined metadata directives
const (
	// MetadataDirectiveUnchanged keeps the source object's metadata
	MetadataDirectiveUnchanged MetadataDirective = "UNCHANGED"

	// MetadataDirectiveReplace replaces metadata with the values supplied on the copy
	MetadataDirectiveReplace MetadataDirective = "REPLACE"
)

// Credential holds the UCloud API key pair used to sign requests.
type Credential struct {
	// PublicKey identifies the account in the Authorization header
	PublicKey string

	// PrivateKey is the HMAC-SHA1 signing secret
	PrivateKey string
}

// ObjectMetadata contains detailed metadata about a UFile object.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object
	ContentType string

	// ContentLength is the size of the object in bytes
	ContentLength int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// Metadata contains user-defined metadata from X-Ufile-Meta- headers
	Metadata map[string]string
}

// MultipartSession identifies an initiated multipart upload. The server
// negotiates the block size at init time and every part except the last
// must be exactly BlockSize bytes.
type MultipartSession struct {
	// UploadID is the server-issued identifier for the session
	UploadID string

	// BlockSize is the server-negotiated part size in bytes
	BlockSize int64

	// Bucket is the bucket the session was opened against
	Bucket string

	// Key is the object key the session was opened against
	Key string

	// MimeType is the content type declared at init
	MimeType string
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadedPart records one completed part of a multipart session.
type UploadedPart struct {
	// Number is the 1-based part number
	Number int

	// ETag is the service-issued tag the finish request must echo back
	ETag string
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// ETag is the entity tag for the uploaded object
	ETag string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the object key that was downloaded
	Key string

	// Size is the size of the downloaded object in bytes
	Size int64

	// ETag is the entity tag for the downloaded object
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// FinishResult contains the result of completing a multipart upload.
type FinishResult struct {
	// Key is the final object key, which may differ from the session key when
	// a new key was supplied at finish time
	Key string

	// ETag is the entity tag for the assembled object
	ETag string

	// Size is the total size of the assembled object in bytes
	Size int64
}

// Configuration types for functional options

// ClientConfig holds configuration for the UFile client.
type ClientConfig struct {
	Credential       Credential
	Region           string
	ProxySuffix      string
	CustomHost       string
	Scheme           string
	DefaultBucket    string
	SecurityToken    string
	Timeout          time.Duration
	Concurrency      int
	PartSize         int64
	CustomHTTPClient *http.Client
	Filesystem       fs.Filesystem // Filesystem abstraction for file operations
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
	VerifyMD5       bool
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	ProgressTracker ProgressTracker
	RangeSpec       string // raw Range header value, e.g. "bytes=0-1023"
	PartSize        int64
	Concurrency     int
}

// CopyOptionConfig holds configuration for copy operations via functional options.
type CopyOptionConfig struct {
	Metadata          map[string]string
	StorageClass      StorageClass
	MetadataDirective MetadataDirective
}

// PresignOptionConfig holds configuration for presigned URL generation via functional options.
type PresignOptionConfig struct {
	// AttachmentName sets the ufileattname query parameter so browsers save
	// the object under a filename instead of rendering it inline
	AttachmentName string

	// IOPCommand sets the iopcmd query parameter for image processing
	IOPCommand string
}

// Option is a functional option for configuring the UFile client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
	// CopyOption is a functional option for configuring copy operations.
	CopyOption func(*CopyOptionConfig)
	// PresignOption is a functional option for configuring presigned URLs.
	PresignOption func(*PresignOptionConfig)
)
