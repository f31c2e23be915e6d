// Package ufile provides functional options for configuring client behavior.
// These options follow the functional options pattern for clean, composable
// configuration.
package ufile

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// WithCredential sets the UCloud API key pair used to sign requests.
// Both keys are required; New fails without them.
func WithCredential(publicKey, privateKey string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.Credential = ufiletypes.Credential{
			PublicKey:  publicKey,
			PrivateKey: privateKey,
		}
	}
}

// WithRegion sets the UFile region, e.g. "cn-bj". The region becomes part
// of the endpoint host unless a custom host is configured.
func WithRegion(region string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.Region = region
	}
}

// WithProxySuffix sets the endpoint suffix appended after the region.
// Default is "ufileos.com"; private deployments use their own suffix.
func WithProxySuffix(suffix string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		if suffix != "" {
			c.ProxySuffix = suffix
		}
	}
}

// WithCustomHost routes all requests through a fixed host instead of the
// derived bucket.region.suffix endpoint. Include the scheme, e.g.
// "https://cdn.example.com".
func WithCustomHost(host string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.CustomHost = host
	}
}

// WithScheme sets the URL scheme for derived endpoints.
// Default is "https".
func WithScheme(scheme string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		if scheme != "" {
			c.Scheme = scheme
		}
	}
}

// WithSecurityToken attaches an STS security token to every request and
// to generated presigned URLs.
func WithSecurityToken(token string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.SecurityToken = token
	}
}

// WithDefaultBucket sets a default bucket for operations that don't
// specify one. This can be overridden on a per-operation basis.
func WithDefaultBucket(bucket string) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.DefaultBucket = bucket
	}
}

// WithTimeout sets the overall timeout for individual requests.
// Default is one hour, sized for large part transfers.
func WithTimeout(timeout time.Duration) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the maximum number of concurrent part transfers.
// Default is twice the number of CPUs.
func WithConcurrency(concurrency int) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPartSize sets the block size for ranged downloads.
// Default is 4MB. Multipart upload part sizes are negotiated by the
// service and are not affected.
func WithPartSize(partSize int64) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts, proxies
// and TLS configuration; WithTimeout is ignored when one is supplied.
func WithCustomHTTPClient(client *http.Client) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithFilesystem sets a custom filesystem implementation for file
// operations. This allows using in-memory filesystems for testing or
// virtual filesystems. If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) ufiletypes.Option {
	return func(c *ufiletypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithContentType sets the content type for upload operations.
func WithContentType(contentType string) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for upload operations. Keys are sent as
// X-Ufile-Meta-{key} headers.
func WithMetadata(metadata map[string]string) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class for upload operations.
func WithStorageClass(storageClass ufiletypes.StorageClass) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker ufiletypes.ProgressTracker) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithVerifyMD5 enables Content-MD5 integrity headers on uploads.
// The hex digest is computed per part for multipart uploads.
func WithVerifyMD5(verify bool) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		c.VerifyMD5 = verify
	}
}

// WithUploadConcurrency sets the concurrency level for multipart uploads
// in upload operations. This overrides the client-level default for this
// specific upload.
func WithUploadConcurrency(concurrency int) ufiletypes.UploadOption {
	return func(c *ufiletypes.UploadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithDownloadProgress sets a progress tracker for download operations.
func WithDownloadProgress(tracker ufiletypes.ProgressTracker) ufiletypes.DownloadOption {
	return func(c *ufiletypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithRange restricts a streaming download to a byte range. The value is
// a raw Range header, e.g. "bytes=0-1023".
func WithRange(rangeSpec string) ufiletypes.DownloadOption {
	return func(c *ufiletypes.DownloadOptionConfig) {
		c.RangeSpec = rangeSpec
	}
}

// WithDownloadPartSize sets the block size for ranged file downloads.
// This overrides the client-level default for this specific download.
func WithDownloadPartSize(partSize int64) ufiletypes.DownloadOption {
	return func(c *ufiletypes.DownloadOptionConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithDownloadConcurrency sets the concurrency level for ranged file
// downloads. This overrides the client-level default for this specific
// download.
func WithDownloadConcurrency(concurrency int) ufiletypes.DownloadOption {
	return func(c *ufiletypes.DownloadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithCopyMetadata replaces the destination object's metadata during a
// copy. Implies the REPLACE metadata directive.
func WithCopyMetadata(metadata map[string]string) ufiletypes.CopyOption {
	return func(c *ufiletypes.CopyOptionConfig) {
		c.Metadata = metadata
		c.MetadataDirective = ufiletypes.MetadataDirectiveReplace
	}
}

// WithCopyStorageClass sets the storage class of the copied object.
func WithCopyStorageClass(storageClass ufiletypes.StorageClass) ufiletypes.CopyOption {
	return func(c *ufiletypes.CopyOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithAttachmentName makes presigned GET URLs download as an attachment
// saved under the given filename.
func WithAttachmentName(name string) ufiletypes.PresignOption {
	return func(c *ufiletypes.PresignOptionConfig) {
		c.AttachmentName = name
	}
}

// WithIOPCommand attaches an image processing command to presigned URLs.
func WithIOPCommand(cmd string) ufiletypes.PresignOption {
	return func(c *ufiletypes.PresignOptionConfig) {
		c.IOPCommand = cmd
	}
}
