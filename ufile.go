// Package ufile implements the core object operations of the client.
package ufile

import (
	"bytes"
	"context"
	"io"
	"time"

	uferrors "github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/etag"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// localETagBlockSize is the block size the service uses when computing
// object ETags, so locally computed tags line up with served ones.
const localETagBlockSize = 4 * 1024 * 1024

// Upload uploads data from an io.Reader to UFile.
// It automatically switches to multipart upload above the 100MB threshold;
// smaller payloads go out as a single PUT. Progress tracking and other
// options can be configured via UploadOption parameters.
//
// Returns:
//   - *UploadResult: The uploaded object's key, size, ETag and duration
//   - error: Returns an error if the upload fails
//
// Errors:
//   - ErrInvalidInput: If the bucket, key or metadata is invalid, or reader is nil
//   - *ServiceError: If the service rejects any request of the transfer
//
// Example:
//
//	file, err := os.Open("data.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	result, err := client.Upload(ctx, "my-bucket", "data.txt", file,
//	    ufile.WithContentType("text/plain"),
//	    ufile.WithStorageClass(ufiletypes.StorageClassIA),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %s in %v\n", result.Key, result.Duration)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...ufiletypes.UploadOption,
) (*ufiletypes.UploadResult, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.uploadConfig("upload", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, uferrors.NewError("upload", uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("reader cannot be nil")
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentTypeFromExtension(key)
	}

	return c.uploader.Upload(ctx, bucket, key, reader, config, time.Now())
}

// UploadFile uploads a file from the filesystem to UFile.
// Content is addressed through the client's filesystem abstraction, so an
// in-memory filesystem works transparently. Files past the multipart
// threshold stream part by part without being buffered whole.
//
// Returns:
//   - *UploadResult: The uploaded object's key, size, ETag and duration
//   - error: Returns an error if the upload fails
//
// Errors:
//   - ErrInvalidInput: If the bucket or key is invalid, or the path is a directory
//   - Filesystem errors if the file cannot be opened or read
//   - *ServiceError: If the service rejects any request of the transfer
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...ufiletypes.UploadOption,
) (*ufiletypes.UploadResult, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.uploadConfig("uploadFile", bucket, key, opts)
	if err != nil {
		return nil, err
	}

	fsys := c.filesystem()
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, uferrors.NewObjectError("uploadFile", bucket, key, err)
	}
	if info.IsDir() {
		return nil, uferrors.NewError("uploadFile", uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path is a directory")
	}

	if config.ContentType == "" {
		config.ContentType = c.detectContentType(path)
	}

	file, err := fsys.Open(path)
	if err != nil {
		return nil, uferrors.NewObjectError("uploadFile", bucket, key, err)
	}
	defer file.Close()

	return c.uploader.UploadAt(ctx, bucket, key, file, info.Size(), config, time.Now())
}

// Put uploads a byte slice under the given key. This is a convenience
// method for small objects; use Upload for streams and large payloads.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...ufiletypes.UploadOption) error {
	bucket = c.resolveBucket(bucket)
	config, err := c.uploadConfig("put", bucket, key, opts)
	if err != nil {
		return err
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentTypeFromExtension(key)
	}

	_, err = c.uploader.UploadAt(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), config, time.Now())
	return err
}

// Download downloads an object and writes it to an io.Writer over a
// single streaming GET. A byte range can be selected with WithRange.
//
// Returns:
//   - *DownloadResult: The object's key, size, ETag and transfer duration
//   - error: Returns an error if the download fails
//
// Errors:
//   - ErrInvalidInput: If the bucket or key is invalid, or writer is nil
//   - ErrObjectNotFound: If the object does not exist
//   - *ServiceError: If the service answers any other non-2xx status
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	opts ...ufiletypes.DownloadOption,
) (*ufiletypes.DownloadResult, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.downloadConfig("download", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if writer == nil {
		return nil, uferrors.NewError("download", uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("writer cannot be nil")
	}

	return c.downloader.Download(ctx, bucket, key, writer, config, time.Now())
}

// DownloadFile downloads an object to a file on the client's filesystem
// using concurrent ranged GETs against a presigned URL. The object size
// comes from a HEAD request; ranges that completed before a failure stay
// written and no cleanup is attempted, so a failed download leaves a
// partial file behind.
//
// Returns:
//   - *DownloadResult: The object's key, size, ETag and transfer duration
//   - error: Returns an error if the download fails
//
// Errors:
//   - ErrInvalidInput: If the bucket or key is invalid
//   - ErrObjectNotFound: If the object does not exist
//   - Filesystem errors if the file cannot be created or written
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...ufiletypes.DownloadOption,
) (*ufiletypes.DownloadResult, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.downloadConfig("downloadFile", bucket, key, opts)
	if err != nil {
		return nil, err
	}

	return c.downloader.DownloadFile(ctx, c.filesystem(), bucket, key, path, config, time.Now())
}

// Get downloads an entire object and returns it as a byte slice.
// This is a convenience method for small objects that fit in memory.
func (c *Client) Get(ctx context.Context, bucket, key string, opts ...ufiletypes.DownloadOption) ([]byte, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.downloadConfig("get", bucket, key, opts)
	if err != nil {
		return nil, err
	}

	return c.downloader.Get(ctx, bucket, key, config, time.Now())
}

// Head fetches object metadata without transferring the body.
//
// Returns:
//   - *ObjectMetadata: Content type, length, ETag, last modified time and
//     user metadata harvested from X-Ufile-Meta- headers
//
// Errors:
//   - ErrObjectNotFound: If the object does not exist
func (c *Client) Head(ctx context.Context, bucket, key string) (*ufiletypes.ObjectMetadata, error) {
	bucket = c.resolveBucket(bucket)
	if err := c.validateAddress("head", bucket, key); err != nil {
		return nil, err
	}

	return c.downloader.Head(ctx, bucket, key)
}

// Exists reports whether an object is present in the bucket.
// A missing object is not an error; any other failure is.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	bucket = c.resolveBucket(bucket)
	if err := c.validateAddress("exists", bucket, key); err != nil {
		return false, err
	}

	return c.downloader.Exists(ctx, bucket, key)
}

// Copy copies an object server-side; no object data transits the client.
// By default the destination keeps the source metadata; WithCopyMetadata
// replaces it.
//
// Errors:
//   - ErrInvalidInput: If either address is invalid
//   - ErrObjectNotFound: If the source object does not exist
func (c *Client) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	opts ...ufiletypes.CopyOption,
) error {
	srcBucket = c.resolveBucket(srcBucket)
	dstBucket = c.resolveBucket(dstBucket)
	if err := c.validateAddress("copy", srcBucket, srcKey); err != nil {
		return err
	}
	if err := c.validateAddress("copy", dstBucket, dstKey); err != nil {
		return err
	}

	config := &ufiletypes.CopyOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return uferrors.NewError("copy", uferrors.ErrInvalidInput).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage(err.Error())
	}

	_, err := c.copier.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey, config)
	return err
}

// Move copies an object server-side and deletes the source on success.
// The two steps are not atomic: a delete failure leaves both objects in
// place and returns the delete error.
func (c *Client) Move(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	opts ...ufiletypes.CopyOption,
) error {
	if err := c.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey, opts...); err != nil {
		return err
	}
	return c.Delete(ctx, srcBucket, srcKey)
}

// Delete removes an object.
//
// Errors:
//   - ErrObjectNotFound: If the object does not exist
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	bucket = c.resolveBucket(bucket)
	if err := c.validateAddress("delete", bucket, key); err != nil {
		return err
	}

	return c.deleter.Delete(ctx, bucket, key)
}

// PresignURL builds a presigned URL granting temporary access to an
// object without sharing credentials. The signature covers the method,
// the object address and the absolute expiry timestamp embedded in the
// URL, so the URL is valid until that wall-clock instant.
//
// Returns:
//   - The complete URL including UCloudPublicKey, Signature and Expires
//     query parameters, plus any optional parameters
//
// Errors:
//   - ErrInvalidExpires: If expires is not a positive duration
//   - ErrInvalidInput: If the bucket or key is invalid
//
// Example:
//
//	url, err := client.PresignURL(http.MethodGet, "my-bucket", "report.pdf", 15*time.Minute,
//	    ufile.WithAttachmentName("quarterly-report.pdf"),
//	)
func (c *Client) PresignURL(
	method, bucket, key string,
	expires time.Duration,
	opts ...ufiletypes.PresignOption,
) (string, error) {
	bucket = c.resolveBucket(bucket)
	if err := c.validateAddress("presign", bucket, key); err != nil {
		return "", err
	}
	if expires <= 0 {
		return "", uferrors.NewError("presign", uferrors.ErrInvalidExpires).
			WithBucket(bucket).
			WithKey(key)
	}

	config := &ufiletypes.PresignOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	expiresAt := time.Now().Add(expires).Unix()
	return c.caller.Resolver().PresignedURL(
		c.caller.Authorizer(), method, bucket, key, expiresAt, c.caller.SecurityToken(), config)
}

// LocalETag computes the UFile ETag of a local file, using the same
// block-SHA1 construction the service applies, so the result can be
// compared against the ETag of an uploaded object.
func (c *Client) LocalETag(path string) (string, error) {
	fsys := c.filesystem()

	info, err := fsys.Stat(path)
	if err != nil {
		return "", uferrors.NewError("localETag", err)
	}
	file, err := fsys.Open(path)
	if err != nil {
		return "", uferrors.NewError("localETag", err)
	}
	defer file.Close()

	sum, err := etag.Sum(file, info.Size(), localETagBlockSize)
	if err != nil {
		return "", uferrors.NewError("localETag", err)
	}
	return sum.Value, nil
}

// uploadConfig validates the object address, applies upload options over
// the defaults and validates the resulting metadata and content type.
func (c *Client) uploadConfig(
	op, bucket, key string,
	opts []ufiletypes.UploadOption,
) (*ufiletypes.UploadOptionConfig, error) {
	if err := c.validateAddress(op, bucket, key); err != nil {
		return nil, err
	}

	config := &ufiletypes.UploadOptionConfig{
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.ContentType != "" {
		if err := validation.ValidateMimeType(config.ContentType); err != nil {
			return nil, uferrors.NewError(op, uferrors.ErrInvalidInput).
				WithBucket(bucket).
				WithKey(key).
				WithMessage(err.Error())
		}
	}
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return nil, uferrors.NewError(op, uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	return config, nil
}

// downloadConfig validates the object address and applies download
// options over the client defaults.
func (c *Client) downloadConfig(
	op, bucket, key string,
	opts []ufiletypes.DownloadOption,
) (*ufiletypes.DownloadOptionConfig, error) {
	if err := c.validateAddress(op, bucket, key); err != nil {
		return nil, err
	}

	config := &ufiletypes.DownloadOptionConfig{
		PartSize:    c.config.PartSize,
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(config)
	}

	return config, nil
}

// validateAddress checks the bucket name and object key.
func (c *Client) validateAddress(op, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return uferrors.NewError(op, uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return uferrors.NewError(op, uferrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	return nil
}
