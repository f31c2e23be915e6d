// Package download handles UFile object download operations.
// This includes stream-based downloads over signed GETs, ranged concurrent
// downloads to files via presigned URLs, and object metadata lookups.
package download

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/transfer/ranged"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// DefaultPartSize is the ranged download block size when the caller does
// not override it.
const DefaultPartSize = 4 * 1024 * 1024

// presignTTL bounds the lifetime of the presigned URLs that back ranged
// file downloads.
const presignTTL = 24 * time.Hour

// metaHeaderPrefix is the canonical form of the user metadata header
// prefix as it appears in parsed response headers.
const metaHeaderPrefix = "X-Ufile-Meta-"

// Downloader handles download operations with progress tracking support.
type Downloader struct {
	caller     *api.Caller
	httpClient api.Doer
	gate       *gate.Gate
}

// New creates a new Downloader instance. httpClient executes the
// presigned ranged fetches, which bypass request signing.
func New(caller *api.Caller, httpClient api.Doer, g *gate.Gate) *Downloader {
	return &Downloader{
		caller:     caller,
		httpClient: httpClient,
		gate:       g,
	}
}

// Download streams an object into writer over a single signed GET.
// A Range header is attached when the config names one.
//
// Errors:
//   - errors.ErrObjectNotFound: the service answered 404
//   - *errors.ServiceError: any other non-2xx answer
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	config *ufiletypes.DownloadOptionConfig,
	startTime time.Time,
) (*ufiletypes.DownloadResult, error) {
	resp, err := d.caller.Stream(ctx, "download", &api.Call{
		Method:        http.MethodGet,
		Bucket:        bucket,
		Key:           key,
		Range:         config.RangeSpec,
		ContentLength: -1,
	})
	if err != nil {
		return nil, mapNotFound(err, "download", bucket, key)
	}
	defer resp.Body.Close()

	size := resp.ContentLength
	if size < 0 {
		size = 0
	}

	var reader io.Reader = resp.Body
	if config.ProgressTracker != nil {
		reader = &progressReader{
			reader:  resp.Body,
			tracker: config.ProgressTracker,
			total:   size,
		}
	}

	bytesWritten, err := io.Copy(writer, reader)
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, errors.NewObjectError("download", bucket, key, err)
	}

	if size == 0 {
		size = bytesWritten
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(bytesWritten, size)
		config.ProgressTracker.Complete()
	}

	return &ufiletypes.DownloadResult{
		Key:      key,
		Size:     size,
		ETag:     api.StripETag(resp.Header.Get("ETag")),
		Duration: time.Since(startTime),
	}, nil
}

// Get downloads an entire object and returns it as a byte slice.
// This is a convenience method for small objects that fit in memory.
func (d *Downloader) Get(
	ctx context.Context,
	bucket, key string,
	config *ufiletypes.DownloadOptionConfig,
	startTime time.Time,
) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.Download(ctx, bucket, key, &buf, config, startTime); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DownloadFile downloads an object into a file on the given filesystem
// using concurrent ranged GETs against a presigned URL. Ranges that
// completed before a failure stay written; the partial file is left in
// place for the caller to resume or remove.
func (d *Downloader) DownloadFile(
	ctx context.Context,
	fsys fs.Filesystem,
	bucket, key, path string,
	config *ufiletypes.DownloadOptionConfig,
	startTime time.Time,
) (*ufiletypes.DownloadResult, error) {
	meta, err := d.Head(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	file, err := fsys.Create(path)
	if err != nil {
		return nil, errors.NewObjectError("downloadFile", bucket, key, err)
	}

	if meta.ContentLength == 0 {
		if err := file.Close(); err != nil {
			return nil, errors.NewObjectError("downloadFile", bucket, key, err)
		}
		if config.ProgressTracker != nil {
			config.ProgressTracker.Complete()
		}
		return &ufiletypes.DownloadResult{
			Key:      key,
			Size:     0,
			ETag:     meta.ETag,
			Duration: time.Since(startTime),
		}, nil
	}

	expiresAt := time.Now().Add(presignTTL).Unix()
	url, err := d.caller.Resolver().PresignedURL(
		d.caller.Authorizer(), http.MethodGet, bucket, key, expiresAt, d.caller.SecurityToken(), nil)
	if err != nil {
		file.Close()
		return nil, err
	}

	blockSize := config.PartSize
	if blockSize <= 0 {
		blockSize = DefaultPartSize
	}

	coord := ranged.NewCoordinator(d.httpClient, d.gateFor(config))
	err = coord.Download(ctx, url, meta.ContentLength, blockSize, d.caller.SecurityToken(), file, config.ProgressTracker)
	if err != nil {
		file.Close()
		return nil, mapNotFound(err, "downloadFile", bucket, key)
	}

	if err := file.Close(); err != nil {
		return nil, errors.NewObjectError("downloadFile", bucket, key, err)
	}

	return &ufiletypes.DownloadResult{
		Key:      key,
		Size:     meta.ContentLength,
		ETag:     meta.ETag,
		Duration: time.Since(startTime),
	}, nil
}

// Head fetches object metadata over a signed HEAD request, harvesting
// user metadata from the X-Ufile-Meta- response headers.
//
// Errors:
//   - errors.ErrObjectNotFound: the service answered 404
func (d *Downloader) Head(ctx context.Context, bucket, key string) (*ufiletypes.ObjectMetadata, error) {
	resp, err := d.caller.Do(ctx, "head", &api.Call{
		Method:        http.MethodHead,
		Bucket:        bucket,
		Key:           key,
		ContentLength: -1,
	})
	if err != nil {
		return nil, mapNotFound(err, "head", bucket, key)
	}

	meta := &ufiletypes.ObjectMetadata{
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.ETag,
	}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			meta.ContentLength = n
		}
	}
	if v := resp.Header.Get("Last-Modified"); v != "" {
		if t, perr := http.ParseTime(v); perr == nil {
			meta.LastModified = t
		}
	}
	for name, values := range resp.Header {
		if strings.HasPrefix(name, metaHeaderPrefix) && len(values) > 0 {
			if meta.Metadata == nil {
				meta.Metadata = make(map[string]string)
			}
			// Header names arrive canonicalized, so lowercase the key
			// to round-trip what the uploader set.
			key := strings.ToLower(strings.TrimPrefix(name, metaHeaderPrefix))
			meta.Metadata[key] = values[0]
		}
	}

	return meta, nil
}

// Exists reports whether the object is present.
// A 404 maps to (false, nil); every other failure surfaces as an error.
func (d *Downloader) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := d.Head(ctx, bucket, key)
	if err != nil {
		if errors.IsObjectNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// gateFor returns a dedicated gate when the operation overrides the
// concurrency bound, otherwise the shared client gate.
func (d *Downloader) gateFor(config *ufiletypes.DownloadOptionConfig) *gate.Gate {
	if config.Concurrency > 0 && config.Concurrency != d.gate.Limit() {
		return gate.New(config.Concurrency)
	}
	return d.gate
}

// mapNotFound rewrites 404 service answers to the not-found sentinel so
// callers can test with errors.IsObjectNotFound.
func mapNotFound(err error, op, bucket, key string) error {
	if svc := errors.AsServiceError(err); svc != nil && svc.Status == http.StatusNotFound {
		return errors.NewObjectError(op, bucket, key, errors.ErrObjectNotFound)
	}
	return err
}

// progressReader wraps an io.Reader to report cumulative progress.
type progressReader struct {
	reader    io.Reader
	tracker   ufiletypes.ProgressTracker
	total     int64
	bytesRead int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
		pr.tracker.Update(pr.bytesRead, pr.total)
	}
	//nolint:wrapcheck // io.Reader contract, error comes from the underlying reader
	return n, err
}
