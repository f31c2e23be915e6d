// Package upload handles UFile object upload operations.
// This includes simple PUT uploads and multipart uploads for large
// payloads, with automatic selection between the two based on size.
package upload

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // service-mandated integrity digest
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// MultipartThreshold is the payload size at which uploads switch from a
// single PUT to a multipart session.
const MultipartThreshold = 100 * 1024 * 1024

// Uploader handles upload operations with automatic multipart selection.
type Uploader struct {
	caller *api.Caller
	gate   *gate.Gate
}

// New creates a new Uploader instance.
func New(caller *api.Caller, g *gate.Gate) *Uploader {
	return &Uploader{
		caller: caller,
		gate:   g,
	}
}

// Upload uploads data from an io.Reader.
// It buffers the reader to determine size, then selects a simple PUT or a
// multipart session based on the multipart threshold.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	config *ufiletypes.UploadOptionConfig,
	startTime time.Time,
) (*ufiletypes.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key, err)
	}

	size := int64(len(data))
	if size >= MultipartThreshold {
		return u.uploadMultipart(ctx, bucket, key, bytes.NewReader(data), size, config, startTime)
	}

	return u.uploadSimple(ctx, bucket, key, data, config, startTime)
}

// UploadAt uploads size bytes addressed through an io.ReaderAt. Large
// payloads go through a multipart session without buffering the whole
// source in memory; small ones are read once and sent as a single PUT.
func (u *Uploader) UploadAt(
	ctx context.Context,
	bucket, key string,
	src io.ReaderAt,
	size int64,
	config *ufiletypes.UploadOptionConfig,
	startTime time.Time,
) (*ufiletypes.UploadResult, error) {
	if size >= MultipartThreshold {
		return u.uploadMultipart(ctx, bucket, key, src, size, config, startTime)
	}

	data := make([]byte, size)
	if size > 0 {
		if _, err := src.ReadAt(data, 0); err != nil {
			return nil, errors.NewObjectError("upload", bucket, key, err)
		}
	}

	return u.uploadSimple(ctx, bucket, key, data, config, startTime)
}

// uploadSimple performs a single PUT upload.
func (u *Uploader) uploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *ufiletypes.UploadOptionConfig,
	startTime time.Time,
) (*ufiletypes.UploadResult, error) {
	size := int64(len(data))

	var contentMD5 string
	if config.VerifyMD5 {
		sum := md5.Sum(data) //nolint:gosec
		contentMD5 = hex.EncodeToString(sum[:])
	}

	resp, err := u.caller.Do(ctx, "upload", &api.Call{
		Method:        http.MethodPut,
		Bucket:        bucket,
		Key:           key,
		ContentType:   config.ContentType,
		ContentMD5:    contentMD5,
		StorageClass:  string(config.StorageClass),
		Metadata:      config.Metadata,
		Body:          bytes.NewReader(data),
		ContentLength: size,
	})
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, err
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return &ufiletypes.UploadResult{
		Key:      key,
		Size:     size,
		ETag:     resp.ETag,
		Duration: time.Since(startTime),
	}, nil
}

// uploadMultipart runs a full multipart session: init, concurrent parts,
// finish. On a part failure the session is left open for the caller to
// inspect; nothing is aborted automatically.
func (u *Uploader) uploadMultipart(
	ctx context.Context,
	bucket, key string,
	src io.ReaderAt,
	size int64,
	config *ufiletypes.UploadOptionConfig,
	startTime time.Time,
) (*ufiletypes.UploadResult, error) {
	coord := multipart.NewCoordinator(u.caller, u.gateFor(config))

	session, err := coord.Init(ctx, bucket, key, config.ContentType, &multipart.InitOptions{
		StorageClass: config.StorageClass,
		Metadata:     config.Metadata,
	})
	if err != nil {
		return nil, err
	}

	parts, err := coord.Upload(ctx, session, src, size, config.VerifyMD5, config.ProgressTracker)
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, err
	}

	fin, err := coord.Finish(ctx, session, parts, nil)
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, err
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Complete()
	}

	return &ufiletypes.UploadResult{
		Key:      fin.Key,
		Size:     size,
		ETag:     fin.ETag,
		Duration: time.Since(startTime),
	}, nil
}

// gateFor returns a dedicated gate when the operation overrides the
// concurrency bound, otherwise the shared client gate.
func (u *Uploader) gateFor(config *ufiletypes.UploadOptionConfig) *gate.Gate {
	if config.Concurrency > 0 && config.Concurrency != u.gate.Limit() {
		return gate.New(config.Concurrency)
	}
	return u.gate
}
