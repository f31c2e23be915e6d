// Package ufile exposes the multipart transfer engine for callers that
// need part-level control: resuming after a failed part, custom part
// scheduling, or explicit abort decisions.
package ufile

import (
	"context"
	"io"
	"sync"

	uferrors "github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// MultipartUpload is an open multipart session. It collects part ETags as
// parts complete and becomes terminal after a successful Finish or Abort;
// every operation on a terminal session fails with ErrSessionClosed.
//
// A failed part does not close the session. The part can be uploaded
// again, or the session aborted, at the caller's choice; nothing happens
// automatically.
type MultipartUpload struct {
	coordinator *multipart.Coordinator
	session     *ufiletypes.MultipartSession
	verifyMD5   bool
	tracker     ufiletypes.ProgressTracker

	mu     sync.Mutex
	closed bool
	parts  []multipart.PartResult
}

// NewMultipartUpload opens a multipart session for the given object.
// The service negotiates the part size; read it from Session().BlockSize.
// Every part except the last must be exactly that many bytes.
//
// Errors:
//   - ErrInvalidInput: If the bucket, key or metadata is invalid
//   - *ServiceError: If the service refuses to open a session; nothing
//     was created and there is nothing to abort
func (c *Client) NewMultipartUpload(
	ctx context.Context,
	bucket, key string,
	opts ...ufiletypes.UploadOption,
) (*MultipartUpload, error) {
	bucket = c.resolveBucket(bucket)
	config, err := c.uploadConfig("multipartInit", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentTypeFromExtension(key)
	}

	coord := multipart.NewCoordinator(c.caller, c.gate)
	session, err := coord.Init(ctx, bucket, key, config.ContentType, &multipart.InitOptions{
		StorageClass: config.StorageClass,
		Metadata:     config.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &MultipartUpload{
		coordinator: coord,
		session:     session,
		verifyMD5:   config.VerifyMD5,
		tracker:     config.ProgressTracker,
	}, nil
}

// Session returns a copy of the session state, including the
// server-issued upload id and the negotiated block size.
func (m *MultipartUpload) Session() ufiletypes.MultipartSession {
	return *m.session
}

// Parts returns the parts recorded so far, in completion order.
func (m *MultipartUpload) Parts() []ufiletypes.UploadedPart {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ufiletypes.UploadedPart, len(m.parts))
	for i, p := range m.parts {
		out[i] = ufiletypes.UploadedPart{Number: p.Number, ETag: p.ETag}
	}
	return out
}

// UploadPart uploads one part. Part numbers are 1-based and must be
// contiguous across the session by finish time; uploading the same number
// again replaces the recorded ETag.
//
// Errors:
//   - ErrSessionClosed: The session was already finished or aborted
//   - *ServiceError: The service rejected the part; the error carries the
//     upload id and part number
func (m *MultipartUpload) UploadPart(ctx context.Context, number int, data []byte) (ufiletypes.UploadedPart, error) {
	if err := m.open("multipartUploadPart"); err != nil {
		return ufiletypes.UploadedPart{}, err
	}
	if number < 1 {
		return ufiletypes.UploadedPart{}, uferrors.
			NewObjectError("multipartUploadPart", m.session.Bucket, m.session.Key, uferrors.ErrInvalidInput).
			WithUploadID(m.session.UploadID).
			WithMessage("part numbers start at 1")
	}

	result, err := m.coordinator.UploadPart(ctx, m.session, transfer.Part{Number: number}, data, m.verifyMD5)
	if err != nil {
		return ufiletypes.UploadedPart{}, err
	}

	m.record(result)
	return ufiletypes.UploadedPart{Number: result.Number, ETag: result.ETag}, nil
}

// UploadFrom splits src into block-sized parts and uploads them
// concurrently under the client's gate. On failure the remaining in-flight
// parts run to completion and the first error is returned; completed parts
// stay recorded so the caller can retry just the missing ones.
//
// Errors:
//   - ErrSessionClosed: The session was already finished or aborted
func (m *MultipartUpload) UploadFrom(ctx context.Context, src io.ReaderAt, totalSize int64) error {
	if err := m.open("multipartUpload"); err != nil {
		return err
	}

	results, err := m.coordinator.Upload(ctx, m.session, src, totalSize, m.verifyMD5, m.tracker)
	for _, r := range results {
		if r.ETag != "" {
			m.record(r)
		}
	}
	return err
}

// Finish commits the session, assembling the recorded parts in part
// number order. Pass newKey to store the object under a different key
// than the one the session was opened with; empty keeps the session key.
// After a successful Finish the session is terminal.
//
// Errors:
//   - ErrSessionClosed: The session was already finished or aborted
//   - *ServiceError: The service rejected the ETag sequence, e.g. when a
//     part is missing
func (m *MultipartUpload) Finish(ctx context.Context, newKey string) (*ufiletypes.FinishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, m.closedErr("multipartFinish")
	}

	result, err := m.coordinator.Finish(ctx, m.session, m.parts, &multipart.FinishOptions{NewKey: newKey})
	if err != nil {
		return nil, err
	}

	m.closed = true
	if m.tracker != nil {
		m.tracker.Complete()
	}
	return result, nil
}

// Abort discards the session server-side, dropping parts already stored.
// Abort does not undo a committed Finish. After a successful Abort the
// session is terminal.
//
// Errors:
//   - ErrSessionClosed: The session was already finished or aborted
func (m *MultipartUpload) Abort(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.closedErr("multipartAbort")
	}

	if err := m.coordinator.Abort(ctx, m.session); err != nil {
		return err
	}

	m.closed = true
	return nil
}

// open fails with the session-closed sentinel once the session is
// terminal.
func (m *MultipartUpload) open(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.closedErr(op)
	}
	return nil
}

func (m *MultipartUpload) closedErr(op string) error {
	return uferrors.NewObjectError(op, m.session.Bucket, m.session.Key, uferrors.ErrSessionClosed).
		WithUploadID(m.session.UploadID)
}

// record stores the part result, replacing a previous result for the
// same part number.
func (m *MultipartUpload) record(result multipart.PartResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.parts {
		if p.Number == result.Number {
			m.parts[i] = result
			return
		}
	}
	m.parts = append(m.parts, result)
}
