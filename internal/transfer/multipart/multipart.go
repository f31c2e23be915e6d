// Package multipart drives the UFile multipart upload protocol: one Init
// call opens a session, parts are uploaded concurrently under a bounded
// gate, and the session ends with exactly one Finish or Abort.
//
// The coordinator never retries and never aborts on its own. When a part
// fails, the first error is surfaced after every in-flight part has
// resolved, with the upload id attached so the caller can decide whether
// to re-upload failed parts or abort the session explicitly.
package multipart

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // Content-MD5 is mandated by the UFile protocol
	"encoding/hex"
	stderrors "errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/endpoint"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// PartResult records one successfully uploaded part.
type PartResult struct {
	// Number is the part's 1-based number
	Number int

	// ETag is the service-returned entity tag, quotes stripped
	ETag string

	// Header holds the raw response headers of the part upload
	Header http.Header
}

// FinishOptions carries the optional parameters of the Finish call.
type FinishOptions struct {
	// NewKey renames the assembled object when non-empty
	NewKey string

	// MetadataDirective is UNCHANGED or REPLACE; empty omits the header
	MetadataDirective ufiletypes.MetadataDirective

	// Metadata is applied when the directive is REPLACE
	Metadata map[string]string
}

// InitOptions carries the optional parameters of the Init call.
type InitOptions struct {
	StorageClass ufiletypes.StorageClass
	Metadata     map[string]string
}

// Coordinator owns one logical multipart upload at a time. It is built
// once per client and is safe for concurrent use; per-session state lives
// in the MultipartSession values it hands out.
type Coordinator struct {
	caller *api.Caller
	gate   *gate.Gate
}

// NewCoordinator creates a Coordinator executing calls through caller and
// admitting parts through g.
func NewCoordinator(caller *api.Caller, g *gate.Gate) *Coordinator {
	return &Coordinator{caller: caller, gate: g}
}

// initResponse is the JSON body of a successful Init call.
type initResponse struct {
	UploadID  string `json:"UploadId"`
	BlockSize int64  `json:"BlkSize"`
	Bucket    string `json:"Bucket"`
	Key       string `json:"Key"`
}

// Init opens a multipart session. The service negotiates the block size;
// every part except the last must be exactly that many bytes. The mime
// type is backfilled into the session so Finish and Abort can sign with it.
//
// Errors:
//   - errors.ErrMissingContentType: mimeType is empty
//   - *errors.ServiceError: the service refused to open a session; nothing
//     was created and there is nothing to abort
func (c *Coordinator) Init(
	ctx context.Context,
	bucket, key, mimeType string,
	opts *InitOptions,
) (*ufiletypes.MultipartSession, error) {
	if mimeType == "" {
		return nil, errors.NewObjectError("multipartInit", bucket, key, errors.ErrMissingContentType)
	}

	call := &api.Call{
		Method:        http.MethodPost,
		Bucket:        bucket,
		Key:           key,
		Query:         "uploads",
		ContentType:   mimeType,
		ContentLength: -1,
	}
	if opts != nil {
		call.StorageClass = string(opts.StorageClass)
		call.Metadata = opts.Metadata
	}

	resp, err := c.caller.Do(ctx, "multipartInit", call)
	if err != nil {
		return nil, err
	}

	var state initResponse
	if err := api.DecodeJSON(resp, &state); err != nil {
		return nil, errors.NewObjectError("multipartInit", bucket, key, err)
	}

	return &ufiletypes.MultipartSession{
		UploadID:  state.UploadID,
		BlockSize: state.BlockSize,
		Bucket:    state.Bucket,
		Key:       state.Key,
		MimeType:  mimeType,
	}, nil
}

// UploadPart uploads one part body under the session. The part's byte
// length must equal the session block size except for the final part.
// When verifyMD5 is set the hex MD5 digest of the body is sent as
// Content-MD5 and participates in signing.
//
// Errors carry the session's upload id and the part number so a caller
// can retry this part or abort the session.
func (c *Coordinator) UploadPart(
	ctx context.Context,
	session *ufiletypes.MultipartSession,
	part transfer.Part,
	data []byte,
	verifyMD5 bool,
) (PartResult, error) {
	var contentMD5 string
	if verifyMD5 {
		sum := md5.Sum(data) //nolint:gosec
		contentMD5 = hex.EncodeToString(sum[:])
	}

	resp, err := c.caller.Do(ctx, "multipartUploadPart", &api.Call{
		Method:        http.MethodPut,
		Bucket:        session.Bucket,
		Key:           session.Key,
		Query:         "uploadId=" + endpoint.Escape(session.UploadID) + "&partNumber=" + strconv.Itoa(part.Number),
		ContentType:   session.MimeType,
		ContentMD5:    contentMD5,
		Body:          bytes.NewReader(data),
		ContentLength: int64(len(data)),
	})
	if err != nil {
		return PartResult{}, attach(err, session.UploadID, part.Number)
	}

	return PartResult{
		Number: part.Number,
		ETag:   resp.ETag,
		Header: resp.Header,
	}, nil
}

// Upload splits src into block-sized parts and uploads them concurrently,
// each admitted by the coordinator's gate. Part numbering is assigned
// sequentially up front; execution order is unconstrained.
//
// On any part failure the remaining in-flight parts run to completion and
// the first error is returned with the upload id attached, together with
// the results collected so far (failed slots carry an empty ETag). The
// session is left open: the caller chooses between retrying parts and
// Abort.
func (c *Coordinator) Upload(
	ctx context.Context,
	session *ufiletypes.MultipartSession,
	src io.ReaderAt,
	totalSize int64,
	verifyMD5 bool,
	tracker ufiletypes.ProgressTracker,
) ([]PartResult, error) {
	parts := transfer.Split(totalSize, session.BlockSize)
	results := make([]PartResult, len(parts))
	buffers := pool.NewPartBuffers(session.BlockSize)

	var progressMu sync.Mutex
	var transferred int64

	// errgroup.Group without a derived context: sibling parts are not
	// cancelled when one fails, and Wait returns the first error only
	// after every goroutine has resolved.
	var g errgroup.Group
	for i, part := range parts {
		g.Go(func() error {
			if err := c.gate.Acquire(ctx); err != nil {
				return attach(err, session.UploadID, part.Number)
			}
			defer c.gate.Release()

			buf := buffers.Get(part.Range.Len())
			defer buffers.Put(buf)

			if _, err := src.ReadAt(buf, part.Range.Start); err != nil {
				return attach(
					errors.NewObjectError("multipartUploadPart", session.Bucket, session.Key, err),
					session.UploadID, part.Number)
			}

			result, err := c.UploadPart(ctx, session, part, buf, verifyMD5)
			if err != nil {
				return err
			}
			results[i] = result

			if tracker != nil {
				progressMu.Lock()
				transferred += part.Range.Len()
				tracker.Update(transferred, totalSize)
				progressMu.Unlock()
			}
			return nil
		})
	}

	// The results of parts that did complete are returned even on failure
	// so the caller can retry only the missing part numbers.
	err := g.Wait()
	return results, err
}

// finishResponse is the JSON body of a successful Finish call.
type finishResponse struct {
	Bucket   string `json:"Bucket"`
	Key      string `json:"Key"`
	FileSize int64  `json:"FileSize"`
	ETag     string `json:"ETag"`
}

// Finish commits the session. The request body is the comma-joined ETag
// sequence of all parts sorted ascending by part number; the service
// rejects missing or out-of-order parts. A response ETag header takes
// precedence over the body's etag field. The session is terminal after a
// successful Finish.
func (c *Coordinator) Finish(
	ctx context.Context,
	session *ufiletypes.MultipartSession,
	parts []PartResult,
	opts *FinishOptions,
) (*ufiletypes.FinishResult, error) {
	if session.MimeType == "" {
		return nil, attach(
			errors.NewObjectError("multipartFinish", session.Bucket, session.Key, errors.ErrMissingContentType),
			session.UploadID, 0)
	}

	sorted := make([]PartResult, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	etags := make([]string, len(sorted))
	for i, p := range sorted {
		etags[i] = p.ETag
	}
	body := strings.Join(etags, ",")

	var newKey string
	call := &api.Call{
		Method:        http.MethodPost,
		Bucket:        session.Bucket,
		Key:           session.Key,
		ContentType:   session.MimeType,
		Body:          strings.NewReader(body),
		ContentLength: int64(len(body)),
	}
	if opts != nil {
		newKey = opts.NewKey
		call.MetadataDirective = string(opts.MetadataDirective)
		if opts.MetadataDirective == ufiletypes.MetadataDirectiveReplace {
			call.Metadata = opts.Metadata
		}
	}
	// newKey is always present in the query, empty when not renaming
	call.Query = "uploadId=" + endpoint.Escape(session.UploadID) + "&newKey=" + endpoint.Escape(newKey)

	resp, err := c.caller.Do(ctx, "multipartFinish", call)
	if err != nil {
		return nil, attach(err, session.UploadID, 0)
	}

	var fin finishResponse
	if err := api.DecodeJSON(resp, &fin); err != nil {
		return nil, attach(
			errors.NewObjectError("multipartFinish", session.Bucket, session.Key, err),
			session.UploadID, 0)
	}

	etag := api.StripETag(fin.ETag)
	if resp.ETag != "" {
		etag = resp.ETag
	}
	finalKey := fin.Key
	if finalKey == "" {
		finalKey = session.Key
		if newKey != "" {
			finalKey = newKey
		}
	}

	return &ufiletypes.FinishResult{
		Key:  finalKey,
		ETag: etag,
		Size: fin.FileSize,
	}, nil
}

// Abort discards the session server-side. Parts already stored are
// dropped by the service; Abort does not undo a committed Finish. The
// session is terminal after a successful Abort.
func (c *Coordinator) Abort(ctx context.Context, session *ufiletypes.MultipartSession) error {
	_, err := c.caller.Do(ctx, "multipartAbort", &api.Call{
		Method:        http.MethodDelete,
		Bucket:        session.Bucket,
		Key:           session.Key,
		Query:         "uploadId=" + endpoint.Escape(session.UploadID),
		ContentType:   session.MimeType,
		ContentLength: -1,
	})
	if err != nil {
		return attach(err, session.UploadID, 0)
	}
	return nil
}

// attach decorates an error with session context when it is one of ours.
func attach(err error, uploadID string, partNumber int) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.WithUploadID(uploadID)
		if partNumber > 0 {
			e.WithPart(partNumber)
		}
		return err
	}
	wrapped := errors.NewError("multipart", err).WithUploadID(uploadID)
	if partNumber > 0 {
		wrapped.WithPart(partNumber)
	}
	return wrapped
}
