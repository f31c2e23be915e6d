// Package copy handles server-side UFile object copy operations.
//
// A copy is a PUT against the destination object naming the source via
// the x-ufile-copy-source header, so no object data transits the client.
package copy

import (
	"context"
	"net/http"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/endpoint"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// Copier handles server-side copy operations.
type Copier struct {
	caller *api.Caller
}

// NewCopier creates a new copy operation handler.
func NewCopier(caller *api.Caller) *Copier {
	return &Copier{caller: caller}
}

// Copy copies srcBucket/srcKey to dstBucket/dstKey server-side. The copy
// source participates in request signing, so tampering with it breaks the
// signature. Metadata handling follows the directive: UNCHANGED carries
// the source metadata over, REPLACE substitutes the supplied set.
//
// Errors:
//   - errors.ErrObjectNotFound: the source object does not exist
//   - *errors.ServiceError: any other non-2xx answer
func (c *Copier) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	config *ufiletypes.CopyOptionConfig,
) (*ufiletypes.UploadResult, error) {
	copySource := "/" + endpoint.Escape(srcBucket) + "/" + endpoint.Escape(srcKey)

	call := &api.Call{
		Method:        http.MethodPut,
		Bucket:        dstBucket,
		Key:           dstKey,
		CopySource:    copySource,
		ContentLength: 0,
	}
	if config != nil {
		call.StorageClass = string(config.StorageClass)
		call.MetadataDirective = string(config.MetadataDirective)
		if config.MetadataDirective == ufiletypes.MetadataDirectiveReplace {
			call.Metadata = config.Metadata
		}
	}

	resp, err := c.caller.Do(ctx, "copy", call)
	if err != nil {
		if svc := errors.AsServiceError(err); svc != nil && svc.Status == http.StatusNotFound {
			return nil, errors.NewObjectError("copy", srcBucket, srcKey, errors.ErrObjectNotFound)
		}
		return nil, err
	}

	return &ufiletypes.UploadResult{
		Key:  dstKey,
		ETag: resp.ETag,
	}, nil
}
