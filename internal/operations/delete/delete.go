// Package delete handles UFile object deletion.
package delete

import (
	"context"
	"net/http"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
)

// Deleter handles object deletion.
type Deleter struct {
	caller *api.Caller
}

// New creates a new Deleter instance.
func New(caller *api.Caller) *Deleter {
	return &Deleter{caller: caller}
}

// Delete removes the object over a signed DELETE request.
//
// Errors:
//   - errors.ErrObjectNotFound: the object does not exist
//   - *errors.ServiceError: any other non-2xx answer
func (d *Deleter) Delete(ctx context.Context, bucket, key string) error {
	_, err := d.caller.Do(ctx, "delete", &api.Call{
		Method:        http.MethodDelete,
		Bucket:        bucket,
		Key:           key,
		ContentLength: -1,
	})
	if err != nil {
		if svc := errors.AsServiceError(err); svc != nil && svc.Status == http.StatusNotFound {
			return errors.NewObjectError("delete", bucket, key, errors.ErrObjectNotFound)
		}
		return err
	}
	return nil
}
