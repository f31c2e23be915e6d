package download

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/endpoint"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/signing"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

func newDownloader(doer api.Doer) *Downloader {
	auth := signing.NewAuthorizer("pub", "secret")
	resolver := endpoint.NewResolver("cn-bj", "ufileos.com", "", "")
	return New(api.NewCaller(doer, auth, resolver, ""), doer, gate.New(2))
}

func TestDownloadStreamsObject(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	data := testutil.RandomBytes(1, 5000)
	fake.PutObject("bkt", "obj.bin", data)
	d := newDownloader(fake)

	var buf bytes.Buffer
	result, err := d.Download(context.Background(), "bkt", "obj.bin", &buf,
		&ufiletypes.DownloadOptionConfig{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, data, buf.Bytes())
	assert.Equal(t, "obj.bin", result.Key)
	assert.Equal(t, int64(5000), result.Size)
}

func TestDownloadHonorsRangeSpec(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj", []byte("0123456789"))
	d := newDownloader(fake)

	var buf bytes.Buffer
	_, err := d.Download(context.Background(), "bkt", "obj", &buf,
		&ufiletypes.DownloadOptionConfig{RangeSpec: "bytes=2-5"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "2345", buf.String())
}

func TestDownloadNotFound(t *testing.T) {
	d := newDownloader(testutil.NewFakeUFile(4096))

	var buf bytes.Buffer
	_, err := d.Download(context.Background(), "bkt", "missing", &buf,
		&ufiletypes.DownloadOptionConfig{}, time.Now())
	assert.ErrorIs(t, err, errors.ErrObjectNotFound)
}

func TestDownloadReportsProgress(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj", testutil.PatternBytes(300))
	d := newDownloader(fake)
	tracker := &testutil.MockProgressTracker{}

	var buf bytes.Buffer
	_, err := d.Download(context.Background(), "bkt", "obj", &buf,
		&ufiletypes.DownloadOptionConfig{ProgressTracker: tracker}, time.Now())
	require.NoError(t, err)

	assert.True(t, tracker.CompleteCalled)
	assert.Equal(t, int64(300), tracker.BytesTransferred)
}

func TestGetReturnsBytes(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj", []byte("payload"))
	d := newDownloader(fake)

	data, err := d.Get(context.Background(), "bkt", "obj", &ufiletypes.DownloadOptionConfig{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestDownloadFileRangedReassembly(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	data := testutil.RandomBytes(42, 10_000)
	fake.PutObject("bkt", "big.bin", data)
	d := newDownloader(fake)
	fsys := billy.NewInMemoryFS()

	result, err := d.DownloadFile(context.Background(), fsys, "bkt", "big.bin", "out.bin",
		&ufiletypes.DownloadOptionConfig{PartSize: 4096}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), result.Size)

	written, err := fsys.ReadFile("out.bin")
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestDownloadFileEmptyObject(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "empty", nil)
	d := newDownloader(fake)
	fsys := billy.NewInMemoryFS()

	result, err := d.DownloadFile(context.Background(), fsys, "bkt", "empty", "empty.out",
		&ufiletypes.DownloadOptionConfig{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Size)

	written, err := fsys.ReadFile("empty.out")
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestDownloadFileMissingObject(t *testing.T) {
	d := newDownloader(testutil.NewFakeUFile(4096))
	fsys := billy.NewInMemoryFS()

	_, err := d.DownloadFile(context.Background(), fsys, "bkt", "missing", "out",
		&ufiletypes.DownloadOptionConfig{}, time.Now())
	assert.ErrorIs(t, err, errors.ErrObjectNotFound)

	// no file is created when the object does not exist
	exists, err := fsys.Exists("out")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHeadHarvestsMetadata(t *testing.T) {
	doer := testutil.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodHead {
			return testutil.Response(http.StatusMethodNotAllowed, nil), nil
		}
		resp := testutil.Response(http.StatusOK, nil)
		resp.Header.Set("Content-Type", "image/png")
		resp.Header.Set("Content-Length", "812")
		resp.Header.Set("ETag", `"abc123"`)
		resp.Header.Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		resp.Header.Set("X-Ufile-Meta-owner", "alice")
		resp.Header.Set("X-Ufile-Meta-purpose", "avatar")
		return resp, nil
	})
	d := newDownloader(doer)

	meta, err := d.Head(context.Background(), "bkt", "pic.png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, int64(812), meta.ContentLength)
	assert.Equal(t, "abc123", meta.ETag)
	assert.Equal(t, 2006, meta.LastModified.Year())
	assert.Equal(t, map[string]string{"owner": "alice", "purpose": "avatar"}, meta.Metadata)
}

func TestExists(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "present", []byte("x"))
	d := newDownloader(fake)

	ok, err := d.Exists(context.Background(), "bkt", "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(context.Background(), "bkt", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExistsSurfacesOtherErrors(t *testing.T) {
	doer := testutil.DoerFunc(func(req *http.Request) (*http.Response, error) {
		return testutil.JSONResponse(http.StatusForbidden, `{"RetCode":-1,"Message":"denied"}`), nil
	})
	d := newDownloader(doer)

	_, err := d.Exists(context.Background(), "bkt", "obj")
	require.Error(t, err)
	assert.NotNil(t, errors.AsServiceError(err))
}

func TestProgressReaderAggregates(t *testing.T) {
	tracker := &testutil.MockProgressTracker{}
	pr := &progressReader{reader: strings.NewReader("abcdef"), tracker: tracker, total: 6}

	buf := make([]byte, 4)
	_, err := pr.Read(buf)
	require.NoError(t, err)
	_, err = pr.Read(buf)
	require.NoError(t, err)

	assert.Equal(t, int64(6), tracker.BytesTransferred)
	assert.Equal(t, int64(6), tracker.TotalBytes)
}
