package ufile

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	uferrors "github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/testutil"
)

// newTestClient wires a client to the in-memory fake service and an
// in-memory filesystem.
func newTestClient(t *testing.T, fake *testutil.FakeUFile) *Client {
	t.Helper()
	client, err := NewWithDoer(fake,
		WithCredential("pub", "secret"),
		WithRegion("cn-bj"),
		WithFilesystem(billy.NewInMemoryFS()),
		WithConcurrency(4),
	)
	require.NoError(t, err)
	return client
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	client := newTestClient(t, fake)
	data := testutil.RandomBytes(11, 5000)

	result, err := client.Upload(context.Background(), "bkt", "obj.bin", bytes.NewReader(data),
		WithContentType("application/octet-stream"))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.Size)

	var buf bytes.Buffer
	dl, err := client.Download(context.Background(), "bkt", "obj.bin", &buf)
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
	assert.Equal(t, int64(5000), dl.Size)
}

func TestUploadValidatesInput(t *testing.T) {
	client := newTestClient(t, testutil.NewFakeUFile(4096))

	_, err := client.Upload(context.Background(), "", "obj", bytes.NewReader(nil))
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)

	_, err = client.Upload(context.Background(), "bkt", "", bytes.NewReader(nil))
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)

	_, err = client.Upload(context.Background(), "bkt", "obj", nil)
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)

	_, err = client.Upload(context.Background(), "bkt", "obj", bytes.NewReader(nil),
		WithMetadata(map[string]string{"bad key": "v"}))
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)
}

func TestUploadFileAndDownloadFile(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	client := newTestClient(t, fake)
	fsys := client.filesystem()
	data := testutil.RandomBytes(5, 10_000)
	require.NoError(t, fsys.WriteFile("in.bin", data, 0o644))

	result, err := client.UploadFile(context.Background(), "bkt", "files/in.bin", "in.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), result.Size)
	assert.Equal(t, data, fake.Object("bkt", "files/in.bin"))

	dl, err := client.DownloadFile(context.Background(), "bkt", "files/in.bin", "out.bin",
		WithDownloadPartSize(4096))
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), dl.Size)

	written, err := fsys.ReadFile("out.bin")
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestUploadFileRejectsDirectory(t *testing.T) {
	client := newTestClient(t, testutil.NewFakeUFile(4096))
	fsys := client.filesystem()
	require.NoError(t, fsys.MkdirAll("dir", 0o755))

	_, err := client.UploadFile(context.Background(), "bkt", "obj", "dir")
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)
}

func TestPutGet(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	client := newTestClient(t, fake)

	require.NoError(t, client.Put(context.Background(), "bkt", "note.txt", []byte("hello")))

	data, err := client.Get(context.Background(), "bkt", "note.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestHeadAndExists(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj", testutil.PatternBytes(123))
	client := newTestClient(t, fake)

	meta, err := client.Head(context.Background(), "bkt", "obj")
	require.NoError(t, err)
	assert.Equal(t, int64(123), meta.ContentLength)

	ok, err := client.Exists(context.Background(), "bkt", "obj")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Exists(context.Background(), "bkt", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCopyAndMove(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	data := testutil.PatternBytes(321)
	fake.PutObject("bkt", "orig", data)
	client := newTestClient(t, fake)

	require.NoError(t, client.Copy(context.Background(), "bkt", "orig", "bkt", "copied"))
	assert.Equal(t, data, fake.Object("bkt", "copied"))
	assert.Equal(t, data, fake.Object("bkt", "orig"))

	require.NoError(t, client.Move(context.Background(), "bkt", "orig", "bkt", "moved"))
	assert.Equal(t, data, fake.Object("bkt", "moved"))
	assert.Nil(t, fake.Object("bkt", "orig"))
}

func TestDelete(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj", []byte("x"))
	client := newTestClient(t, fake)

	require.NoError(t, client.Delete(context.Background(), "bkt", "obj"))
	assert.ErrorIs(t, client.Delete(context.Background(), "bkt", "obj"), uferrors.ErrObjectNotFound)
}

func TestDefaultBucketApplies(t *testing.T) {
	fake := testutil.NewFakeUFile(4096)
	client, err := NewWithDoer(fake,
		WithCredential("pub", "secret"),
		WithRegion("cn-bj"),
		WithDefaultBucket("fallback"),
		WithFilesystem(billy.NewInMemoryFS()),
	)
	require.NoError(t, err)

	require.NoError(t, client.Put(context.Background(), "", "obj", []byte("data")))
	assert.Equal(t, []byte("data"), fake.Object("fallback", "obj"))
}

func TestPresignURLShape(t *testing.T) {
	client := newTestClient(t, testutil.NewFakeUFile(4096))

	url, err := client.PresignURL(http.MethodGet, "bkt", "dir/obj.bin", 15*time.Minute,
		WithAttachmentName("saved.bin"))
	require.NoError(t, err)

	assert.Regexp(t,
		regexp.MustCompile(`^https://bkt\.cn-bj\.ufileos\.com/dir%2Fobj\.bin\?UCloudPublicKey=pub&Signature=[A-Za-z0-9%_.~-]+&Expires=\d+&ufileattname=saved\.bin$`),
		url)
}

func TestPresignURLRejectsNonPositiveExpiry(t *testing.T) {
	client := newTestClient(t, testutil.NewFakeUFile(4096))

	_, err := client.PresignURL(http.MethodGet, "bkt", "obj", 0)
	assert.ErrorIs(t, err, uferrors.ErrInvalidExpires)
}

func TestLocalETagMatchesKnownVector(t *testing.T) {
	client := newTestClient(t, testutil.NewFakeUFile(4096))
	fsys := client.filesystem()
	require.NoError(t, fsys.WriteFile("hello.txt", []byte("hello world"), 0o644))

	sum, err := client.LocalETag("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "AQAAACqubDXJT8-0FdvpX0CLnOke6Ebt", sum)
}
