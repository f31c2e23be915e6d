package ufile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	uferrors "github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/testutil"
)

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(WithRegion("cn-bj"))
	require.Error(t, err)
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)

	_, err = New(WithCredential("pub", ""), WithRegion("cn-bj"))
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)
}

func TestNewRequiresRegionOrCustomHost(t *testing.T) {
	_, err := New(WithCredential("pub", "secret"))
	assert.ErrorIs(t, err, uferrors.ErrInvalidInput)

	_, err = New(WithCredential("pub", "secret"), WithCustomHost("https://cdn.example.com"))
	assert.NoError(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	client, err := New(WithCredential("pub", "secret"), WithRegion("cn-bj"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProxySuffix, client.config.ProxySuffix)
	assert.Equal(t, "https", client.config.Scheme)
	assert.Positive(t, client.config.Concurrency)
	assert.Positive(t, client.config.PartSize)
	assert.NotNil(t, client.fs)
	require.NoError(t, client.Close())
}

func TestNewAppliesOptions(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	client, err := New(
		WithCredential("pub", "secret"),
		WithRegion("cn-sh2"),
		WithProxySuffix("internal-ufileos.com"),
		WithScheme("http"),
		WithSecurityToken("sts-token"),
		WithDefaultBucket("fallback"),
		WithTimeout(30*time.Second),
		WithConcurrency(7),
		WithPartSize(1<<20),
		WithFilesystem(fsys),
	)
	require.NoError(t, err)

	assert.Equal(t, "cn-sh2", client.config.Region)
	assert.Equal(t, "internal-ufileos.com", client.config.ProxySuffix)
	assert.Equal(t, "http", client.config.Scheme)
	assert.Equal(t, "sts-token", client.config.SecurityToken)
	assert.Equal(t, "fallback", client.config.DefaultBucket)
	assert.Equal(t, 7, client.config.Concurrency)
	assert.Equal(t, int64(1<<20), client.config.PartSize)
	assert.Same(t, fsys, client.fs)
	assert.Equal(t, 7, client.gate.Limit())
}

func TestSetFilesystem(t *testing.T) {
	client, err := NewWithDoer(testutil.NewFakeUFile(4096),
		WithCredential("pub", "secret"), WithRegion("cn-bj"))
	require.NoError(t, err)

	fsys := billy.NewInMemoryFS()
	client.SetFilesystem(fsys)
	assert.Same(t, fsys, client.filesystem())
}

func TestResolveBucketFallsBack(t *testing.T) {
	client, err := NewWithDoer(testutil.NewFakeUFile(4096),
		WithCredential("pub", "secret"), WithRegion("cn-bj"), WithDefaultBucket("fallback"))
	require.NoError(t, err)

	assert.Equal(t, "fallback", client.resolveBucket(""))
	assert.Equal(t, "explicit", client.resolveBucket("explicit"))
}

func TestDetectContentType(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("page.html", []byte("<!DOCTYPE html><html></html>"), 0o644))
	client, err := NewWithDoer(testutil.NewFakeUFile(4096),
		WithCredential("pub", "secret"), WithRegion("cn-bj"), WithFilesystem(fsys))
	require.NoError(t, err)

	// sniffed from content
	assert.Contains(t, client.detectContentType("page.html"), "text/html")
	// extension fallback for paths that are not local files
	assert.Contains(t, client.detectContentType("missing/report.pdf"), "application/pdf")
	// unknown extension falls back to the default
	assert.Equal(t, DefaultContentType, client.detectContentType("blob.unknownext"))
}
