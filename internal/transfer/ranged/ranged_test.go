package ranged

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/testutil"
)

// memSink is a seekable in-memory write target.
type memSink struct {
	mu     sync.Mutex
	data   []byte
	offset int64
}

func newMemSink(size int64) *memSink {
	return &memSink{data: make([]byte, size)}
}

func (s *memSink) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if whence != io.SeekStart {
		panic("memSink supports SeekStart only")
	}
	s.offset = offset
	return offset, nil
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(s.data[s.offset:], p)
	s.offset += int64(n)
	return n, nil
}

func TestDownloadReassemblesObject(t *testing.T) {
	data := testutil.RandomBytes(7, 10_000)
	fake := testutil.NewFakeUFile(4096)
	fake.PutObject("bkt", "obj.bin", data)

	c := NewCoordinator(fake, gate.New(3))
	sink := newMemSink(int64(len(data)))

	err := c.Download(context.Background(),
		"https://bkt.cn-bj.ufileos.com/obj.bin?UCloudPublicKey=pub&Signature=sig&Expires=1",
		int64(len(data)), 4096, "", sink, nil)
	require.NoError(t, err)
	assert.Equal(t, data, sink.data)
}

func TestDownloadReportsProgress(t *testing.T) {
	data := testutil.PatternBytes(3000)
	fake := testutil.NewFakeUFile(1024)
	fake.PutObject("bkt", "obj", data)

	c := NewCoordinator(fake, gate.New(2))
	sink := newMemSink(3000)
	tracker := &testutil.MockProgressTracker{}

	err := c.Download(context.Background(),
		"https://bkt.cn-bj.ufileos.com/obj", 3000, 1024, "", sink, tracker)
	require.NoError(t, err)

	assert.True(t, tracker.UpdateCalled)
	assert.Equal(t, int64(3000), tracker.BytesTransferred)
	assert.Equal(t, int64(3000), tracker.TotalBytes)
}

func TestDownloadSendsInclusiveRangeHeaders(t *testing.T) {
	var mu sync.Mutex
	var ranges []string
	fake := testutil.NewFakeUFile(0)
	fake.PutObject("bkt", "obj", testutil.PatternBytes(10))

	recorder := testutil.DoerFunc(func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		ranges = append(ranges, req.Header.Get("Range"))
		mu.Unlock()
		return fake.Do(req)
	})

	c := NewCoordinator(recorder, gate.New(1))
	sink := newMemSink(10)

	err := c.Download(context.Background(),
		"https://bkt.cn-bj.ufileos.com/obj", 10, 4, "", sink, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"bytes=0-3", "bytes=4-7", "bytes=8-9"}, ranges)
}

func TestDownloadFirstErrorWinsNoCleanup(t *testing.T) {
	data := testutil.PatternBytes(3000)
	fake := testutil.NewFakeUFile(0)
	fake.PutObject("bkt", "obj", data)

	// Fail exactly the middle range; others succeed.
	doer := testutil.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Range") == "bytes=1024-2047" {
			return testutil.JSONResponse(http.StatusBadGateway,
				`{"RetCode":-5,"Message":"backend unavailable"}`), nil
		}
		return fake.Do(req)
	})

	c := NewCoordinator(doer, gate.New(3))
	sink := newMemSink(3000)

	err := c.Download(context.Background(),
		"https://bkt.cn-bj.ufileos.com/obj", 3000, 1024, "", sink, nil)
	require.Error(t, err)

	svcErr := errors.AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.Status)

	// Successful ranges stay written; the failed range is zeroed.
	assert.Equal(t, data[:1024], sink.data[:1024])
	assert.Equal(t, data[2048:], sink.data[2048:])
	assert.Equal(t, make([]byte, 1024), sink.data[1024:2048])
}

func TestDownloadRejectsNonPositiveSizes(t *testing.T) {
	c := NewCoordinator(testutil.NewFakeUFile(0), gate.New(1))

	err := c.Download(context.Background(), "https://x/y", 0, 1024, "", newMemSink(0), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidRange)

	err = c.Download(context.Background(), "https://x/y", 100, 0, "", newMemSink(100), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidRange)
}

func TestDownloadSecurityTokenHeader(t *testing.T) {
	var sawToken string
	fake := testutil.NewFakeUFile(0)
	fake.PutObject("bkt", "obj", []byte("data"))

	doer := testutil.DoerFunc(func(req *http.Request) (*http.Response, error) {
		sawToken = req.Header.Get("SecurityToken")
		return fake.Do(req)
	})

	c := NewCoordinator(doer, gate.New(1))
	err := c.Download(context.Background(),
		"https://bkt.cn-bj.ufileos.com/obj", 4, 4, "sts-token", newMemSink(4), nil)
	require.NoError(t, err)
	assert.Equal(t, "sts-token", sawToken)
}
