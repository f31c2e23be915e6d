package testutil

import (
	"crypto/md5" //nolint:gosec // matches the service's part fingerprints
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FakeUFile is an in-memory stand-in for the UFile service. It implements
// the api.Doer interface and understands the subset of the protocol the
// module speaks: simple PUT/GET/HEAD/DELETE, the multipart lifecycle and
// ranged GETs via presigned URLs.
//
// It intentionally does not verify signatures; signing correctness is
// covered by dedicated golden-vector tests.
type FakeUFile struct {
	mu sync.Mutex

	// BlockSize is the part size negotiated at multipart init
	BlockSize int64

	// FailPart maps part numbers to HTTP status codes; an uploading part
	// whose number appears here fails with that status
	FailPart map[int]int

	objects  map[string][]byte
	sessions map[string]*fakeSession
	nextID   int
}

type fakeSession struct {
	bucket   string
	key      string
	mimeType string
	parts    map[int][]byte
	etags    map[int]string
	aborted  bool
	finished bool
}

// NewFakeUFile creates a fake service with the given multipart block size.
func NewFakeUFile(blockSize int64) *FakeUFile {
	return &FakeUFile{
		BlockSize: blockSize,
		objects:   make(map[string][]byte),
		sessions:  make(map[string]*fakeSession),
	}
}

// PutObject seeds an object directly, bypassing the HTTP surface.
func (f *FakeUFile) PutObject(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = append([]byte(nil), data...)
}

// Object returns a stored object's bytes, or nil.
func (f *FakeUFile) Object(bucket, key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[bucket+"/"+key]
}

// SessionAborted reports whether the given upload id was aborted.
func (f *FakeUFile) SessionAborted(uploadID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[uploadID]
	return ok && s.aborted
}

// SessionFinished reports whether the given upload id was committed.
func (f *FakeUFile) SessionFinished(uploadID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[uploadID]
	return ok && s.finished
}

// Do dispatches the request to the fake protocol handlers.
func (f *FakeUFile) Do(req *http.Request) (*http.Response, error) {
	bucket := strings.SplitN(req.URL.Host, ".", 2)[0]
	key, err := url.PathUnescape(strings.TrimPrefix(req.URL.EscapedPath(), "/"))
	if err != nil {
		return serviceError(http.StatusBadRequest, "malformed key"), nil
	}
	query := req.URL.Query()

	switch {
	case req.Method == http.MethodPost && query.Has("uploads"):
		return f.initMultipart(bucket, key, req.Header.Get("Content-Type")), nil
	case req.Method == http.MethodPut && query.Has("uploadId"):
		return f.uploadPart(req, query), nil
	case req.Method == http.MethodPost && query.Has("uploadId"):
		return f.finishMultipart(req, query, bucket, key), nil
	case req.Method == http.MethodDelete && query.Has("uploadId"):
		return f.abortMultipart(query), nil
	case req.Method == http.MethodPut:
		return f.putObject(req, bucket, key), nil
	case req.Method == http.MethodGet:
		return f.getObject(req, bucket, key), nil
	case req.Method == http.MethodHead:
		return f.headObject(bucket, key), nil
	case req.Method == http.MethodDelete:
		return f.deleteObject(bucket, key), nil
	}
	return serviceError(http.StatusMethodNotAllowed, "unsupported request"), nil
}

func (f *FakeUFile) initMultipart(bucket, key, mimeType string) *http.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("upload-%04d", f.nextID)
	f.sessions[id] = &fakeSession{
		bucket:   bucket,
		key:      key,
		mimeType: mimeType,
		parts:    make(map[int][]byte),
		etags:    make(map[int]string),
	}

	body := fmt.Sprintf(`{"UploadId":%q,"BlkSize":%d,"Bucket":%q,"Key":%q}`,
		id, f.BlockSize, bucket, key)
	return JSONResponse(http.StatusOK, body)
}

func (f *FakeUFile) uploadPart(req *http.Request, query url.Values) *http.Response {
	number, err := strconv.Atoi(query.Get("partNumber"))
	if err != nil {
		return serviceError(http.StatusBadRequest, "bad part number")
	}

	f.mu.Lock()
	session, ok := f.sessions[query.Get("uploadId")]
	f.mu.Unlock()
	if !ok {
		return serviceError(http.StatusNotFound, "no such upload")
	}

	if status, ok := f.FailPart[number]; ok {
		return serviceError(status, fmt.Sprintf("part %d rejected", number))
	}

	data, err := readAll(req)
	if err != nil {
		return serviceError(http.StatusBadRequest, "unreadable body")
	}

	sum := md5.Sum(data) //nolint:gosec
	etag := hex.EncodeToString(sum[:])

	f.mu.Lock()
	session.parts[number] = data
	session.etags[number] = etag
	f.mu.Unlock()

	resp := JSONResponse(http.StatusOK, fmt.Sprintf(`{"PartNumber":%d}`, number))
	resp.Header.Set("ETag", strconv.Quote(etag))
	return resp
}

func (f *FakeUFile) finishMultipart(req *http.Request, query url.Values, bucket, key string) *http.Response {
	body, err := readAll(req)
	if err != nil {
		return serviceError(http.StatusBadRequest, "unreadable body")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[query.Get("uploadId")]
	if !ok {
		return serviceError(http.StatusNotFound, "no such upload")
	}
	if session.aborted {
		return serviceError(http.StatusConflict, "upload aborted")
	}

	// The service validates that the submitted ETag sequence matches the
	// uploaded parts in ascending part-number order.
	numbers := make([]int, 0, len(session.etags))
	for n := range session.etags {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	wantETags := make([]string, 0, len(numbers))
	for _, n := range numbers {
		wantETags = append(wantETags, session.etags[n])
	}
	if string(body) != strings.Join(wantETags, ",") {
		return serviceError(http.StatusBadRequest, "etag sequence mismatch")
	}

	var assembled []byte
	for _, n := range numbers {
		assembled = append(assembled, session.parts[n]...)
	}

	finalKey := session.key
	if newKey := query.Get("newKey"); newKey != "" {
		finalKey = newKey
	}
	f.objects[session.bucket+"/"+finalKey] = assembled
	session.finished = true

	sum := md5.Sum(assembled) //nolint:gosec
	resp := JSONResponse(http.StatusOK, fmt.Sprintf(
		`{"Bucket":%q,"Key":%q,"FileSize":%d}`, session.bucket, finalKey, len(assembled)))
	resp.Header.Set("ETag", strconv.Quote(hex.EncodeToString(sum[:])))
	return resp
}

func (f *FakeUFile) abortMultipart(query url.Values) *http.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[query.Get("uploadId")]
	if !ok {
		return serviceError(http.StatusNotFound, "no such upload")
	}
	session.aborted = true
	return Response(http.StatusNoContent, nil)
}

func (f *FakeUFile) putObject(req *http.Request, bucket, key string) *http.Response {
	if src := req.Header.Get("X-Ufile-Copy-Source"); src != "" {
		return f.copyObject(src, bucket, key)
	}

	data, err := readAll(req)
	if err != nil {
		return serviceError(http.StatusBadRequest, "unreadable body")
	}

	f.mu.Lock()
	f.objects[bucket+"/"+key] = data
	f.mu.Unlock()

	sum := md5.Sum(data) //nolint:gosec
	resp := Response(http.StatusOK, nil)
	resp.Header.Set("ETag", strconv.Quote(hex.EncodeToString(sum[:])))
	return resp
}

// copyObject resolves an escaped "/bucket/key" copy source and duplicates
// the object under the destination address.
func (f *FakeUFile) copyObject(src, dstBucket, dstKey string) *http.Response {
	// Escaped bucket names contain no slash, so the first separator after
	// the leading one splits bucket from key.
	rawBucket, rawKey, found := strings.Cut(strings.TrimPrefix(src, "/"), "/")
	if !found {
		return serviceError(http.StatusBadRequest, "malformed copy source")
	}
	srcBucket, err1 := url.QueryUnescape(rawBucket)
	srcKey, err2 := url.QueryUnescape(rawKey)
	if err1 != nil || err2 != nil {
		return serviceError(http.StatusBadRequest, "malformed copy source")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[srcBucket+"/"+srcKey]
	if !ok {
		return serviceError(http.StatusNotFound, "no such object")
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	f.objects[dstBucket+"/"+dstKey] = copied

	sum := md5.Sum(copied) //nolint:gosec
	resp := Response(http.StatusOK, nil)
	resp.Header.Set("ETag", strconv.Quote(hex.EncodeToString(sum[:])))
	return resp
}

func (f *FakeUFile) getObject(req *http.Request, bucket, key string) *http.Response {
	f.mu.Lock()
	data, ok := f.objects[bucket+"/"+key]
	f.mu.Unlock()
	if !ok {
		return serviceError(http.StatusNotFound, "no such object")
	}

	if rangeHeader := req.Header.Get("Range"); rangeHeader != "" {
		start, end, ok := parseRange(rangeHeader, int64(len(data)))
		if !ok {
			return serviceError(http.StatusRequestedRangeNotSatisfiable, "bad range")
		}
		resp := Response(http.StatusPartialContent, data[start:end+1])
		resp.Header.Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
		return resp
	}
	return Response(http.StatusOK, data)
}

func (f *FakeUFile) headObject(bucket, key string) *http.Response {
	f.mu.Lock()
	data, ok := f.objects[bucket+"/"+key]
	f.mu.Unlock()
	if !ok {
		return serviceError(http.StatusNotFound, "no such object")
	}

	resp := Response(http.StatusOK, nil)
	resp.Header.Set("Content-Length", strconv.Itoa(len(data)))
	resp.ContentLength = int64(len(data))
	sum := md5.Sum(data) //nolint:gosec
	resp.Header.Set("ETag", strconv.Quote(hex.EncodeToString(sum[:])))
	return resp
}

func (f *FakeUFile) deleteObject(bucket, key string) *http.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[bucket+"/"+key]; !ok {
		return serviceError(http.StatusNotFound, "no such object")
	}
	delete(f.objects, bucket+"/"+key)
	return Response(http.StatusNoContent, nil)
}

// parseRange parses an inclusive "bytes=a-b" header, clamping b to the
// object's last byte.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false
	}
	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}
	end, err = strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return 0, 0, false
	}
	if end > size-1 {
		end = size - 1
	}
	return start, end, true
}

func serviceError(status int, message string) *http.Response {
	return JSONResponse(status,
		fmt.Sprintf(`{"RetCode":%d,"Message":%q}`, -status, message))
}

func readAll(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}
