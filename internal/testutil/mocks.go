// Package testutil provides test utilities and fakes for UFile operations.
// This package is internal and should only be used for testing within the
// module.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"
)

// DoerFunc adapts a function to the api.Doer interface, the way
// http.HandlerFunc adapts handlers. Tests assign one function per scenario
// instead of building a full transport.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do executes the function.
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Response builds an *http.Response with the given status and body.
func Response(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Header:        make(http.Header),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// JSONResponse builds an *http.Response carrying a JSON body.
func JSONResponse(status int, body string) *http.Response {
	resp := Response(status, []byte(body))
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

// ETagResponse builds a 200 response carrying an ETag header.
func ETagResponse(etag string) *http.Response {
	resp := Response(http.StatusOK, nil)
	resp.Header.Set("ETag", strconv.Quote(etag))
	return resp
}

// RecordingDoer wraps a DoerFunc and records every request it sees, in
// order. Bodies are drained into Requests so callers can assert on them
// after the fact.
type RecordingDoer struct {
	mu       sync.Mutex
	inner    DoerFunc
	Requests []RecordedRequest
}

// RecordedRequest is one captured request with its fully read body.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// NewRecordingDoer creates a RecordingDoer delegating to inner.
func NewRecordingDoer(inner DoerFunc) *RecordingDoer {
	return &RecordingDoer{inner: inner}
}

// Do records the request and delegates to the inner function.
func (r *RecordingDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	r.mu.Lock()
	r.Requests = append(r.Requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	r.mu.Unlock()

	return r.inner(req)
}

// MockProgressTracker records progress callbacks for assertions.
type MockProgressTracker struct {
	mu               sync.Mutex
	UpdateCalled     bool
	CompleteCalled   bool
	ErrorCalled      bool
	BytesTransferred int64
	TotalBytes       int64
	LastError        error
}

// Update records a progress update.
func (m *MockProgressTracker) Update(bytesTransferred, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.BytesTransferred = bytesTransferred
	m.TotalBytes = totalBytes
}

// Complete marks the transfer as complete.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records a transfer failure.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}
