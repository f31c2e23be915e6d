// Package api executes signed UFile HTTP calls.
//
// Every operation in the module funnels through one generic Caller: it
// derives the request URL from the endpoint resolver, stamps the protocol
// headers, signs the request and translates non-2xx responses into
// structured service errors. Operation packages only describe the call;
// the mechanics live here once.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/endpoint"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/signing"
)

// userAgent identifies this SDK to the service.
const userAgent = "ufile-go-sdk/0.1.0"

// DateFormat is the timestamp layout the service expects in the Date header.
const DateFormat = "20060102150405"

// Doer executes a single HTTP request. *http.Client satisfies it; tests
// substitute a function-backed fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Call describes one UFile API call. Zero-valued optional fields are
// omitted from both the canonical string and the wire request.
type Call struct {
	// Method is the HTTP verb, e.g. http.MethodPut
	Method string

	// Bucket and Key address the object
	Bucket string
	Key    string

	// Query is the raw query string without the leading '?', e.g. "uploads"
	Query string

	// ContentType participates in signing and is sent as Content-Type
	ContentType string

	// ContentMD5 participates in signing and is sent as Content-MD5
	ContentMD5 string

	// CopySource and CopySourceRange are the x-ufile-copy-source headers
	CopySource      string
	CopySourceRange string

	// StorageClass is sent as X-Ufile-Storage-Class when non-empty
	StorageClass string

	// Metadata entries are sent as X-Ufile-Meta-{key} headers
	Metadata map[string]string

	// MetadataDirective is sent as X-Ufile-Metadata-Directive when non-empty
	MetadataDirective string

	// Range is sent as the Range header when non-empty. It does not
	// participate in signing.
	Range string

	// Body is the request body, or nil
	Body io.Reader

	// ContentLength is sent as Content-Length when non-negative. Use -1
	// for requests without a body.
	ContentLength int64
}

// Response is the decoded outcome of a successful (2xx) call.
type Response struct {
	// StatusCode is the HTTP status
	StatusCode int

	// Header holds the raw response headers
	Header http.Header

	// Body is the fully read response body
	Body []byte

	// ETag is the response ETag header with surrounding quotes stripped,
	// or empty if the header was absent
	ETag string
}

// Caller signs and executes UFile API calls against one endpoint.
type Caller struct {
	httpClient    Doer
	auth          *signing.Authorizer
	resolver      *endpoint.Resolver
	securityToken string

	// now is replaceable in tests to pin the Date header
	now func() time.Time
}

// NewCaller creates a Caller.
func NewCaller(httpClient Doer, auth *signing.Authorizer, resolver *endpoint.Resolver, securityToken string) *Caller {
	return &Caller{
		httpClient:    httpClient,
		auth:          auth,
		resolver:      resolver,
		securityToken: securityToken,
		now:           time.Now,
	}
}

// WithClock returns a copy of the Caller that derives the Date header from
// the given clock. Used by tests to produce deterministic signatures.
func (c *Caller) WithClock(now func() time.Time) *Caller {
	clone := *c
	clone.now = now
	return &clone
}

// Resolver exposes the endpoint resolver so operations can build
// presigned URLs against the same configuration.
func (c *Caller) Resolver() *endpoint.Resolver {
	return c.resolver
}

// Authorizer exposes the request signer for presigned URL construction.
func (c *Caller) Authorizer() *signing.Authorizer {
	return c.auth
}

// SecurityToken returns the configured STS token, or empty.
func (c *Caller) SecurityToken() string {
	return c.securityToken
}

// Do signs and executes the call, reading the response body fully.
//
// Returns:
//   - A Response for any 2xx status.
//
// Errors:
//   - *errors.ServiceError: the service answered non-2xx; RetCode and
//     Message are filled from the error envelope when the body parses
//   - transport errors from the underlying client, wrapped with operation
//     context
func (c *Caller) Do(ctx context.Context, op string, call *Call) (*Response, error) {
	resp, err := c.execute(ctx, op, call)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewObjectError(op, call.Bucket, call.Key,
			fmt.Errorf("reading response body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		ETag:       StripETag(resp.Header.Get("ETag")),
	}, nil
}

// Stream signs and executes the call but leaves the response body open so
// large objects can be consumed without buffering. The caller owns the
// returned body and must close it. Error handling matches Do.
func (c *Caller) Stream(ctx context.Context, op string, call *Call) (*http.Response, error) {
	return c.execute(ctx, op, call)
}

func (c *Caller) execute(ctx context.Context, op string, call *Call) (*http.Response, error) {
	date := c.now().Format(DateFormat)

	authHeader := c.auth.Header(&signing.Request{
		Method:          call.Method,
		Bucket:          call.Bucket,
		Key:             call.Key,
		ContentType:     call.ContentType,
		ContentMD5:      call.ContentMD5,
		Date:            date,
		CopySource:      call.CopySource,
		CopySourceRange: call.CopySourceRange,
	})

	url := c.resolver.ObjectURL(call.Bucket, call.Key)
	if call.Query != "" {
		url += "?" + call.Query
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, url, call.Body)
	if err != nil {
		return nil, errors.NewObjectError(op, call.Bucket, call.Key, err)
	}

	req.Header.Set("Content-Type", call.ContentType)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Date", date)
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("User-Agent", userAgent)
	// net/http emits the Content-Length header from the request field
	if call.ContentLength >= 0 {
		req.ContentLength = call.ContentLength
	}
	if call.ContentMD5 != "" {
		req.Header.Set("Content-MD5", call.ContentMD5)
	}
	if call.CopySource != "" {
		req.Header.Set("X-Ufile-Copy-Source", call.CopySource)
	}
	if call.CopySourceRange != "" {
		req.Header.Set("X-Ufile-Copy-Source-Range", call.CopySourceRange)
	}
	if call.StorageClass != "" {
		req.Header.Set("X-Ufile-Storage-Class", call.StorageClass)
	}
	if call.MetadataDirective != "" {
		req.Header.Set("X-Ufile-Metadata-Directive", call.MetadataDirective)
	}
	if call.Range != "" {
		req.Header.Set("Range", call.Range)
	}
	if c.securityToken != "" {
		req.Header.Set("SecurityToken", c.securityToken)
	}
	for k, v := range call.Metadata {
		req.Header.Set("X-Ufile-Meta-"+k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewObjectError(op, call.Bucket, call.Key, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		svcErr := DecodeError(resp.StatusCode, body)
		return nil, errors.NewObjectError(op, call.Bucket, call.Key, svcErr)
	}

	return resp, nil
}

// errorEnvelope is the JSON error body the service returns on failure.
type errorEnvelope struct {
	RetCode int    `json:"RetCode"`
	Message string `json:"Message"`
	ErrMsg  string `json:"ErrMsg"`
}

// DecodeError parses the error envelope, falling back to a bare status
// error when the body is not well-formed JSON.
func DecodeError(status int, body []byte) *errors.ServiceError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &errors.ServiceError{Status: status}
	}
	msg := env.Message
	if msg == "" {
		msg = env.ErrMsg
	}
	return &errors.ServiceError{
		Status:  status,
		RetCode: env.RetCode,
		Message: msg,
	}
}

// DecodeJSON unmarshals the response body into v.
func DecodeJSON(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// StripETag removes surrounding single or double quotes from an ETag value.
func StripETag(etag string) string {
	return strings.Trim(etag, `"'`)
}

// NewHTTPClient builds the default transport used when the caller does not
// supply one: HTTP/1.1 only, 5s connect timeout, 1h overall request
// timeout, and a small idle pool that is released after 5 minutes.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: time.Hour,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     300 * time.Second,
			ForceAttemptHTTP2:   false,
			// disables HTTP/2 negotiation entirely
			TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
		},
	}
}
