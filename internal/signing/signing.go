// Package signing implements the UCloud request signing protocol.
// Every UFile API call carries an Authorization header of the form
// "UCloud {public_key}:{signature}" where the signature is a base64-encoded
// HMAC-SHA1 digest of a canonical string derived from the request.
package signing

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by the UCloud protocol
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
)

// Request describes the fields of one HTTP call that participate in
// canonical string construction. It is built per call and discarded once
// the signature is computed.
type Request struct {
	// Method is the uppercase HTTP verb, e.g. "PUT"
	Method string

	// Bucket is the bucket name. Always present.
	Bucket string

	// Key is the object key. Always present.
	Key string

	// ContentType is the request Content-Type, or empty
	ContentType string

	// ContentMD5 is the request Content-MD5, or empty
	ContentMD5 string

	// Date is the request date in the service's 20060102150405 format, or empty
	Date string

	// CopySource is the x-ufile-copy-source header value, or empty
	CopySource string

	// CopySourceRange is the x-ufile-copy-source-range header value, or empty
	CopySourceRange string
}

// CanonicalString builds the exact string the service expects to be signed.
// Header fields are newline-terminated; an absent copy-source header
// contributes nothing, not an empty line. The trailing resource path joins
// "/bucket" and "/key" directly with no newline between them.
func (r *Request) CanonicalString() string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\n')
	b.WriteString(r.ContentMD5)
	b.WriteByte('\n')
	b.WriteString(r.ContentType)
	b.WriteByte('\n')
	b.WriteString(r.Date)
	b.WriteByte('\n')
	if r.CopySource != "" {
		b.WriteString("x-ufile-copy-source:")
		b.WriteString(r.CopySource)
		b.WriteByte('\n')
	}
	if r.CopySourceRange != "" {
		b.WriteString("x-ufile-copy-source-range:")
		b.WriteString(r.CopySourceRange)
		b.WriteByte('\n')
	}
	b.WriteString("/")
	b.WriteString(r.Bucket)
	b.WriteString("/")
	b.WriteString(r.Key)
	return b.String()
}

// Signer computes base64-encoded HMAC-SHA1 signatures keyed by the account's
// private key. It is stateless apart from the key and safe for concurrent use.
type Signer struct {
	privateKey []byte
}

// NewSigner creates a Signer for the given private key.
func NewSigner(privateKey string) *Signer {
	return &Signer{privateKey: []byte(privateKey)}
}

// Sign computes the base64 HMAC-SHA1 digest of data.
func (s *Signer) Sign(data string) string {
	mac := hmac.New(sha1.New, s.privateKey)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Authorizer produces Authorization header values and presigned-URL
// signatures for one key pair.
type Authorizer struct {
	publicKey string
	signer    *Signer
}

// NewAuthorizer creates an Authorizer for the given key pair.
func NewAuthorizer(publicKey, privateKey string) *Authorizer {
	return &Authorizer{
		publicKey: publicKey,
		signer:    NewSigner(privateKey),
	}
}

// PublicKey returns the public key the Authorizer signs as.
func (a *Authorizer) PublicKey() string {
	return a.publicKey
}

// Header signs the request and returns the full Authorization header value.
func (a *Authorizer) Header(req *Request) string {
	return "UCloud " + a.publicKey + ":" + a.signer.Sign(req.CanonicalString())
}

// PresignSignature signs the simplified canonical string used for
// time-limited URLs. Unlike the header canonical string, the resource path
// here is newline-joined and the content-md5 and content-type positions are
// empty lines. The expires value is an absolute Unix timestamp in seconds.
//
// Returns:
//   - The base64 HMAC-SHA1 signature to embed in the URL.
//
// Errors:
//   - errors.ErrInvalidBucketName: bucket is empty
//   - errors.ErrInvalidObjectKey: key is empty
//   - errors.ErrInvalidExpires: expires is zero
func (a *Authorizer) PresignSignature(method, bucket, key string, expires int64) (string, error) {
	if bucket == "" {
		return "", errors.NewError("presign", errors.ErrInvalidBucketName).
			WithMessage("bucket must not be empty")
	}
	if key == "" {
		return "", errors.NewError("presign", errors.ErrInvalidObjectKey).
			WithBucket(bucket).
			WithMessage("key must not be empty")
	}
	if expires == 0 {
		return "", errors.NewError("presign", errors.ErrInvalidExpires).
			WithBucket(bucket).
			WithKey(key)
	}

	data := method + "\n\n\n" + strconv.FormatInt(expires, 10) + "\n/" + bucket + "\n/" + key
	return a.signer.Sign(data), nil
}
