// Package endpoint resolves bucket/key pairs into request URLs.
//
// UFile addresses objects through a per-bucket virtual host:
// {scheme}://{bucket}.{region}.{proxy_suffix}/{key}. When a custom host is
// configured it replaces the assembled host entirely and the bucket name no
// longer appears in the URL.
package endpoint

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/signing"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

// DefaultScheme is used when no scheme is configured.
const DefaultScheme = "https"

// Resolver builds object URLs for one endpoint configuration.
type Resolver struct {
	region      string
	proxySuffix string
	customHost  string
	scheme      string
}

// NewResolver creates a Resolver. An empty scheme defaults to https.
func NewResolver(region, proxySuffix, customHost, scheme string) *Resolver {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Resolver{
		region:      region,
		proxySuffix: proxySuffix,
		customHost:  customHost,
		scheme:      scheme,
	}
}

// ObjectURL returns the full request URL for an object. Every URL segment is
// percent-encoded independently, including slashes inside the key.
func (r *Resolver) ObjectURL(bucket, key string) string {
	if r.customHost != "" {
		return r.customHost + "/" + Escape(key)
	}
	return r.scheme + "://" + Escape(bucket) + "." + Escape(r.region) + "." +
		Escape(r.proxySuffix) + "/" + Escape(key)
}

// PresignedURL builds a time-limited URL for unauthenticated access to an
// object. The signature covers the method, the absolute expiry timestamp and
// the resource path; expiresAt is seconds since the Unix epoch and the same
// value is embedded as the Expires query parameter.
//
// Errors:
//   - errors.ErrInvalidBucketName, errors.ErrInvalidObjectKey,
//     errors.ErrInvalidExpires: propagated from signature construction
func (r *Resolver) PresignedURL(
	auth *signing.Authorizer,
	method, bucket, key string,
	expiresAt int64,
	securityToken string,
	cfg *ufiletypes.PresignOptionConfig,
) (string, error) {
	sig, err := auth.PresignSignature(method, bucket, key, expiresAt)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(r.ObjectURL(bucket, key))
	b.WriteString("?UCloudPublicKey=")
	b.WriteString(Escape(auth.PublicKey()))
	b.WriteString("&Signature=")
	b.WriteString(Escape(sig))
	b.WriteString("&Expires=")
	b.WriteString(strconv.FormatInt(expiresAt, 10))
	if cfg != nil && cfg.AttachmentName != "" {
		b.WriteString("&ufileattname=")
		b.WriteString(Escape(cfg.AttachmentName))
	}
	if securityToken != "" {
		b.WriteString("&SecurityToken=")
		b.WriteString(Escape(securityToken))
	}
	if cfg != nil && cfg.IOPCommand != "" {
		b.WriteString("&iopcmd=")
		b.WriteString(Escape(cfg.IOPCommand))
	}
	return b.String(), nil
}

// Escape percent-encodes s per RFC 3986, leaving only unreserved characters
// (letters, digits, '-', '_', '.', '~') intact. Unlike url.PathEscape this
// also encodes slashes, matching how the service expects key segments to be
// encoded.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
