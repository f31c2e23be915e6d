// Package ufile provides client initialization and configuration.
//
// The Client provides a high-level interface for interacting with UCloud
// UFile object storage, supporting operations like upload, download, copy,
// and delete with configurable options for performance tuning and error
// handling.
package ufile

import (
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	uferrors "github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/api"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/endpoint"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/gate"
	copyop "github.com/input-output-hk/catalyst-forge-libs/ufile/internal/operations/copy"
	deleteop "github.com/input-output-hk/catalyst-forge-libs/ufile/internal/operations/delete"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/internal/signing"
	"github.com/input-output-hk/catalyst-forge-libs/ufile/ufiletypes"
)

const (
	// DefaultContentType is the content type used when detection fails
	DefaultContentType = "application/octet-stream"

	// DefaultProxySuffix is the public UFile endpoint suffix
	DefaultProxySuffix = "ufileos.com"
)

// Client represents a UFile client with configurable options.
// It provides thread-safe access to UFile operations with built-in
// concurrency control and progress tracking.
type Client struct {
	// caller signs and executes the REST calls
	caller *api.Caller

	// httpClient also serves the unsigned presigned-URL fetches
	httpClient api.Doer

	// gate bounds concurrent part transfers across the client
	gate *gate.Gate

	// config holds the resolved client configuration
	config ufiletypes.ClientConfig

	// mu protects concurrent access to client configuration
	mu sync.RWMutex

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	uploader   *upload.Uploader
	downloader *download.Downloader
	copier     *copyop.Copier
	deleter    *deleteop.Deleter
}

// New creates a new UFile client with the provided options.
// A credential and either a region or a custom host are required; every
// other setting has a sensible default.
//
// Example:
//
//	client, err := ufile.New(
//	    ufile.WithCredential("public-key", "private-key"),
//	    ufile.WithRegion("cn-bj"),
//	)
func New(opts ...ufiletypes.Option) (*Client, error) {
	clientCfg := &ufiletypes.ClientConfig{
		ProxySuffix: DefaultProxySuffix,
		Scheme:      "https",
		Concurrency: gate.DefaultLimit(),
		PartSize:    download.DefaultPartSize,
	}

	for _, opt := range opts {
		opt(clientCfg)
	}

	if clientCfg.Credential.PublicKey == "" || clientCfg.Credential.PrivateKey == "" {
		return nil, uferrors.NewError("client initialization", uferrors.ErrInvalidInput).
			WithMessage("credential public and private keys are required")
	}
	if clientCfg.Region == "" && clientCfg.CustomHost == "" {
		return nil, uferrors.NewError("client initialization", uferrors.ErrInvalidInput).
			WithMessage("a region or a custom host is required")
	}

	var httpClient api.Doer
	if clientCfg.CustomHTTPClient != nil {
		httpClient = clientCfg.CustomHTTPClient
	} else {
		defaultClient := api.NewHTTPClient()
		if clientCfg.Timeout > 0 {
			defaultClient.Timeout = clientCfg.Timeout
		}
		httpClient = defaultClient
	}

	// Initialize filesystem - use provided one or default to OS filesystem
	var filesystem fs.Filesystem
	if clientCfg.Filesystem != nil {
		filesystem = clientCfg.Filesystem
	} else {
		filesystem = billy.NewOSFS("/")
	}

	auth := signing.NewAuthorizer(clientCfg.Credential.PublicKey, clientCfg.Credential.PrivateKey)
	resolver := endpoint.NewResolver(
		clientCfg.Region, clientCfg.ProxySuffix, clientCfg.CustomHost, clientCfg.Scheme)
	caller := api.NewCaller(httpClient, auth, resolver, clientCfg.SecurityToken)

	return newClient(caller, httpClient, clientCfg, filesystem), nil
}

// NewWithDoer creates a client around a custom request executor.
// This is primarily used for testing with fake transports.
func NewWithDoer(doer api.Doer, opts ...ufiletypes.Option) (*Client, error) {
	clientCfg := &ufiletypes.ClientConfig{
		ProxySuffix: DefaultProxySuffix,
		Scheme:      "https",
		Concurrency: gate.DefaultLimit(),
		PartSize:    download.DefaultPartSize,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	filesystem := clientCfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	auth := signing.NewAuthorizer(clientCfg.Credential.PublicKey, clientCfg.Credential.PrivateKey)
	resolver := endpoint.NewResolver(
		clientCfg.Region, clientCfg.ProxySuffix, clientCfg.CustomHost, clientCfg.Scheme)
	caller := api.NewCaller(doer, auth, resolver, clientCfg.SecurityToken)

	return newClient(caller, doer, clientCfg, filesystem), nil
}

func newClient(caller *api.Caller, httpClient api.Doer, cfg *ufiletypes.ClientConfig, filesystem fs.Filesystem) *Client {
	g := gate.New(cfg.Concurrency)
	return &Client{
		caller:     caller,
		httpClient: httpClient,
		gate:       g,
		config:     *cfg,
		fs:         filesystem,
		uploader:   upload.New(caller, g),
		downloader: download.New(caller, httpClient, g),
		copier:     copyop.NewCopier(caller),
		deleter:    deleteop.New(caller),
	}
}

// SetFilesystem sets the filesystem implementation for the client.
// This is useful for testing or when the filesystem needs to be changed
// after creation.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}

// filesystem returns the current filesystem under the read lock.
func (c *Client) filesystem() fs.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// resolveBucket falls back to the configured default bucket.
func (c *Client) resolveBucket(bucket string) string {
	if bucket == "" {
		return c.config.DefaultBucket
	}
	return bucket
}

// detectContentType determines the content type using mimetype where
// possible, falling back to extension-based lookup when the path is not a
// readable local file.
func (c *Client) detectContentType(path string) string {
	fsys := c.filesystem()

	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return c.detectContentTypeFromExtension(path)
	}

	file, err := fsys.Open(path)
	if err != nil {
		return c.detectContentTypeFromExtension(path)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return c.detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension resolves a content type from the path
// extension, for object keys or files that cannot be sniffed.
func (c *Client) detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
