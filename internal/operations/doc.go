// Package operations groups the per-concern operation handlers: upload,
// download, copy and delete. Each handler wraps the shared API caller and
// is composed by the public client.
package operations
