// Package transfer manages chunked UFile transfer operations.
// This includes the byte-range split rule shared by multipart uploads and
// ranged downloads, and the part bookkeeping built on top of it.
//
// The transfer subpackages orchestrate high-level transfers and delegate
// the individual HTTP calls to the api package.
package transfer
