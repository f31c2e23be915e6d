// Package internal contains private implementation details for the UFile
// module. These packages are not intended for external use and may change
// without notice.
//
// The internal packages are organized as follows:
//   - signing: Canonical strings, HMAC-SHA1 signatures, authorization headers
//   - endpoint: Host resolution and presigned URL assembly
//   - api: The signed HTTP caller and error envelope decoding
//   - transfer: Byte range splitting plus the multipart and ranged engines
//   - operations: Core object operation implementations
//   - gate: Concurrency bounding
//   - validation: Input validation logic
//   - etag: Local ETag computation
//   - pool: Memory management optimizations
//   - testutil: Transport mocks and the in-memory fake service
package internal
