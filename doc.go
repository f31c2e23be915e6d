// Package ufile provides a high-level Go module for UCloud UFile object
// storage. It implements the UFile REST protocol directly, including
// request signing, and exposes an intuitive interface for common object
// operations while keeping the transfer engine accessible for advanced
// use cases.
//
// The module emphasizes developer experience through simple APIs while
// maintaining performance through intelligent defaults for concurrency
// and buffering.
//
// Key features:
//   - HMAC-SHA1 request signing and presigned URL generation
//   - Automatic multipart upload for large files
//   - Concurrent ranged downloads to local files
//   - Concurrent operations with configurable limits
//   - Progress tracking and optional MD5 verification
//   - Comprehensive error handling with context
//
// Example usage:
//
//	client, err := ufile.New(
//	    ufile.WithCredential(publicKey, privateKey),
//	    ufile.WithRegion("cn-bj"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.txt", "/local/file.txt")
//	if err != nil {
//	    return err
//	}
package ufile
