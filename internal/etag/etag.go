// Package etag computes UFile's block-based entity tag locally, letting a
// caller compare an on-disk file against a stored object without
// downloading it.
//
// The tag is the URL-safe base64 encoding of a 24-byte buffer: the block
// count as a little-endian uint32 followed by a SHA-1 digest. With more
// than one block the digest covers the concatenated per-block SHA-1
// digests; with a single block it covers the data itself.
package etag

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is mandated by the UFile etag format
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
)

// ETag is a locally computed entity tag.
type ETag struct {
	// Value is the URL-safe base64 tag comparable with the service's etag
	Value string

	// PartETags holds the URL-safe base64 SHA-1 of each block, populated
	// only when the object spans more than one block
	PartETags []string
}

// Sum computes the entity tag of size bytes read from r, split into
// blockSize blocks.
//
// Errors:
//   - errors.ErrInvalidInput: blockSize is not positive or size is negative
//   - read errors from r
func Sum(r io.Reader, size, blockSize int64) (ETag, error) {
	if blockSize <= 0 || size < 0 {
		return ETag{}, errors.NewError("etag", errors.ErrInvalidInput).
			WithMessage("size must be non-negative and block size positive")
	}

	blockCount := (size + blockSize - 1) / blockSize

	buf := make([]byte, 4+sha1.Size)
	binary.LittleEndian.PutUint32(buf[:4], uint32(blockCount))

	var tag ETag
	switch {
	case blockCount > 1:
		outer := sha1.New() //nolint:gosec
		block := make([]byte, blockSize)
		for i := int64(0); i < blockCount; i++ {
			n := blockSize
			if remaining := size - i*blockSize; remaining < n {
				n = remaining
			}
			if _, err := io.ReadFull(r, block[:n]); err != nil {
				return ETag{}, fmt.Errorf("reading block %d: %w", i, err)
			}
			blockSum := sha1.Sum(block[:n]) //nolint:gosec
			tag.PartETags = append(tag.PartETags,
				base64.URLEncoding.EncodeToString(blockSum[:]))
			outer.Write(blockSum[:])
		}
		copy(buf[4:], outer.Sum(nil))
	case blockCount == 1:
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return ETag{}, fmt.Errorf("reading block 0: %w", err)
		}
		sum := sha1.Sum(data) //nolint:gosec
		copy(buf[4:], sum[:])
	}
	// size 0 leaves the digest bytes zeroed

	tag.Value = base64.URLEncoding.EncodeToString(buf)
	return tag, nil
}
