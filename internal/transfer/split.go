package transfer

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is a half-open byte interval [Start, End) within an object.
// Ranges produced by Split are contiguous, non-overlapping and cover the
// object exactly.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes the range covers.
func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

// Header renders the range as an HTTP Range header value. HTTP ranges are
// inclusive, so the exclusive End is converted to the last byte index.
func (r ByteRange) Header() string {
	var b strings.Builder
	b.WriteString("bytes=")
	b.WriteString(strconv.FormatInt(r.Start, 10))
	b.WriteString("-")
	b.WriteString(strconv.FormatInt(r.End-1, 10))
	return b.String()
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Part is the unit of work in a multipart transfer: a 1-based number and
// the byte range it covers.
type Part struct {
	// Number is the part's position in split order, starting at 1
	Number int

	// Range is the slice of the object this part covers
	Range ByteRange
}

// Split divides totalSize bytes into ceil(totalSize/blockSize) parts where
// part i covers [i*blockSize, min((i+1)*blockSize, totalSize)). Every part
// except possibly the last is exactly blockSize bytes. Part numbers are
// assigned sequentially from 1 in split order.
func Split(totalSize, blockSize int64) []Part {
	if totalSize <= 0 || blockSize <= 0 {
		return nil
	}
	count := (totalSize + blockSize - 1) / blockSize
	parts := make([]Part, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * blockSize
		end := (i + 1) * blockSize
		if end > totalSize {
			end = totalSize
		}
		parts = append(parts, Part{
			Number: int(i) + 1,
			Range:  ByteRange{Start: start, End: end},
		})
	}
	return parts
}
