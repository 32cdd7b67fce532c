// Package tbin decodes the binary seed files written by the grain-analysis tool.
//
// A file is a 120-byte header followed by variable-length records. Each record
// has a 308-byte fixed part and a contour block of 12 bytes per point:
//
//	[0, 48)      twelve int32, read as six auxiliary pairs
//	[48, 52)     reserved (zero)
//	[52, 152)    twelve float64: centroid x/y, intersection x/y, length,
//	             width, area, perimeter, circularity, three reserved
//	[152, 304)   skipped
//	[304, 308)   int32 point count n
//	[308, 308+12n) n triples of int32 (x, y, flag)
//
// All fields are little-endian. There is no record count; the stream ends at
// the end of the buffer.
package tbin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"seed-synth/internal/seed"
	"seed-synth/pkg/geometry"
)

const (
	// HeaderSize is the number of leading bytes skipped before the first record.
	HeaderSize = 120

	auxOffset        = 0
	attribOffset     = 52
	attribBlockSize  = 100
	pointCountOffset = 304
	// FixedRecordSize is the size of a record without its contour block.
	FixedRecordSize = 308
	// PointSize is the size of one (x, y, flag) contour triple.
	PointSize = 12
)

// DefaultMaxPointCount bounds the point count a record may declare.
const DefaultMaxPointCount = 1_000_000

var order = binary.LittleEndian

// Decode decodes the record starting at offset and returns it together with
// the offset of the next record. At the end of the buffer it returns
// ErrEndOfStream; a record that starts but does not fit is malformed.
func Decode(buf []byte, offset int) (seed.Record, int, error) {
	return decode(buf, offset, DefaultMaxPointCount)
}

func decode(buf []byte, offset, maxPoints int) (seed.Record, int, error) {
	var rec seed.Record

	if offset < 0 || offset > len(buf) {
		return rec, offset, malformed(offset, "offset outside buffer of %d bytes", len(buf))
	}
	if offset == len(buf) {
		return rec, offset, ErrEndOfStream
	}
	if len(buf)-offset < FixedRecordSize {
		return rec, offset, malformed(offset, "truncated record: %d bytes left, need %d",
			len(buf)-offset, FixedRecordSize)
	}

	b := buf[offset:]

	for i := 0; i < 6; i++ {
		rec.Aux[i][0] = int32(order.Uint32(b[auxOffset+i*8:]))
		rec.Aux[i][1] = int32(order.Uint32(b[auxOffset+i*8+4:]))
	}

	var attrib [attribBlockSize / 8]float64
	for i := range attrib {
		attrib[i] = math.Float64frombits(order.Uint64(b[attribOffset+i*8:]))
	}
	rec.Centroid = geometry.Point2D{X: attrib[0], Y: attrib[1]}
	rec.Intersection = geometry.Point2D{X: attrib[2], Y: attrib[3]}
	rec.Length = attrib[4]
	rec.Width = attrib[5]
	rec.Area = attrib[6]
	rec.Perimeter = attrib[7]
	rec.Circularity = attrib[8]
	copy(rec.Reserved[:], attrib[9:])

	n := int(int32(order.Uint32(b[pointCountOffset:])))
	if n < 3 {
		return rec, offset, malformed(offset, "point count %d, need at least 3", n)
	}
	if n > maxPoints {
		return rec, offset, malformed(offset, "point count %d exceeds limit %d", n, maxPoints)
	}

	end := FixedRecordSize + n*PointSize
	if len(b) < end {
		return rec, offset, malformed(offset, "truncated contour: %d points need %d bytes, %d left",
			n, n*PointSize, len(b)-FixedRecordSize)
	}

	rec.Contour = make([]seed.ContourPoint, n)
	for i := range rec.Contour {
		p := b[FixedRecordSize+i*PointSize:]
		rec.Contour[i] = seed.ContourPoint{
			X:    int32(order.Uint32(p[0:])),
			Y:    int32(order.Uint32(p[4:])),
			Flag: int32(order.Uint32(p[8:])),
		}
	}

	return rec, offset + end, nil
}

// Reader iterates over the records of a seed file held in memory.
type Reader struct {
	buf       []byte
	offset    int
	maxPoints int
}

// NewReader returns a Reader positioned at the first record.
// The header must be present in full.
func NewReader(buf []byte) (*Reader, error) {
	if len(buf) < HeaderSize {
		return nil, malformed(0, "truncated header: %d bytes, need %d", len(buf), HeaderSize)
	}
	return &Reader{buf: buf, offset: HeaderSize, maxPoints: DefaultMaxPointCount}, nil
}

// SetMaxPointCount changes the largest point count accepted per record.
func (r *Reader) SetMaxPointCount(n int) {
	r.maxPoints = n
}

// Offset returns the offset of the next record to be decoded.
func (r *Reader) Offset() int {
	return r.offset
}

// Next decodes the next record. It returns ErrEndOfStream when no records remain.
// After a malformed record the reader does not advance.
func (r *Reader) Next() (seed.Record, error) {
	rec, next, err := decode(r.buf, r.offset, r.maxPoints)
	if err != nil {
		return rec, err
	}
	r.offset = next
	return rec, nil
}

// ReadAll decodes every record in buf.
func ReadAll(buf []byte) ([]seed.Record, error) {
	return readAll(buf, DefaultMaxPointCount)
}

func readAll(buf []byte, maxPoints int) ([]seed.Record, error) {
	r, err := NewReader(buf)
	if err != nil {
		return nil, err
	}
	r.SetMaxPointCount(maxPoints)

	var records []seed.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, ErrEndOfStream) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReadFile loads and decodes a seed file.
func ReadFile(path string) ([]seed.Record, error) {
	return ReadFileLimit(path, DefaultMaxPointCount)
}

// ReadFileLimit is ReadFile with a custom largest point count per record.
func ReadFileLimit(path string, maxPoints int) ([]seed.Record, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	records, err := readAll(buf, maxPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}
