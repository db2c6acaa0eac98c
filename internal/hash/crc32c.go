package hash

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// ErrChecksum is returned when a trailing checksum does not match its body.
var ErrChecksum = errors.New("checksum mismatch")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Writer forwards writes to an underlying writer while checksumming them.
type Writer struct {
	w io.Writer
	h hash.Hash32
	n int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, h: NewCRC32C()}
}

func (cw *Writer) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.h.Write(p[:n])
	cw.n += int64(n)
	return n, err
}

// Sum32 returns the checksum of everything written so far.
func (cw *Writer) Sum32() uint32 { return cw.h.Sum32() }

// Written returns the number of bytes written so far.
func (cw *Writer) Written() int64 { return cw.n }

// Seal appends the 4-byte little-endian CRC32C of data to data.
func Seal(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(data, CRC32C(data))
}

// Open verifies a buffer produced by Seal and returns the body without the
// checksum.
func Open(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrChecksum
	}
	body := data[:len(data)-4]
	if binary.LittleEndian.Uint32(data[len(data)-4:]) != CRC32C(body) {
		return nil, ErrChecksum
	}
	return body, nil
}

// Reader checksums every byte consumed from a buffered reader. Bytes that
// the buffer has read ahead but the caller has not consumed are not hashed,
// so a trailing checksum can be read from the same buffer afterwards.
type Reader struct {
	r *bufio.Reader
	h hash.Hash32
}

// NewReader wraps r.
func NewReader(r *bufio.Reader) *Reader {
	return &Reader{r: r, h: NewCRC32C()}
}

func (cr *Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.h.Write(p[:n])
	return n, err
}

// ReadByte implements io.ByteReader.
func (cr *Reader) ReadByte() (byte, error) {
	b, err := cr.r.ReadByte()
	if err != nil {
		return 0, err
	}
	cr.h.Write([]byte{b})
	return b, nil
}

// Sum32 returns the checksum of everything consumed so far.
func (cr *Reader) Sum32() uint32 { return cr.h.Sum32() }

// Verify reads a 4-byte little-endian checksum from the underlying buffer
// and compares it with the bytes consumed so far.
func (cr *Reader) Verify() error {
	want := cr.h.Sum32()
	var sum [4]byte
	if _, err := io.ReadFull(cr.r, sum[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}
	if binary.LittleEndian.Uint32(sum[:]) != want {
		return ErrChecksum
	}
	return nil
}
