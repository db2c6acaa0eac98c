package compress

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultBlockSize is the raw size at which a Writer emits a block.
const DefaultBlockSize = 256 * 1024

// Writer buffers a byte stream and writes it as a sequence of encoded
// blocks, each prefixed with its uvarint length. Close writes a zero-length
// terminator.
type Writer struct {
	w         io.Writer
	codec     Codec
	blockSize int
	buf       []byte
	written   int64
}

// NewWriter creates a block writer. blockSize <= 0 selects DefaultBlockSize.
func NewWriter(w io.Writer, codec Codec, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{w: w, codec: codec, blockSize: blockSize, buf: make([]byte, 0, blockSize)}
}

func (c *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := min(len(p), c.blockSize-len(c.buf))
		c.buf = append(c.buf, p[:n]...)
		total += n
		p = p[n:]
		if len(c.buf) == c.blockSize {
			if err := c.flush(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (c *Writer) flush() error {
	if len(c.buf) == 0 {
		return nil
	}
	block, err := Encode(c.codec, c.buf)
	if err != nil {
		return err
	}
	if err := c.frame(block); err != nil {
		return err
	}
	c.buf = c.buf[:0]
	return nil
}

func (c *Writer) frame(block []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(block)))
	if _, err := c.w.Write(hdr[:n]); err != nil {
		return err
	}
	if _, err := c.w.Write(block); err != nil {
		return err
	}
	c.written += int64(n + len(block))
	return nil
}

// Close flushes buffered data and writes the terminator. It does not close
// the underlying writer.
func (c *Writer) Close() error {
	if err := c.flush(); err != nil {
		return err
	}
	if _, err := c.w.Write([]byte{0}); err != nil {
		return err
	}
	c.written++
	return nil
}

// BytesWritten returns the encoded bytes written so far.
func (c *Writer) BytesWritten() int64 { return c.written }

// Reader decodes a stream produced by Writer. It reads exactly up to and
// including the terminator, leaving any trailing data unread.
type Reader struct {
	r     ByteReader
	block []byte
	done  bool
}

// ByteReader is the input a Reader needs. *bufio.Reader satisfies it.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// NewReader creates a block reader.
func NewReader(r ByteReader) *Reader {
	return &Reader{r: r}
}

// NewBufferedReader wraps r in a bufio.Reader first.
func NewBufferedReader(r io.Reader) *Reader {
	return NewReader(bufio.NewReader(r))
}

func (c *Reader) Read(p []byte) (int, error) {
	for len(c.block) == 0 {
		if c.done {
			return 0, io.EOF
		}
		if err := c.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.block)
	c.block = c.block[n:]
	return n, nil
}

// ReadByte implements io.ByteReader so binary.ReadUvarint can consume the
// decoded stream directly.
func (c *Reader) ReadByte() (byte, error) {
	for len(c.block) == 0 {
		if c.done {
			return 0, io.EOF
		}
		if err := c.next(); err != nil {
			return 0, err
		}
	}
	b := c.block[0]
	c.block = c.block[1:]
	return b, nil
}

func (c *Reader) next() error {
	size, err := binary.ReadUvarint(c.r)
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if size == 0 {
		c.done = true
		return nil
	}
	if size > 1<<30 {
		return fmt.Errorf("%w: block size %d", ErrCorrupt, size)
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(c.r, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	block, err := Decode(raw)
	if err != nil {
		return err
	}
	c.block = block
	return nil
}
