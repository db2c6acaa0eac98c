package spimi

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/songsim/internal/compress"
	"github.com/hupe1980/songsim/internal/hash"
)

// Segments and the merged index share one layout:
//
//	header  magic u32 | version u16 | kind u8 | codec u8 | reserved [8]byte
//	body    compressed block stream:
//	          build id, document table, then (term, postings) in term order,
//	          terminated by an empty term
//	trailer CRC32C of header and encoded body
//
// Postings are delta-encoded document ordinals followed by the term
// frequency, both as uvarints.
const (
	magicNumber   = 0x494d5053 // "SPMI"
	formatVersion = 1
	headerSize    = 16
	maxStringLen  = 1 << 20
)

type fileKind uint8

const (
	kindSegment fileKind = 1
	kindIndex   fileKind = 2
)

// DocInfo describes an indexed document.
type DocInfo struct {
	ID string
	// Length is the number of indexed terms.
	Length uint32
	// Language is the language the document was analyzed with.
	Language string
}

// Posting is one document occurrence of a term. Doc is the document's
// ordinal in the document table.
type Posting struct {
	Doc uint32
	TF  uint32
}

type encoder struct {
	bw  *bufio.Writer
	cw  *hash.Writer
	zw  *compress.Writer
	buf []byte
}

func newEncoder(w io.Writer, kind fileKind, codec compress.Codec, buildID string) (*encoder, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	cw := hash.NewWriter(bw)

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], magicNumber)
	binary.LittleEndian.PutUint16(hdr[4:], formatVersion)
	hdr[6] = byte(kind)
	hdr[7] = byte(codec)
	if _, err := cw.Write(hdr[:]); err != nil {
		return nil, err
	}

	e := &encoder{bw: bw, cw: cw, zw: compress.NewWriter(cw, codec, 0)}
	e.putString(buildID)
	return e, e.flushBuf()
}

func (e *encoder) putUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) putString(s string) {
	e.putUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) flushBuf() error {
	_, err := e.zw.Write(e.buf)
	e.buf = e.buf[:0]
	return err
}

func (e *encoder) writeDocs(docs []DocInfo) error {
	e.putUvarint(uint64(len(docs)))
	for _, d := range docs {
		e.putString(d.ID)
		e.putUvarint(uint64(d.Length))
		e.putString(d.Language)
		if len(e.buf) >= 32*1024 {
			if err := e.flushBuf(); err != nil {
				return err
			}
		}
	}
	return e.flushBuf()
}

func (e *encoder) writeTerm(term string, postings []Posting) error {
	if term == "" {
		return errors.New("empty term")
	}
	e.putString(term)
	e.putUvarint(uint64(len(postings)))
	var prev uint32
	for _, p := range postings {
		e.putUvarint(uint64(p.Doc - prev))
		e.putUvarint(uint64(p.TF))
		prev = p.Doc
	}
	return e.flushBuf()
}

// close terminates the term list and writes the trailer. It returns the
// total number of bytes written.
func (e *encoder) close() (int64, error) {
	e.putUvarint(0)
	if err := e.flushBuf(); err != nil {
		return 0, err
	}
	if err := e.zw.Close(); err != nil {
		return 0, err
	}
	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], e.cw.Sum32())
	if _, err := e.bw.Write(sum[:]); err != nil {
		return 0, err
	}
	if err := e.bw.Flush(); err != nil {
		return 0, err
	}
	return e.cw.Written() + 4, nil
}

type decoder struct {
	cr      *hash.Reader
	zr      *compress.Reader
	kind    fileKind
	buildID string
	docs    []DocInfo
	last    string
	done    bool
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// newDecoder reads the header and the document table.
func newDecoder(r io.Reader) (*decoder, error) {
	cr := hash.NewReader(bufio.NewReaderSize(r, 64*1024))

	var hdr [headerSize]byte
	if _, err := io.ReadFull(cr, hdr[:]); err != nil {
		return nil, corrupt("header: %v", err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != magicNumber {
		return nil, corrupt("bad magic")
	}
	if v := binary.LittleEndian.Uint16(hdr[4:]); v != formatVersion {
		return nil, corrupt("unsupported version %d", v)
	}

	d := &decoder{cr: cr, zr: compress.NewReader(cr), kind: fileKind(hdr[6])}
	var err error
	if d.buildID, err = d.readString(); err != nil {
		return nil, corrupt("build id: %v", err)
	}
	if err := d.readDocs(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *decoder) readString() (string, error) {
	n, err := binary.ReadUvarint(d.zr)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.zr, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) readDocs() error {
	n, err := binary.ReadUvarint(d.zr)
	if err != nil {
		return corrupt("document count: %v", err)
	}
	d.docs = make([]DocInfo, 0, min(n, 1<<20))
	for i := uint64(0); i < n; i++ {
		id, err := d.readString()
		if err != nil {
			return corrupt("document %d: %v", i, err)
		}
		length, err := binary.ReadUvarint(d.zr)
		if err != nil {
			return corrupt("document %d: %v", i, err)
		}
		lang, err := d.readString()
		if err != nil {
			return corrupt("document %d: %v", i, err)
		}
		if len(d.docs) > 0 && d.docs[len(d.docs)-1].ID >= id {
			return corrupt("document table not sorted at %q", id)
		}
		d.docs = append(d.docs, DocInfo{ID: id, Length: uint32(length), Language: lang})
	}
	return nil
}

// next returns the next term and its postings. It returns io.EOF after the
// last term once the trailer checksum has been verified.
func (d *decoder) next() (string, []Posting, error) {
	if d.done {
		return "", nil, io.EOF
	}
	term, err := d.readString()
	if err != nil {
		return "", nil, corrupt("term: %v", err)
	}
	if term == "" {
		d.done = true
		if _, err := d.zr.ReadByte(); err != io.EOF {
			return "", nil, corrupt("data after term list")
		}
		if err := d.cr.Verify(); err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return "", nil, io.EOF
	}
	if d.last != "" && term <= d.last {
		return "", nil, corrupt("term %q out of order", term)
	}
	d.last = term

	n, err := binary.ReadUvarint(d.zr)
	if err != nil {
		return "", nil, corrupt("term %q: %v", term, err)
	}
	if n == 0 || n > uint64(len(d.docs)) {
		return "", nil, corrupt("term %q: %d postings for %d documents", term, n, len(d.docs))
	}
	postings := make([]Posting, n)
	var doc uint64
	for i := range postings {
		delta, err := binary.ReadUvarint(d.zr)
		if err != nil {
			return "", nil, corrupt("term %q: %v", term, err)
		}
		tf, err := binary.ReadUvarint(d.zr)
		if err != nil {
			return "", nil, corrupt("term %q: %v", term, err)
		}
		if i > 0 && delta == 0 {
			return "", nil, corrupt("term %q: duplicate document", term)
		}
		doc += delta
		if doc >= uint64(len(d.docs)) || tf == 0 {
			return "", nil, corrupt("term %q: bad posting (%d, %d)", term, doc, tf)
		}
		postings[i] = Posting{Doc: uint32(doc), TF: uint32(tf)}
	}
	return term, postings, nil
}
