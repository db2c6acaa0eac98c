package vectorstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/songsim/internal/hash"
)

const (
	magicNumber   = 0x53565331 // "SVS1"
	formatVersion = 1
	maxIDLen      = 1 << 16
)

// WriteTo writes the store in its binary format. It implements io.WriterTo.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := hash.NewWriter(bw)

	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:], magicNumber)
	binary.LittleEndian.PutUint32(hdr[4:], formatVersion)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(s.dim))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(s.ids)))
	if _, err := cw.Write(hdr[:]); err != nil {
		return cw.Written(), err
	}

	var scratch [binary.MaxVarintLen64]byte
	row := make([]byte, 4*s.dim)
	for i, id := range s.ids {
		n := binary.PutUvarint(scratch[:], uint64(len(id)))
		if _, err := cw.Write(scratch[:n]); err != nil {
			return cw.Written(), err
		}
		if _, err := io.WriteString(cw, id); err != nil {
			return cw.Written(), err
		}
		for d, v := range s.row(uint32(i)) {
			binary.LittleEndian.PutUint32(row[d*4:], math.Float32bits(v))
		}
		if _, err := cw.Write(row); err != nil {
			return cw.Written(), err
		}
	}

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], cw.Sum32())
	if _, err := bw.Write(sum[:]); err != nil {
		return cw.Written(), err
	}
	return cw.Written() + 4, bw.Flush()
}

// ReadFrom loads a store previously written with WriteTo.
func ReadFrom(r io.Reader) (*Store, error) {
	cr := hash.NewReader(bufio.NewReader(r))

	var hdr [16]byte
	if _, err := io.ReadFull(cr, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != magicNumber {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	dim := int(binary.LittleEndian.Uint32(hdr[8:]))
	count := int(binary.LittleEndian.Uint32(hdr[12:]))

	s, err := New(dim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	row := make([]byte, 4*dim)
	vec := make([]float32, dim)
	for i := 0; i < count; i++ {
		n, err := binary.ReadUvarint(cr)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		if n > maxIDLen {
			return nil, fmt.Errorf("%w: entry %d: id length %d", ErrCorrupt, i, n)
		}
		id := make([]byte, n)
		if _, err := io.ReadFull(cr, id); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		if _, err := io.ReadFull(cr, row); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		for d := range vec {
			vec[d] = math.Float32frombits(binary.LittleEndian.Uint32(row[d*4:]))
		}
		if err := s.Insert(string(id), vec); err != nil {
			return nil, err
		}
	}

	if err := cr.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}
