package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorrupt is returned when a block cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt block")

// Codec identifies a compression algorithm.
type Codec uint8

const (
	// None stores data uncompressed.
	None Codec = 0
	// LZ4 is LZ4 block compression.
	LZ4 Codec = 1
	// Zstd is Zstandard compression.
	Zstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// ParseCodec parses "none", "lz4" or "zstd".
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return None, fmt.Errorf("unknown compression %q", s)
	}
}

// UnmarshalText lets a Codec be read from configuration files.
func (c *Codec) UnmarshalText(text []byte) error {
	v, err := ParseCodec(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Codec) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

var (
	encoderPool = sync.Pool{New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	}}
	decoderPool = sync.Pool{New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	}}
)

// Encode compresses data with codec.
//
// Layout: [codec u8][raw length uvarint][payload]. Blocks that do not shrink
// are stored with codec None.
func Encode(codec Codec, data []byte) ([]byte, error) {
	var payload []byte
	switch codec {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		// n == 0 means incompressible.
		if n > 0 {
			payload = buf[:n]
		}
	case Zstd:
		enc := encoderPool.Get().(*zstd.Encoder)
		payload = enc.EncodeAll(data, nil)
		encoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression %v", codec)
	}

	if payload == nil || len(payload) >= len(data) {
		codec, payload = None, data
	}

	out := make([]byte, 1, 1+binary.MaxVarintLen64+len(payload))
	out[0] = byte(codec)
	out = binary.AppendUvarint(out, uint64(len(data)))
	return append(out, payload...), nil
}

// Decode reverses Encode.
func Decode(block []byte) ([]byte, error) {
	if len(block) < 2 {
		return nil, ErrCorrupt
	}
	codec := Codec(block[0])
	rawLen, n := binary.Uvarint(block[1:])
	if n <= 0 {
		return nil, ErrCorrupt
	}
	payload := block[1+n:]

	switch codec {
	case None:
		if uint64(len(payload)) != rawLen {
			return nil, ErrCorrupt
		}
		return payload, nil
	case LZ4:
		out := make([]byte, rawLen)
		m, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint64(m) != rawLen {
			return nil, ErrCorrupt
		}
		return out, nil
	case Zstd:
		dec := decoderPool.Get().(*zstd.Decoder)
		defer decoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint64(len(out)) != rawLen {
			return nil, ErrCorrupt
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, codec)
	}
}
