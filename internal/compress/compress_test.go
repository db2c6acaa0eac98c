package compress

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	compressible := bytes.Repeat([]byte("love song blue moon "), 200)
	random := []byte{0x8f, 0x01, 0x77, 0x3a}

	for _, codec := range []Codec{None, LZ4, Zstd} {
		t.Run(codec.String(), func(t *testing.T) {
			block, err := Encode(codec, compressible)
			require.NoError(t, err)
			if codec != None {
				assert.Less(t, len(block), len(compressible))
				assert.Equal(t, byte(codec), block[0])
			}
			out, err := Decode(block)
			require.NoError(t, err)
			assert.Equal(t, compressible, out)

			// Incompressible input falls back to None.
			block, err = Encode(codec, random)
			require.NoError(t, err)
			assert.Equal(t, byte(None), block[0])
			out, err = Decode(block)
			require.NoError(t, err)
			assert.Equal(t, random, out)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := Encode(None, []byte("abc"))
	require.NoError(t, err)
	_, err = Decode(block[:len(block)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decode([]byte{9, 1, 0})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestParseCodec(t *testing.T) {
	tests := map[string]Codec{"none": None, "": None, "lz4": LZ4, "zstd": Zstd, "ZSTD": Zstd}
	for in, want := range tests {
		got, err := ParseCodec(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCodec("snappy")
	assert.Error(t, err)

	var c Codec
	require.NoError(t, c.UnmarshalText([]byte("lz4")))
	assert.Equal(t, LZ4, c)
}

func TestEncodeEmpty(t *testing.T) {
	block, err := Encode(Zstd, nil)
	require.NoError(t, err)
	out, err := Decode(block)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStream(t *testing.T) {
	payload := bytes.Repeat([]byte("segment postings "), 5000)

	for _, codec := range []Codec{None, LZ4, Zstd} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, codec, 1024)
			for chunk := payload; len(chunk) > 0; {
				n := min(len(chunk), 777)
				_, err := w.Write(chunk[:n])
				require.NoError(t, err)
				chunk = chunk[n:]
			}
			require.NoError(t, w.Close())
			assert.Equal(t, int64(buf.Len()), w.BytesWritten())

			// Trailing bytes after the terminator stay unread.
			buf.WriteString("TAIL")

			br := bufio.NewReader(&buf)
			r := NewReader(br)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, out)

			tail, err := io.ReadAll(br)
			require.NoError(t, err)
			assert.Equal(t, "TAIL", string(tail))
		})
	}
}

func TestStream_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, LZ4, 0)
	_, err := w.Write(bytes.Repeat([]byte("x"), 100))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err = io.ReadAll(NewBufferedReader(bytes.NewReader(truncated)))
	assert.Error(t, err)
}

func TestStream_ReadByte(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, None, 2)
	_, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewBufferedReader(&buf)
	for _, want := range []byte{1, 2, 3} {
		b, err := r.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, want, b)
	}
	_, err = r.ReadByte()
	assert.Equal(t, io.EOF, err)
}
