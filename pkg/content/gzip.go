package content

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// ErrDecodeFailed indicates a stored body could not be gunzipped. The
// request pipeline maps it to a 404 rather than a 5xx: the client named a
// key whose content cannot be served in the form it asked for.
var ErrDecodeFailed = errors.New("unable to uncompress data")

// Compress returns the gzip encoding of data.
//
// Writing gzip output to an in-memory buffer cannot fail for any input;
// an error here is a programming error and panics.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		panic(fmt.Sprintf("content: gzip write: %v", err))
	}
	if err := zw.Close(); err != nil {
		panic(fmt.Sprintf("content: gzip close: %v", err))
	}
	return buf.Bytes()
}

// Decompress gunzips data. Malformed input surfaces as ErrDecodeFailed.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return out, nil
}
