// Package content implements the persisted content model: the record codec,
// the filesystem store, gzip handling, and the expiry sweeper.
package content

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Record is the unit of persisted content.
//
// Body always holds the stored form: the bytes written to disk and kept in
// the cache, possibly gzipped, regardless of what the client sent or will
// receive.
type Record struct {
	// Key is the short opaque identifier, alphanumeric, with length equal
	// to the configured token length.
	Key string

	// MediaType is the declared MIME type of the payload.
	MediaType string

	// Expiry is the absolute instant after which the record is eligible
	// for deletion by the sweeper.
	Expiry time.Time

	// Body is the payload in its stored form.
	Body []byte
}

// Empty reports whether r is the "not present" sentinel: no key and no body.
// The sentinel is a legal cache value but is never served.
func (r Record) Empty() bool {
	return r.Key == "" && len(r.Body) == 0
}

// Weight is the number of bytes the record contributes to the cache's
// capacity.
func (r Record) Weight() int {
	return len(r.Body)
}

// Encode writes the record in its on-disk layout:
//
//	uint16 BE  key length, followed by the key bytes
//	int32  BE  media type length, followed by the media type bytes
//	int64  BE  expiry, milliseconds since epoch
//	int32  BE  body length, followed by the body bytes
func (r Record) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if len(r.Key) > 0xFFFF {
		return fmt.Errorf("key length %d exceeds uint16", len(r.Key))
	}
	if err := binary.Write(bw, binary.BigEndian, uint16(len(r.Key))); err != nil {
		return fmt.Errorf("writing key length: %w", err)
	}
	if _, err := bw.WriteString(r.Key); err != nil {
		return fmt.Errorf("writing key: %w", err)
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(r.MediaType))); err != nil {
		return fmt.Errorf("writing media type length: %w", err)
	}
	if _, err := bw.WriteString(r.MediaType); err != nil {
		return fmt.Errorf("writing media type: %w", err)
	}

	if err := binary.Write(bw, binary.BigEndian, r.Expiry.UnixMilli()); err != nil {
		return fmt.Errorf("writing expiry: %w", err)
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(r.Body))); err != nil {
		return fmt.Errorf("writing body length: %w", err)
	}
	if _, err := bw.Write(r.Body); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}

	return bw.Flush()
}

// Decode reads a full record, body included.
func Decode(r io.Reader) (Record, error) {
	rec, br, err := decodeMeta(r)
	if err != nil {
		return Record{}, err
	}

	var bodyLen int32
	if err := binary.Read(br, binary.BigEndian, &bodyLen); err != nil {
		return Record{}, fmt.Errorf("reading body length: %w", err)
	}
	if bodyLen < 0 {
		return Record{}, fmt.Errorf("negative body length %d", bodyLen)
	}

	rec.Body = make([]byte, bodyLen)
	if _, err := io.ReadFull(br, rec.Body); err != nil {
		return Record{}, fmt.Errorf("reading body: %w", err)
	}

	return rec, nil
}

// DecodeMeta reads the key, media type and expiry and skips the body.
// The sweeper uses it to scan the content directory without loading
// payloads.
func DecodeMeta(r io.Reader) (Record, error) {
	rec, _, err := decodeMeta(r)
	return rec, err
}

// decodeMeta reads fields 1-4 and returns the reader positioned at the body
// length.
func decodeMeta(r io.Reader) (Record, *bufio.Reader, error) {
	br := bufio.NewReader(r)
	var rec Record

	var keyLen uint16
	if err := binary.Read(br, binary.BigEndian, &keyLen); err != nil {
		return Record{}, nil, fmt.Errorf("reading key length: %w", err)
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(br, key); err != nil {
		return Record{}, nil, fmt.Errorf("reading key: %w", err)
	}
	rec.Key = string(key)

	var mediaTypeLen int32
	if err := binary.Read(br, binary.BigEndian, &mediaTypeLen); err != nil {
		return Record{}, nil, fmt.Errorf("reading media type length: %w", err)
	}
	if mediaTypeLen < 0 {
		return Record{}, nil, fmt.Errorf("negative media type length %d", mediaTypeLen)
	}
	mediaType := make([]byte, mediaTypeLen)
	if _, err := io.ReadFull(br, mediaType); err != nil {
		return Record{}, nil, fmt.Errorf("reading media type: %w", err)
	}
	rec.MediaType = string(mediaType)

	var expiryMillis int64
	if err := binary.Read(br, binary.BigEndian, &expiryMillis); err != nil {
		return Record{}, nil, fmt.Errorf("reading expiry: %w", err)
	}
	rec.Expiry = time.UnixMilli(expiryMillis)

	return rec, br, nil
}
