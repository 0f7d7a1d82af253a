package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrConflict indicates an exclusive create collided with an existing file.
// The colliding save is dropped: the cache was already resolved with the
// record, so readers keep being served from memory until eviction.
var ErrConflict = errors.New("file already exists")

// Store persists records as one flat file per key under a single content
// directory. Files are immutable once written: creation uses an
// exclusive-create open, and nothing ever rewrites an existing record.
//
// Store methods perform blocking disk I/O; callers schedule them on the
// I/O worker pool rather than invoking them from a request handler.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if absent.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("content directory not writable: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the content directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Load reads and fully decodes the record for key. A missing file returns
// the empty sentinel with no error; other I/O errors propagate.
func (s *Store) Load(key string) (Record, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("opening record %s: %w", key, err)
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return Record{}, fmt.Errorf("decoding record %s: %w", key, err)
	}
	return rec, nil
}

// LoadMeta reads the key, media type and expiry of the record at path,
// skipping the body. Used by the sweeper to scan without loading payloads.
func (s *Store) LoadMeta(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("opening record %s: %w", path, err)
	}
	defer f.Close()

	rec, err := DecodeMeta(f)
	if err != nil {
		return Record{}, fmt.Errorf("decoding record meta %s: %w", path, err)
	}
	return rec, nil
}

// Save builds the record and persists it.
//
// If compressFirst is true the body is gzipped here, on the I/O worker,
// rather than in the request handler. resolve is invoked with the fully
// formed record BEFORE the disk write so that readers of the same key are
// served from the cache immediately; the 201 response never waits for
// durability.
//
// Creation is exclusive: if a file for key already exists, Save returns
// ErrConflict and the caller drops the write. resolve has already run by
// then, so the cache holds the new record while disk keeps the prior one;
// once the entry is evicted, loads serve the prior record from disk.
func (s *Store) Save(rec Record, compressFirst bool, resolve func(Record)) error {
	if compressFirst {
		rec.Body = Compress(rec.Body)
	}

	if resolve != nil {
		resolve(rec)
	}

	f, err := os.OpenFile(s.Path(rec.Key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("record %s: %w", rec.Key, ErrConflict)
		}
		return fmt.Errorf("creating record %s: %w", rec.Key, err)
	}

	if err := rec.Encode(f); err != nil {
		f.Close()
		os.Remove(s.Path(rec.Key)) // remove any bytes written
		return fmt.Errorf("writing record %s: %w", rec.Key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing record %s: %w", rec.Key, err)
	}

	return nil
}
