package runindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	dbFile        = "app-ctld.run-index"
	bucketName    = "launches"
	dbPermissions = 0600
	recordSize    = 16
)

// ErrClosed is returned when recording into a closed index
var ErrClosed = errors.New("run index is closed")

// Record is the launch history of one desktop file ID
type Record struct {
	Count   uint64
	LastRun time.Time
}

// Before reports whether r ranks below other: fewer launches, or as many
// launches but an older last launch.
func (r Record) Before(other Record) bool {
	if r.Count != other.Count {
		return r.Count < other.Count
	}
	return r.LastRun.Before(other.LastRun)
}

// RunIndex keeps launch history keyed by desktop file ID. IDs survive
// renames of the entry's Name and stay unique across search roots.
type RunIndex struct {
	mu sync.RWMutex
	db *bbolt.DB
}

// NewRunIndex opens the run index in the user cache directory
func NewRunIndex() (*RunIndex, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return NewRunIndexWithCacheDir(cacheDir)
}

// NewRunIndexWithCacheDir opens the run index under cacheDir/ade
func NewRunIndexWithCacheDir(cacheDir string) (*RunIndex, error) {
	dir := filepath.Join(cacheDir, "ade")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, dbFile), dbPermissions, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &RunIndex{db: db}, nil
}

// RecordLaunch counts one launch of id at time at
func (ri *RunIndex) RecordLaunch(id string, at time.Time) error {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	if ri.db == nil {
		return ErrClosed
	}

	return ri.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		rec := decode(b.Get([]byte(id)))
		rec.Count++
		if at.After(rec.LastRun) {
			rec.LastRun = at
		}
		return b.Put([]byte(id), encode(rec))
	})
}

// Records returns the launch history of ids. IDs never launched are
// absent from the result.
func (ri *RunIndex) Records(ids []string) map[string]Record {
	records := make(map[string]Record)
	if ri == nil {
		return records
	}
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	if ri.db == nil {
		return records
	}

	_ = ri.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		for _, id := range ids {
			if val := b.Get([]byte(id)); val != nil {
				records[id] = decode(val)
			}
		}
		return nil
	})
	return records
}

// Close closes the database. Calls in flight finish first, closing twice
// is a no-op.
func (ri *RunIndex) Close() error {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if ri.db == nil {
		return nil
	}
	err := ri.db.Close()
	ri.db = nil
	return err
}

// Values are a big-endian count followed by the last launch in unix
// nanoseconds. Count-only values from older indexes decode with a zero
// LastRun.
func encode(rec Record) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[:8], rec.Count)
	var last int64
	if !rec.LastRun.IsZero() {
		last = rec.LastRun.UnixNano()
	}
	binary.BigEndian.PutUint64(buf[8:], uint64(last))
	return buf
}

func decode(val []byte) Record {
	var rec Record
	if len(val) >= 8 {
		rec.Count = binary.BigEndian.Uint64(val[:8])
	}
	if len(val) >= recordSize {
		if last := int64(binary.BigEndian.Uint64(val[8:recordSize])); last != 0 {
			rec.LastRun = time.Unix(0, last)
		}
	}
	return rec
}
