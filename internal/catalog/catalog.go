// Package catalog tracks which source files have already been ingested into a store,
// so a repeated AddDocuments pass over a directory can skip files that have not
// changed since their last ingest.
package catalog

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	"github.com/localvector/vectorstore/internal/storeerr"
)

var bucketFiles = []byte("files")

// FileName is the catalog's on-disk filename within a store directory.
const FileName = "sync_catalog.db"

// Record is what the catalog remembers about one previously ingested source file.
type Record struct {
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Catalog is a bbolt-backed map of absolute source path to Record. Deleting the
// underlying file only forces a full re-ingest on next use; it never affects the
// canonical chunk records or vector index.
type Catalog struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, storeerr.Wrap(storeerr.NotAStore, "open sync catalog", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFiles)
		return err
	})
	if err != nil {
		db.Close()
		return nil, storeerr.Wrap(storeerr.NotAStore, "initialize sync catalog", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying bbolt database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Lookup returns the recorded state for path, if any.
func (c *Catalog) Lookup(path string) (Record, bool, error) {
	var rec Record
	var found bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(path))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, false, storeerr.Wrap(storeerr.CorruptRecord, "decode sync catalog entry for "+path, err)
	}
	return rec, found, nil
}

// UpToDate reports whether path's recorded mtime/size still match modTime/size,
// mirroring a plain mtime+size skip check before committing to a re-ingest.
func (c *Catalog) UpToDate(path string, modTime time.Time, size int64) (bool, error) {
	rec, found, err := c.Lookup(path)
	if err != nil || !found {
		return false, err
	}
	return rec.ModTime.Equal(modTime) && rec.Size == size, nil
}

// Put records path's current (mtime, size, chunk ids) after a successful ingest.
func (c *Catalog) Put(path string, modTime time.Time, size int64, chunkIDs []string) error {
	rec := Record{ModTime: modTime, Size: size, ChunkIDs: chunkIDs}
	data, err := json.Marshal(rec)
	if err != nil {
		return storeerr.Wrap(storeerr.InvalidInput, "encode sync catalog entry for "+path, err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(path), data)
	})
	if err != nil {
		return storeerr.Wrap(storeerr.NotAStore, "write sync catalog entry for "+path, err)
	}
	return nil
}

// Remove deletes path's catalog entry, returning the chunk IDs it had recorded so the
// caller can delete the corresponding chunk records before re-ingesting.
func (c *Catalog) Remove(path string) ([]string, error) {
	rec, found, err := c.Lookup(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete([]byte(path))
	})
	if err != nil {
		return nil, storeerr.Wrap(storeerr.NotAStore, "remove sync catalog entry for "+path, err)
	}
	return rec.ChunkIDs, nil
}
