// Package bbolt implements the ports.RunStore interface using bbolt (embedded B+ tree).
// Runs live under the "runs" bucket with one sub-bucket per system name. Keys sort
// chronologically, so listing newest-first is a reverse cursor walk. Writes are
// transactional: a crash mid-write cannot corrupt previously committed data.
package bbolt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/mamdani/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketRuns = []byte("runs")
)

// Store implements ports.RunStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.RunStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun appends one run under rec.System.
func (s *Store) SaveRun(rec *ports.RunRecord) error {
	if rec == nil {
		return fmt.Errorf("nil run record")
	}
	if rec.System == "" || rec.ID == "" {
		return fmt.Errorf("run record needs a system and an id")
	}

	data, err := encodeRun(rec)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		sb, err := runs.CreateBucketIfNotExists([]byte(rec.System))
		if err != nil {
			return err
		}
		return sb.Put(runKey(rec), data)
	})
}

// ListRuns returns up to limit runs for a system, newest first.
// An empty system merges every system.
func (s *Store) ListRuns(system string, limit int) ([]*ports.RunRecord, error) {
	var out []*ports.RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		if system != "" {
			sb := runs.Bucket([]byte(system))
			if sb == nil {
				return nil
			}
			recs, err := newestFirst(sb, limit)
			out = recs
			return err
		}
		return runs.ForEachBucket(func(name []byte) error {
			recs, err := newestFirst(runs.Bucket(name), limit)
			if err != nil {
				return fmt.Errorf("system %s: %w", name, err)
			}
			out = append(out, recs...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if system == "" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].At > out[j].At })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

// newestFirst walks a system bucket backwards. Decoding copies out of the
// transaction (bbolt slices are only valid within tx).
func newestFirst(b *bolt.Bucket, limit int) ([]*ports.RunRecord, error) {
	var out []*ports.RunRecord
	c := b.Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec, err := decodeRun(v)
		if err != nil {
			at, _ := runKeyTime(k)
			return nil, fmt.Errorf("decode run at %d: %w", at, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// PruneRuns keeps only the newest keep runs of a system.
func (s *Store) PruneRuns(system string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		sb := runs.Bucket([]byte(system))
		if sb == nil {
			return nil
		}
		// Collect first: deleting under a moving cursor can skip keys.
		var keys [][]byte
		c := sb.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		excess := len(keys) - keep
		for i := 0; i < excess; i++ {
			if err := sb.Delete(keys[i]); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteRuns removes all runs for a system, or every system when empty.
// Idempotent: deleting a nonexistent system is not an error.
func (s *Store) DeleteRuns(system string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if system == "" {
			if err := tx.DeleteBucket(bucketRuns); errors.Is(err, bolt.ErrBucketNotFound) {
				return nil // idempotent
			} else {
				return err
			}
		}
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		if err := runs.DeleteBucket([]byte(system)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		} else {
			return err
		}
	})
}
