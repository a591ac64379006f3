package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"rydm/internal/domain"
	"rydm/internal/ports"

	"go.etcd.io/bbolt"
)

var (
	historyBucket = []byte("history")
	// indexBucket maps a track ID to its current key in historyBucket.
	indexBucket = []byte("history_index")
)

type BboltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStore(dbPath string) (ports.StorageService, error) {
	return openBboltStore(dbPath, time.Now)
}

func openBboltStore(dbPath string, now func() time.Time) (*BboltStore, error) {
	options := &bbolt.Options{Timeout: 1 * time.Second}
	db, err := bbolt.Open(dbPath, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{historyBucket, indexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create history buckets: %w", err)
	}

	return &BboltStore{db: db, now: now}, nil
}

// Keys sort by play time; the track ID suffix keeps keys unique when two
// plays share a timestamp.
func historyKey(t time.Time, trackID string) []byte {
	return []byte(fmt.Sprintf("%s|%s", t.UTC().Format("2006-01-02T15:04:05.000000000Z"), trackID))
}

func deleteEntry(tx *bbolt.Tx, trackID string) error {
	idx := tx.Bucket(indexBucket)
	old := idx.Get([]byte(trackID))
	if old == nil {
		return nil
	}
	if err := tx.Bucket(historyBucket).Delete(old); err != nil {
		return err
	}
	return idx.Delete([]byte(trackID))
}

// AddToHistory records a full play, moving an already known track to the
// front instead of duplicating it.
func (s *BboltStore) AddToHistory(entry domain.HistoryEntry) error {
	if entry.Track.ID == "" {
		return fmt.Errorf("history entry without track id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteEntry(tx, entry.Track.ID); err != nil {
			return err
		}

		entry.PlayedAt = s.now()
		key := historyKey(entry.PlayedAt, entry.Track.ID)

		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("error serializing history entry: %w", err)
		}

		if err := tx.Bucket(historyBucket).Put(key, value); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Put([]byte(entry.Track.ID), key)
	})
}

func (s *BboltStore) DeleteFromHistory(trackIDs ...string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, id := range trackIDs {
			if err := deleteEntry(tx, id); err != nil {
				return fmt.Errorf("could not delete %s from history: %w", id, err)
			}
		}
		return nil
	})
}

// GetHistory returns up to limit entries, most recent first.
func (s *BboltStore) GetHistory(limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()

		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry domain.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("error deserializing history entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}
