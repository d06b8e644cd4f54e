package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
)

// SummaryRepository implements storage.SummaryRepository for BadgerDB.
type SummaryRepository struct {
	backend *Backend
}

var _ storage.SummaryRepository = (*SummaryRepository)(nil)

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(backend *Backend) (storage.SummaryRepository, error) {
	return &SummaryRepository{backend: backend}, nil
}

// Close releases repository resources. The shared backend is closed separately.
func (r *SummaryRepository) Close() error {
	return nil
}

// PutSummary inserts or replaces the summary record for an episode.
// Re-extraction overwrites; there is at most one summary per episode.
func (r *SummaryRepository) PutSummary(ctx context.Context, record *core.SummaryRecord) error {
	if err := core.ValidateSummaryRecord(record); err != nil {
		return err
	}
	if record.GeneratedAt.IsZero() {
		record.GeneratedAt = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSummaryKey(record.EpisodeId), storage.MarshalSummaryRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSummary retrieves the summary record for an episode.
func (r *SummaryRepository) GetSummary(ctx context.Context, episodeID string) (*core.SummaryRecord, error) {
	var result *core.SummaryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(episodeID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalSummaryRecord(val)
			return err
		})
	}, false)
	return result, err
}

// HasSummary reports whether a summary exists for an episode.
func (r *SummaryRepository) HasSummary(ctx context.Context, episodeID string) (bool, error) {
	found := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeSummaryKey(episodeID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}

// DeleteSummary removes the summary record for an episode. Deleting a
// missing summary is not an error.
func (r *SummaryRepository) DeleteSummary(ctx context.Context, episodeID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSummaryKey(episodeID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
