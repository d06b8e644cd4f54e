package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
)

// EpisodeRepository implements storage.EpisodeRepository for BadgerDB.
type EpisodeRepository struct {
	backend *Backend
}

var _ storage.EpisodeRepository = (*EpisodeRepository)(nil)

// NewEpisodeRepository creates a new EpisodeRepository.
func NewEpisodeRepository(backend *Backend) (storage.EpisodeRepository, error) {
	return &EpisodeRepository{backend: backend}, nil
}

// Close releases repository resources. The shared backend is closed separately.
func (r *EpisodeRepository) Close() error {
	return nil
}

// PutEpisode inserts or replaces an episode record.
func (r *EpisodeRepository) PutEpisode(ctx context.Context, episode *core.Episode) error {
	if err := core.ValidateEpisode(episode); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEpisodeKey(episode.Id)

		old, err := r.readEpisode(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			episode.DiscoveredAt = old.DiscoveredAt
			// Drop the old date index entry if the publish time moved
			if !old.PublishedAt.Equal(episode.PublishedAt) {
				if err := tx.Delete(makeEpisodeDateKey(old.PublishedAt, old.Id)); err != nil {
					return err
				}
			}
		} else if episode.DiscoveredAt.IsZero() {
			episode.DiscoveredAt = now
		}
		episode.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalEpisode(episode)); err != nil {
			return err
		}
		if err := tx.Set(makeEpisodeDateKey(episode.PublishedAt, episode.Id), []byte(episode.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEpisode retrieves an episode by its source-derived identifier.
func (r *EpisodeRepository) GetEpisode(ctx context.Context, id string) (*core.Episode, error) {
	var result *core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readEpisode(tx, makeEpisodeKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// HasEpisode reports whether an episode exists.
func (r *EpisodeRepository) HasEpisode(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEpisodeKey(id))
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

// Transition atomically moves an episode from one state to another.
// The read-check-write happens inside a single read-write transaction, so a
// concurrent run attempting the same claim observes ErrStateConflict (or a
// Badger conflict on commit) rather than proceeding.
func (r *EpisodeRepository) Transition(ctx context.Context, id string, from, to core.EpisodeState) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEpisodeKey(id)
		episode, err := r.readEpisode(tx, key)
		if err != nil {
			return err
		}
		if episode == nil {
			return storage.ErrNotFound
		}
		if episode.State != from {
			return storage.ErrStateConflict
		}
		if err := core.ValidateTransition(from, to); err != nil {
			return err
		}

		episode.State = to
		if from == core.StateFailed {
			// Re-claiming a failed episode clears the old failure
			episode.FailedStage = ""
			episode.LastError = ""
		}
		episode.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalEpisode(episode)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkFailed atomically moves an episode to StateFailed, recording the
// failing stage and error message.
func (r *EpisodeRepository) MarkFailed(ctx context.Context, id, stage, message string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEpisodeKey(id)
		episode, err := r.readEpisode(tx, key)
		if err != nil {
			return err
		}
		if episode == nil {
			return storage.ErrNotFound
		}
		if err := core.ValidateTransition(episode.State, core.StateFailed); err != nil {
			return err
		}

		episode.State = core.StateFailed
		episode.FailedStage = stage
		episode.LastError = message
		episode.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalEpisode(episode)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListRecent retrieves up to limit episodes ordered by publish time descending.
func (r *EpisodeRepository) ListRecent(ctx context.Context, limit int) ([]*core.Episode, error) {
	return r.listRecentFiltered(limit, nil)
}

// ListByState retrieves episodes currently in the given state, ordered by
// publish time descending.
func (r *EpisodeRepository) ListByState(ctx context.Context, state core.EpisodeState, limit int) ([]*core.Episode, error) {
	return r.listRecentFiltered(limit, func(e *core.Episode) bool {
		return e.State == state
	})
}

// listRecentFiltered walks the date index in reverse and collects episodes
// that pass the filter, up to limit.
func (r *EpisodeRepository) listRecentFiltered(limit int, keep func(*core.Episode) bool) ([]*core.Episode, error) {
	var results []*core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key with the date prefix
		startKey := makePartialEpisodeDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(episodeDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var episodeID string
			if err := iter.Item().Value(func(val []byte) error {
				episodeID = string(val)
				return nil
			}); err != nil {
				return err
			}

			episode, err := r.readEpisode(tx, makeEpisodeKey(episodeID))
			if err != nil {
				return err
			}
			if episode == nil {
				continue
			}
			if keep != nil && !keep(episode) {
				continue
			}
			results = append(results, episode)
		}
		return nil
	}, false)

	return results, err
}

// ListPublishedSince retrieves episodes with PublishedAt >= since, ordered
// by publish time descending.
func (r *EpisodeRepository) ListPublishedSince(ctx context.Context, since time.Time) ([]*core.Episode, error) {
	var results []*core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialEpisodeDateKey(since)
		prefix := []byte(episodeDatePrefix + ":")

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var episodeID string
			if err := iter.Item().Value(func(val []byte) error {
				episodeID = string(val)
				return nil
			}); err != nil {
				return err
			}

			episode, err := r.readEpisode(tx, makeEpisodeKey(episodeID))
			if err != nil {
				return err
			}
			if episode != nil {
				results = append(results, episode)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Index iteration is ascending; callers want newest first
	slices.Reverse(results)
	return results, nil
}

// readEpisode reads and deserializes an episode record inside a transaction.
// Returns nil (no error) when the key doesn't exist.
func (r *EpisodeRepository) readEpisode(tx *badger.Txn, key []byte) (*core.Episode, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var episode *core.Episode
	err = item.Value(func(val []byte) error {
		var err error
		episode, err = storage.UnmarshalEpisode(val)
		return err
	})
	return episode, err
}
