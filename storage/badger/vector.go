package badger

import (
	"bytes"
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/podsight/core"
	"github.com/poiesic/podsight/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Queries are an exact cosine scan over every stored entry; at the scale of
// one summary store this beats maintaining an approximate index.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) (storage.VectorRepository, error) {
	return &VectorRepository{backend: backend}, nil
}

// Close releases repository resources. The shared backend is closed separately.
func (r *VectorRepository) Close() error {
	return nil
}

// Upsert inserts or replaces vector entries. Entries are keyed by episode and
// chunk index, so re-indexing an episode overwrites in place.
func (r *VectorRepository) Upsert(ctx context.Context, entries ...*core.VectorEntry) error {
	for _, entry := range entries {
		if entry.EpisodeId == "" {
			return core.ErrEmptyEpisodeID
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeVectorKey(entry.EpisodeId, entry.Chunk)
			if err := tx.Set(key, storage.MarshalVectorEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteEpisode removes every vector entry for an episode.
func (r *VectorRepository) DeleteEpisode(ctx context.Context, episodeID string) error {
	return r.deleteFrom(episodeID, 0)
}

// DeleteFromChunk removes vector entries for an episode starting at the
// given chunk index. Re-indexing uses this to prune the stale tail when a
// summary now produces fewer chunks than before.
func (r *VectorRepository) DeleteFromChunk(ctx context.Context, episodeID string, from int) error {
	return r.deleteFrom(episodeID, from)
}

func (r *VectorRepository) deleteFrom(episodeID string, from int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVectorEpisodePrefix(episodeID)

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)

		var stale [][]byte
		for iter.Seek(makeVectorKey(episodeID, from)); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			stale = append(stale, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// EntriesForEpisode retrieves every vector entry for an episode in chunk order.
func (r *VectorRepository) EntriesForEpisode(ctx context.Context, episodeID string) ([]*core.VectorEntry, error) {
	var results []*core.VectorEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVectorEpisodePrefix(episodeID)

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}
			if err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalVectorEntry(val)
				if err != nil {
					return err
				}
				results = append(results, entry)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	return results, err
}

// Query scans all vector entries and returns up to topK matches with cosine
// similarity >= minScore, ordered by score descending. Stored vectors and the
// query vector are expected to be normalized, so the dot product is the
// cosine similarity.
func (r *VectorRepository) Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.VectorMatch, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var matches []*core.VectorMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(vectorRecordPrefix + ":")

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}
			if err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalVectorEntry(val)
				if err != nil {
					return err
				}
				if len(entry.Vector) != len(vector) {
					return nil
				}
				score := dotProduct(vector, entry.Vector)
				if score >= minScore {
					matches = append(matches, &core.VectorMatch{Entry: entry, Score: score})
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
