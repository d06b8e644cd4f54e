package badger

import (
	"github.com/poiesic/podsight/storage"
)

// Repositories bundles the three stores sharing one backend.
type Repositories struct {
	Backend   *Backend
	Episodes  storage.EpisodeRepository
	Summaries storage.SummaryRepository
	Vectors   storage.VectorRepository
}

// Close closes the shared backend.
func (r *Repositories) Close() error {
	return r.Backend.Close()
}

// NewMemoryRepositories opens an in-memory backend with all three
// repositories wired to it. Intended for tests.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	episodes, err := NewEpisodeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	summaries, err := NewSummaryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	vectors, err := NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Repositories{
		Backend:   backend,
		Episodes:  episodes,
		Summaries: summaries,
		Vectors:   vectors,
	}, nil
}
