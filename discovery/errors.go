package discovery

import "errors"

var (
	// ErrEpisodeRepositoryRequired is returned when an episode repository is not provided.
	ErrEpisodeRepositoryRequired = errors.New("episode repository required")

	// ErrSummaryRepositoryRequired is returned when a summary repository is not provided.
	ErrSummaryRepositoryRequired = errors.New("summary repository required")

	// ErrAcquirerRequired is returned when a transcript acquirer is not provided.
	ErrAcquirerRequired = errors.New("transcript acquirer required")

	// ErrExtractorRequired is returned when an insight extractor is not provided.
	ErrExtractorRequired = errors.New("insight extractor required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrSourceRequired is returned when no episode source is provided.
	ErrSourceRequired = errors.New("episode source required")

	// ErrNoFeeds is returned when a feed source is created without feed URLs.
	ErrNoFeeds = errors.New("at least one feed URL required")
)
