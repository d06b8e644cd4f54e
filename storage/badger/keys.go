package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	episodeRecordPrefix = "epirec"
	episodeDatePrefix   = "epidate"
	summaryRecordPrefix = "sumrec"
	vectorRecordPrefix  = "vecrec"
)

// makeEpisodeKey generates a key for an episode record by its source ID.
func makeEpisodeKey(id string) []byte {
	return []byte(episodeRecordPrefix + ":" + id)
}

// makeEpisodeDateKey generates a composite key for the publish-date index.
// Format: prefix:timestamp:id. The timestamp is written in BigEndian order
// so lexicographic sort matches chronological order.
func makeEpisodeDateKey(published time.Time, id string) []byte {
	prefix := episodeDatePrefix + ":"
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(published.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makePartialEpisodeDateKey generates a partial key for date range queries.
func makePartialEpisodeDateKey(published time.Time) []byte {
	prefix := episodeDatePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(published.UnixMicro()))
	return buf
}

// makeSummaryKey generates a key for a summary record by episode ID.
func makeSummaryKey(episodeID string) []byte {
	return []byte(summaryRecordPrefix + ":" + episodeID)
}

// makeVectorKey generates a key for a vector entry.
// Format: prefix:episodeID:chunk. The chunk index is written in BigEndian
// order so entries for one episode iterate in chunk order, and all entries
// for one episode share a prefix for scans and deletes.
func makeVectorKey(episodeID string, chunk int) []byte {
	prefix := vectorRecordPrefix + ":" + episodeID + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(chunk))
	return buf
}

// makeVectorEpisodePrefix generates the scan prefix covering every vector
// entry of one episode.
func makeVectorEpisodePrefix(episodeID string) []byte {
	return []byte(vectorRecordPrefix + ":" + episodeID + ":")
}
