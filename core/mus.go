// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain records persisted by the storage layer.
// These are maintained by hand, field by field in declaration order, so a
// field added to a struct must also be added to its serializer (and covered
// by the round-trip tests).
var (
	IDMUS            = idMUS{}
	EpisodeMUS       = episodeMUS{}
	SummaryRecordMUS = summaryRecordMUS{}
	VectorEntryMUS   = vectorEntryMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// Timestamps are stored as Unix nanoseconds so a write-then-read reproduces
// the value exactly, including the sub-microsecond part of time.Now(). The
// zero time maps to zero nanos so unset timestamps survive a round trip.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeNano(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || v == 0 {
		return time.Time{}, n, err
	}
	return time.Unix(0, v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeNano(t))
}

func timeNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	// Corrupt data must fail here, not panic in make or overrun bs.
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, fmt.Errorf("invalid vector length %d", length)
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var (
			f float32
			m int
		)
		f, m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type episodeMUS struct{}

func (episodeMUS) Marshal(v Episode, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Channel, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += marshalTime(v.PublishedAt, bs[n:])
	n += varint.Int64.Marshal(int64(v.Duration), bs[n:])
	n += ord.String.Marshal(v.TranscriptRef, bs[n:])
	n += varint.Int.Marshal(int(v.State), bs[n:])
	n += ord.String.Marshal(v.FailedStage, bs[n:])
	n += ord.String.Marshal(v.LastError, bs[n:])
	n += marshalTime(v.DiscoveredAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (episodeMUS) Unmarshal(bs []byte) (v Episode, n int, err error) {
	var m int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Channel, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.URL, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.PublishedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var dur int64
	if dur, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Duration = time.Duration(dur)
	n += m
	if v.TranscriptRef, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var state int
	if state, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.State = EpisodeState(state)
	n += m
	if v.FailedStage, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.LastError, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.DiscoveredAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (episodeMUS) Size(v Episode) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Channel)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.URL)
	size += sizeTime(v.PublishedAt)
	size += varint.Int64.Size(int64(v.Duration))
	size += ord.String.Size(v.TranscriptRef)
	size += varint.Int.Size(int(v.State))
	size += ord.String.Size(v.FailedStage)
	size += ord.String.Size(v.LastError)
	size += sizeTime(v.DiscoveredAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type insightItemMUS struct{}

func (insightItemMUS) Marshal(v InsightItem, bs []byte) (n int) {
	n = ord.String.Marshal(v.Category, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int64.Marshal(int64(v.Offset), bs[n:])
	return n
}

func (insightItemMUS) Unmarshal(bs []byte) (v InsightItem, n int, err error) {
	var m int
	if v.Category, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var off int64
	if off, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Offset = time.Duration(off)
	n += m
	return v, n, nil
}

func (insightItemMUS) Size(v InsightItem) int {
	return ord.String.Size(v.Category) + ord.String.Size(v.Text) +
		varint.Int64.Size(int64(v.Offset))
}

type summaryRecordMUS struct{}

func (summaryRecordMUS) Marshal(v SummaryRecord, bs []byte) (n int) {
	item := insightItemMUS{}
	n = ord.String.Marshal(v.EpisodeId, bs)
	n += varint.Int.Marshal(len(v.Insights), bs[n:])
	for _, ins := range v.Insights {
		n += item.Marshal(ins, bs[n:])
	}
	n += marshalTime(v.GeneratedAt, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	return n
}

func (summaryRecordMUS) Unmarshal(bs []byte) (v SummaryRecord, n int, err error) {
	item := insightItemMUS{}
	var m int
	if v.EpisodeId, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	var count int
	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if count > 0 {
		v.Insights = make([]InsightItem, count)
		for i := 0; i < count; i++ {
			if v.Insights[i], m, err = item.Unmarshal(bs[n:]); err != nil {
				return v, n + m, err
			}
			n += m
		}
	}
	if v.GeneratedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Model, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (summaryRecordMUS) Size(v SummaryRecord) (size int) {
	item := insightItemMUS{}
	size = ord.String.Size(v.EpisodeId)
	size += varint.Int.Size(len(v.Insights))
	for _, ins := range v.Insights {
		size += item.Size(ins)
	}
	size += sizeTime(v.GeneratedAt)
	size += ord.String.Size(v.Model)
	return size
}

type vectorEntryMUS struct{}

func (vectorEntryMUS) Marshal(v VectorEntry, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.EpisodeId, bs[n:])
	n += varint.Int.Marshal(v.Chunk, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Snippet, bs[n:])
	return n
}

func (vectorEntryMUS) Unmarshal(bs []byte) (v VectorEntry, n int, err error) {
	var m int
	var id uint64
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return v, n, err
	}
	v.Id = ID(id)
	if v.EpisodeId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Chunk, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Snippet, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (vectorEntryMUS) Size(v VectorEntry) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.EpisodeId)
	size += varint.Int.Size(v.Chunk)
	size += sizeVector(v.Vector)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Snippet)
	return size
}
