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


// Package storage provides the storage abstraction layer for podsight.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, allowing different backends
// (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Architecture
//
// Three repositories cover the system's state:
//
//   - EpisodeRepository: episode metadata and pipeline state, including the
//     atomic state transitions used to claim episodes
//   - SummaryRepository: the system of record for extracted summaries,
//     exactly one current record per episode
//   - VectorRepository: the vector index, a derived and rebuildable
//     projection of the summary store
//
// Ownership is deliberate: the summary store is authoritative, and any
// disagreement with the vector index is resolved by re-running indexing
// from the store (see the reindex package), never the other way around.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces to
// enforce abstraction:
//
//	repo, err := badger.NewEpisodeRepository(backend)  // storage.EpisodeRepository
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Transition and MarkFailed
// must be atomic with respect to concurrent callers.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
