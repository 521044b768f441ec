// Copyright 2025 Dragnet Authors
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


// Package storage defines the uniform backend operation set and the router
// that fronts a primary/secondary backend pair.
//
// Every backend implements the same nine operations (see Backend), so the
// router can dispatch any Request through a single operation table. The
// router adds automatic failover with a single retry, best-effort dual
// indexing of writes, a parallel dual-write path, health probing, and
// capability degradation for backends that lack vector or hybrid search.
//
// Concrete backends live in subpackages: badger (primary, embedded KV with
// posting-list and vector indexes) and sqlite (secondary, relational).
package storage
