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


// Package recall plans per-round search strategy.
//
// The Planner builds each round's Strategy in three layers: a mode baseline
// (maximum, balanced or precision), a filtering-level threshold adjustment,
// and a search-type specialization gated by round number. It also owns the
// continuation gate consulted between rounds, relevance scoring of
// individual results, and the schedule of fallback query formulations that
// unlock as rounds progress.
package recall
