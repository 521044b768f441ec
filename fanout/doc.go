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


// Package fanout implements the streaming search orchestrator.
//
// A run moves through four phases: derive the query variants and phrase
// filter; dispatch one rate-limited task per engine (plus a corpus task when
// in scope) on a bounded worker pool each round; merge results through a
// mutex-guarded dedup map keyed by normalized URL while streaming results
// and progress events in completion order; and finally stop the background
// index writer with a bounded join and emit one terminal complete event.
//
// At aggressiveness level 3, or when the query carries the +anchor token,
// each round ends with an anchor-expansion gather: newly accepted results
// from allow-listed categories claim their domain in a capped seen-domains
// cache and trigger one site-scoped follow-up search per domain.
//
// An Orchestrator drives one run at a time against one writer; the writer
// is stopped when the run finalizes. Individual engine failures are reported
// to the rate limiter and recorded in run statistics, never aborting the run.
package fanout
