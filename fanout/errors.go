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


package fanout

import "errors"

var (
	// ErrRegistryRequired indicates construction without an engine registry.
	ErrRegistryRequired = errors.New("engine registry is required")

	// ErrLimiterRequired indicates construction without a rate limiter.
	ErrLimiterRequired = errors.New("rate limiter is required")

	// ErrMatcherRequired indicates construction without a phrase matcher.
	ErrMatcherRequired = errors.New("phrase matcher is required")

	// ErrExpanderRequired indicates construction without a query expander.
	ErrExpanderRequired = errors.New("query expander is required")

	// ErrPlannerRequired indicates construction without a recall planner.
	ErrPlannerRequired = errors.New("recall planner is required")

	// ErrWriterRequired indicates construction without an index writer.
	ErrWriterRequired = errors.New("index writer is required")

	// ErrCorpusRequired indicates a corpus-scoped run without a corpus searcher.
	ErrCorpusRequired = errors.New("corpus searcher is required for corpus scope")
)
