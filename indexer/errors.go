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


package indexer

import "errors"

var (
	// ErrSinkRequired indicates the writer was built without any sinks.
	ErrSinkRequired = errors.New("at least one sink is required")

	// ErrRouterRequired indicates a sink was built without a router.
	ErrRouterRequired = errors.New("storage router is required")

	// ErrEmbedderRequired indicates the vector sink was built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrWriterStopped indicates an enqueue after the writer was stopped.
	ErrWriterStopped = errors.New("writer is stopped")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
