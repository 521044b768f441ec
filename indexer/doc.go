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


// Package indexer runs the background index writer: a single consumer
// goroutine that batches accepted search results off a bounded channel and
// flushes them to independent sinks.
//
// Flushing is size-or-age driven: a batch goes out as soon as it holds five
// documents, or once it has aged past two seconds. Every sink receives every
// batch; one sink's failure never affects another, and a failing batch is
// discarded rather than retried at the writer level (sinks retry internally).
package indexer
