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


// Package ai defines the embedding and categorization interfaces consumed by
// the indexing pipeline, along with their shared configuration.
//
// Concrete implementations live in subpackages: openai provides model-backed
// services over any OpenAI-compatible API, and mock provides deterministic
// test doubles. The rule-based HeuristicCategorizer in this package serves
// as the offline fallback.
//
// All AI services are best-effort collaborators: a failed embedding or
// categorization is logged and skipped, never fatal to a search run.
package ai
