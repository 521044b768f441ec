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


// Package queryops classifies compact search-DSL tokens into engine-routing
// decisions.
//
// The grammar is a declarative table mapping literal token patterns to a
// three-way operator taxonomy (SUBJECT, OBJECT, LOCATION), with LOCATION
// further split into temporal, geographic, textual, address, format and
// category dimensions. Detection is multi-label: every rule is evaluated
// independently against the query.
//
// Each matched operator contributes engine codes to the per-layer dispatch
// sets and one module route used for observability. A query matching no
// rules is not an error; it routes to a single default execution event.
package queryops
