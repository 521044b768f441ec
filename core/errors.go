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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidQuery indicates a Query failed validation.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyQuery indicates the query text is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrQueryTooLong indicates the query text exceeds the maximum length.
	ErrQueryTooLong = errors.New("query exceeds maximum length")

	// ErrInvalidLevel indicates an aggressiveness level outside 1-3.
	ErrInvalidLevel = errors.New("aggressiveness level must be between 1 and 3")

	// ErrInvalidScope indicates an invalid Scope value.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrEmptyURL indicates a result URL is empty or has no host.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidResult indicates a SearchResult failed validation.
	ErrInvalidResult = errors.New("invalid search result")
)
