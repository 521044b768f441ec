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

import (
	"fmt"
	"unicode/utf8"
)

// MaxQueryLength is the maximum accepted length of a raw query in runes.
const MaxQueryLength = 1024

// ValidateQuery validates a Query according to domain rules.
//
// Validation rules:
//   - Raw must not be empty and must fit within MaxQueryLength runes
//   - Level must be between 1 and 3
//   - Scope must be a valid enum value
//
// NOT validated (derived by the orchestrator during INIT):
//   - Concrete/Web (may equal Raw when no macros are present)
//   - ExactPhrases (empty when the query carries no quoted phrases)
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if q.Raw == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}

	if utf8.RuneCountInString(q.Raw) > MaxQueryLength {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrQueryTooLong)
	}

	if q.Level < 1 || q.Level > 3 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidQuery, ErrInvalidLevel, q.Level)
	}

	if err := ValidateScope(q.Scope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return nil
}

// ValidateScope validates that a Scope has a valid value.
func ValidateScope(scope Scope) error {
	if scope != ScopeWeb && scope != ScopeCorpus && scope != ScopeBoth {
		return fmt.Errorf("%w: value %d", ErrInvalidScope, scope)
	}
	return nil
}

// ValidateResult validates a SearchResult before it enters the dedup map.
func ValidateResult(r *SearchResult) error {
	if r == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidResult)
	}
	if r.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidResult, ErrEmptyURL)
	}
	return nil
}
