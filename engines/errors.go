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


package engines

import "errors"

var (
	// ErrEmptyCode indicates a descriptor with no source code.
	ErrEmptyCode = errors.New("engine code cannot be empty")

	// ErrNilAdapter indicates a descriptor without an adapter.
	ErrNilAdapter = errors.New("engine adapter required")

	// ErrDuplicateCode indicates two descriptors sharing a source code.
	ErrDuplicateCode = errors.New("duplicate engine code")
)
