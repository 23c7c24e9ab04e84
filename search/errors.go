// Copyright 2025 Poiesic Systems
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


package search

import "errors"

var (
	// ErrParserRequired is returned when a query parser is not provided.
	ErrParserRequired = errors.New("query parser required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrQueryTooShort is returned for queries under MinQueryLength characters.
	ErrQueryTooShort = errors.New("query too short")

	// ErrQueryTooLong is returned for queries over MaxQueryLength characters.
	ErrQueryTooLong = errors.New("query too long")
)
