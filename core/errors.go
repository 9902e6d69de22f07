// Copyright 2026 Fundwatch Labs
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
	// ErrInvalidRecord indicates a bulletin row failed normalization.
	ErrInvalidRecord = errors.New("invalid fund record")

	// ErrMissingSchemeCode indicates the scheme code field is empty.
	ErrMissingSchemeCode = errors.New("scheme code cannot be empty")

	// ErrMissingSchemeName indicates the scheme name field is empty.
	ErrMissingSchemeName = errors.New("scheme name cannot be empty")

	// ErrMissingFundHouse indicates a row appeared before any fund house header.
	ErrMissingFundHouse = errors.New("row has no fund house context")

	// ErrMalformedValue indicates a numeric field is neither a valid
	// non-negative decimal nor a recognized not-available placeholder.
	ErrMalformedValue = errors.New("malformed numeric value")
)
