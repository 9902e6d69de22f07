// Copyright 2026 Fundwatch Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceRequired is returned when no bulletin source is provided.
	ErrSourceRequired = errors.New("bulletin source is required")
	// ErrWriterRequired is returned when no snapshot writer is provided.
	ErrWriterRequired = errors.New("snapshot writer is required")
	// ErrIngestionInProgress is returned when a refresh is requested
	// while another one is still running.
	ErrIngestionInProgress = errors.New("an ingestion run is already in progress")
	// ErrEmptyBulletin is returned when a bulletin parses cleanly but
	// yields no usable fund records.
	ErrEmptyBulletin = errors.New("bulletin contains no usable fund records")
)

// Stage identifies the phase of a refresh run, for status reporting and
// error attribution.
const (
	StageIdle        = "idle"
	StageFetching    = "fetching"
	StageParsing     = "parsing"
	StageNormalizing = "normalizing"
	StageBuilding    = "building"
	StagePublishing  = "publishing"
)

// StageError wraps a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
