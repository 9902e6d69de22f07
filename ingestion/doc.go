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

// Package ingestion orchestrates a full bulletin refresh: fetch the raw
// dump, parse and normalize it, assemble a snapshot, and publish it
// atomically. A pipeline runs at most one refresh at a time; a second
// call while one is in flight fails fast with ErrIngestionInProgress.
package ingestion
