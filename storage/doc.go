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


// Package storage provides the storage abstraction layer for navcache.
//
// This package defines the writer and reader interfaces that decouple the
// ingestion core from the backing key-value store, plus the binary
// serialization of stored values. The badger subpackage is the production
// backend; its in-memory mode backs tests.
//
// # Snapshot model
//
// Every published bulletin becomes a generation: a namespace of keys tagged
// with a generation number allocated from a sequence. A single pointer key
// identifies the generation being served. Publishing stages the whole new
// generation under its own (invisible) namespace and then swaps the pointer
// in one transaction, so readers never observe a mix of two snapshots.
// Superseded generations are reclaimed after they have been out of service
// for one full publish cycle.
//
// # Thread Safety
//
// All implementations must be thread-safe. Reads may run concurrently with
// an in-progress publish; they are served from the currently published
// generation and are never blocked by staging writes.
//
// # Context Support
//
// All interface methods accept context.Context for cancellation. A publish
// cancelled before the pointer swap discards the staged generation and
// leaves the live one untouched.
package storage
