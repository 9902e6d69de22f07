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


// Package search provides ranked name search over the published snapshot.
//
// The Searcher type combines two lexical signals per query token:
//   - exact token matches against the snapshot's search index
//   - prefix matches, which make the search behave like autocomplete
//
// Candidates are scored by how many query tokens they match and by which
// signals hit, with a verbatim boost when every query token appears in
// the candidate name. The index itself is rebuilt whole on every
// snapshot publish, so results never contain stale entries.
package search
