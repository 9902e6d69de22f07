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


package bulletin

import "errors"

var (
	// ErrFetch indicates the bulletin source was unreachable, timed out,
	// or answered with a non-success status.
	ErrFetch = errors.New("bulletin fetch failed")

	// ErrStructuralParse indicates the payload yielded zero parsable rows:
	// the bulletin shape changed or the source returned an empty document.
	ErrStructuralParse = errors.New("bulletin has no parsable rows")
)
