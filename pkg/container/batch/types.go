// Copyright 2023 ColStream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batch

import (
	"github.com/colstream/colstream/pkg/container/vector"
)

// Batch is a set of vectors sharing one row count. Once pushed into a
// plan a batch is immutable.
type Batch struct {
	// Attrs are the column names, parallel to Vecs.
	Attrs []string
	Vecs  []*vector.Vector

	rowCount int
}

// EmptyBatch is a batch with no columns and no rows.
var EmptyBatch = &Batch{}

// encodeBatch mirrors Batch for serialization, used by the disk spool.
type encodeBatch struct {
	RowCount int
	Attrs    []string
	Vecs     [][]byte
}
