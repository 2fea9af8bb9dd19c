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

package hashmap

import (
	"github.com/colstream/colstream/pkg/container/hashtable"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
)

const (
	UnitLimit = 256
)

// StrHashMap assigns dense group ids to rows of key columns. Keys are
// serialized per row into a byte string before probing, so any mix of
// key types goes through the one table.
//
// Ids start at 1 and never change once assigned. Uniques keeps one key
// row per id, in id order, which is what a downstream merge feeds to
// another map to obtain a transposition.
type StrHashMap struct {
	hasNull  bool
	rows     uint64
	keyTypes []types.Type

	hashMap *hashtable.StringHashMap
	uniques []*vector.Vector

	// scratch to avoid per-row allocation
	keyBuf []byte
	values []uint64
}
