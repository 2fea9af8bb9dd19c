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
	"context"
	"encoding/binary"
	"math"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/hashtable"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
)

func NewStrMap(hasNull bool, keyTypes []types.Type) (*StrHashMap, error) {
	if len(keyTypes) == 0 {
		return nil, moerr.NewInvalidInput(context.TODO(), "group map needs at least one key column")
	}
	m := &StrHashMap{
		hasNull:  hasNull,
		keyTypes: append([]types.Type{}, keyTypes...),
		hashMap:  &hashtable.StringHashMap{},
		uniques:  make([]*vector.Vector, len(keyTypes)),
	}
	m.hashMap.Init()
	for i, typ := range keyTypes {
		m.uniques[i] = vector.NewVec(typ)
	}
	return m, nil
}

func (m *StrHashMap) GroupCount() uint64 {
	return m.rows
}

// Consume inserts count rows of the key vectors and returns the group
// id of every row, 1-based. With hasNull unset, a row holding a null
// key gets id 0 and joins no group.
func (m *StrHashMap) Consume(vecs []*vector.Vector, count int) ([]uint64, error) {
	if len(vecs) != len(m.keyTypes) {
		return nil, moerr.NewInternalError(context.TODO(), "group map consume with %d key columns, want %d", len(vecs), len(m.keyTypes))
	}
	if cap(m.values) < count {
		m.values = make([]uint64, count)
	}
	values := m.values[:count]
	for row := 0; row < count; row++ {
		key, hasNull, err := m.encodeRow(vecs, row)
		if err != nil {
			return nil, err
		}
		if hasNull && !m.hasNull {
			values[row] = 0
			continue
		}
		id, isNew := m.hashMap.Insert(key)
		if isNew {
			m.rows++
			for i, vec := range vecs {
				if err := m.uniques[i].UnionOne(vec, int64(row)); err != nil {
					return nil, err
				}
			}
		}
		values[row] = id
	}
	return values, nil
}

// Uniques returns one key row per group id, in id order. The vectors are
// owned by the map and grow on later Consume calls.
func (m *StrHashMap) Uniques() []*vector.Vector {
	return m.uniques
}

func (m *StrHashMap) Free() {
	m.hashMap = nil
	m.uniques = nil
	m.values = nil
}

// encodeRow serializes row of the key vectors into m.keyBuf. Layout per
// column: a null marker byte, then the value. Variable length values are
// length-prefixed so adjacent columns cannot alias.
func (m *StrHashMap) encodeRow(vecs []*vector.Vector, row int) ([]byte, bool, error) {
	buf := m.keyBuf[:0]
	sawNull := false
	for _, vec := range vecs {
		if vec.IsNull(uint64(row)) {
			sawNull = true
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		switch vec.GetType().Oid {
		case types.T_bool:
			if vector.GetFixedAt[bool](vec, row) {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case types.T_int64:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(vector.GetFixedAt[int64](vec, row)))
		case types.T_float64:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(vector.GetFixedAt[float64](vec, row)))
		case types.T_varchar:
			s := vec.GetBytesAt(row)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
			buf = append(buf, s...)
		default:
			return nil, false, moerr.NewNYI(context.TODO(), "group key of type %s", vec.GetType())
		}
	}
	m.keyBuf = buf
	return buf, sawNull, nil
}
