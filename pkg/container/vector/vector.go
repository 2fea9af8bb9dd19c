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

package vector

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/nulls"
	"github.com/colstream/colstream/pkg/container/types"
)

// Vector represents one column of a batch. The values live in col, which
// holds []int64, []float64, []bool or [][]byte depending on the type.
// A Vector built by Window shares col with its parent and must be treated
// as read-only.
type Vector struct {
	typ    types.Type
	nsp    *nulls.Nulls
	col    any
	length int
}

func NewVec(typ types.Type) *Vector {
	v := &Vector{typ: typ, nsp: &nulls.Nulls{}}
	switch typ.Oid {
	case types.T_bool:
		v.col = []bool{}
	case types.T_int64:
		v.col = []int64{}
	case types.T_float64:
		v.col = []float64{}
	case types.T_varchar:
		v.col = [][]byte{}
	}
	return v
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) SetLength(n int) {
	v.length = n
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) IsNull(row uint64) bool {
	return nulls.Contains(v.nsp, row)
}

// MustFixedCol returns the typed value slice of a fixed-length vector.
// Panics if T does not match the vector type.
func MustFixedCol[T any](v *Vector) []T {
	if v.col == nil {
		return nil
	}
	return v.col.([]T)
}

func MustBytesCol(v *Vector) [][]byte {
	if v.col == nil {
		return nil
	}
	return v.col.([][]byte)
}

func GetFixedAt[T any](v *Vector, row int) T {
	return v.col.([]T)[row]
}

func (v *Vector) GetBytesAt(row int) []byte {
	return v.col.([][]byte)[row]
}

// AppendFixed appends one value. A null still occupies a slot, holding
// the zero value.
func AppendFixed[T any](v *Vector, val T, isNull bool) error {
	col, ok := v.col.([]T)
	if !ok {
		return moerr.NewInternalError(context.TODO(), "append to %s vector with wrong value type", v.typ)
	}
	if isNull {
		var zero T
		val = zero
		v.nsp.Set(uint64(v.length))
	}
	v.col = append(col, val)
	v.length++
	return nil
}

func AppendFixedList[T any](v *Vector, vals []T, nsp *nulls.Nulls) error {
	col, ok := v.col.([]T)
	if !ok {
		return moerr.NewInternalError(context.TODO(), "append to %s vector with wrong value type", v.typ)
	}
	if nsp != nil && nsp.Any() {
		for _, row := range nsp.ToArray() {
			v.nsp.Set(uint64(v.length) + row)
		}
	}
	v.col = append(col, vals...)
	v.length += len(vals)
	return nil
}

func AppendBytes(v *Vector, val []byte, isNull bool) error {
	col, ok := v.col.([][]byte)
	if !ok {
		return moerr.NewInternalError(context.TODO(), "append bytes to %s vector", v.typ)
	}
	if isNull {
		val = nil
		v.nsp.Set(uint64(v.length))
	}
	v.col = append(col, append([]byte{}, val...))
	v.length++
	return nil
}

// UnionOne appends row of w to v. v and w must have the same type.
func (v *Vector) UnionOne(w *Vector, row int64) error {
	if !v.typ.Eq(*w.GetType()) {
		return moerr.NewInternalError(context.TODO(), "union %s vector with %s vector", v.typ, w.GetType())
	}
	isNull := w.IsNull(uint64(row))
	switch v.typ.Oid {
	case types.T_bool:
		return AppendFixed(v, GetFixedAt[bool](w, int(row)), isNull)
	case types.T_int64:
		return AppendFixed(v, GetFixedAt[int64](w, int(row)), isNull)
	case types.T_float64:
		return AppendFixed(v, GetFixedAt[float64](w, int(row)), isNull)
	case types.T_varchar:
		return AppendBytes(v, w.GetBytesAt(int(row)), isNull)
	}
	return moerr.NewNYI(context.TODO(), "union for type %s", v.typ)
}

// Window returns a read-only view of rows [start, end).
func (v *Vector) Window(start, end int) *Vector {
	w := &Vector{
		typ:    v.typ,
		nsp:    nulls.Range(v.nsp, uint64(start), uint64(end), uint64(start), &nulls.Nulls{}),
		length: end - start,
	}
	switch col := v.col.(type) {
	case []bool:
		w.col = col[start:end]
	case []int64:
		w.col = col[start:end]
	case []float64:
		w.col = col[start:end]
	case [][]byte:
		w.col = col[start:end]
	}
	return w
}

func (v *Vector) Dup() *Vector {
	w := NewVec(v.typ)
	w.nsp = v.nsp.Clone()
	w.length = v.length
	switch col := v.col.(type) {
	case []bool:
		w.col = append([]bool{}, col...)
	case []int64:
		w.col = append([]int64{}, col...)
	case []float64:
		w.col = append([]float64{}, col...)
	case [][]byte:
		c := make([][]byte, 0, len(col))
		for _, s := range col {
			c = append(c, append([]byte{}, s...))
		}
		w.col = c
	}
	return w
}

func (v *Vector) String() string {
	switch col := v.col.(type) {
	case [][]byte:
		ss := make([]string, 0, v.length)
		for i := 0; i < v.length; i++ {
			if v.IsNull(uint64(i)) {
				ss = append(ss, "null")
			} else {
				ss = append(ss, string(col[i]))
			}
		}
		return fmt.Sprintf("%v-%s", ss, nulls.String(v.nsp))
	default:
		return fmt.Sprintf("%v-%s", v.col, nulls.String(v.nsp))
	}
}

// encodeVector mirrors Vector for serialization, used by the disk spool.
type encodeVector struct {
	Typ    types.Type
	Nsp    []byte
	Length int
	Bools  []bool
	Ints   []int64
	Floats []float64
	Strs   [][]byte
}

func (v *Vector) MarshalBinary() ([]byte, error) {
	nsp, err := v.nsp.Show()
	if err != nil {
		return nil, err
	}
	ev := encodeVector{Typ: v.typ, Nsp: nsp, Length: v.length}
	switch col := v.col.(type) {
	case []bool:
		ev.Bools = col
	case []int64:
		ev.Ints = col
	case []float64:
		ev.Floats = col
	case [][]byte:
		ev.Strs = col
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Vector) UnmarshalBinary(data []byte) error {
	var ev encodeVector
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ev); err != nil {
		return err
	}
	v.typ = ev.Typ
	v.length = ev.Length
	v.nsp = &nulls.Nulls{}
	if err := v.nsp.Read(ev.Nsp); err != nil {
		return err
	}
	switch ev.Typ.Oid {
	case types.T_bool:
		if ev.Bools == nil {
			ev.Bools = []bool{}
		}
		v.col = ev.Bools
	case types.T_int64:
		if ev.Ints == nil {
			ev.Ints = []int64{}
		}
		v.col = ev.Ints
	case types.T_float64:
		if ev.Floats == nil {
			ev.Floats = []float64{}
		}
		v.col = ev.Floats
	case types.T_varchar:
		if ev.Strs == nil {
			ev.Strs = [][]byte{}
		}
		v.col = ev.Strs
	}
	return nil
}
