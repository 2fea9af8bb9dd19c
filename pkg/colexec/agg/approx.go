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

package agg

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/axiomhq/hyperloglog"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
)

// approxAgg estimates the distinct count per group with one HLL sketch
// per group. Null inputs never reach a sketch and an empty group
// evaluates to 0, matching count semantics.
type approxAgg struct {
	ityp     types.Type
	sketches []*hyperloglog.Sketch
}

func newApproxCountDistinct(ityp types.Type, _ *Options) (Agg, error) {
	switch ityp.Oid {
	case types.T_bool, types.T_int64, types.T_float64, types.T_varchar:
		return &approxAgg{ityp: ityp}, nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "approx_count_distinct over %s column", ityp)
}

func (a *approxAgg) OutputType() types.Type {
	return types.New(types.T_int64)
}

func (a *approxAgg) Grows(n int) error {
	for len(a.sketches) < n {
		a.sketches = append(a.sketches, hyperloglog.New14())
	}
	return nil
}

func (a *approxAgg) insert(group int64, vec *vector.Vector, row int) {
	var buf [8]byte
	switch a.ityp.Oid {
	case types.T_bool:
		if vector.GetFixedAt[bool](vec, row) {
			buf[0] = 1
		}
		a.sketches[group].Insert(buf[:1])
	case types.T_int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(vector.GetFixedAt[int64](vec, row)))
		a.sketches[group].Insert(buf[:])
	case types.T_float64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(vector.GetFixedAt[float64](vec, row)))
		a.sketches[group].Insert(buf[:])
	case types.T_varchar:
		a.sketches[group].Insert(vec.GetBytesAt(row))
	}
}

func (a *approxAgg) BulkFill(groupIdx int64, vec *vector.Vector) error {
	if int(groupIdx) >= len(a.sketches) {
		return moerr.NewOutOfRange(context.TODO(), "approx_count_distinct fill of group %d, have %d groups", groupIdx, len(a.sketches))
	}
	for row := 0; row < vec.Length(); row++ {
		if vec.IsNull(uint64(row)) {
			continue
		}
		a.insert(groupIdx, vec, row)
	}
	return nil
}

func (a *approxAgg) BatchFill(groupOfRows []uint64, vec *vector.Vector) error {
	if vec.Length() != len(groupOfRows) {
		return moerr.NewInternalError(context.TODO(), "approx_count_distinct fill of %d rows with %d group ids", vec.Length(), len(groupOfRows))
	}
	for row, id := range groupOfRows {
		if id == 0 || vec.IsNull(uint64(row)) {
			continue
		}
		group := int64(id) - 1
		if int(group) >= len(a.sketches) {
			return moerr.NewOutOfRange(context.TODO(), "approx_count_distinct fill of group %d, have %d groups", group, len(a.sketches))
		}
		a.insert(group, vec, row)
	}
	return nil
}

func (a *approxAgg) Merge(src Agg, trans []uint64) error {
	b, ok := src.(*approxAgg)
	if !ok {
		return moerr.NewInternalError(context.TODO(), "merge approx_count_distinct state with a foreign state")
	}
	for j := range b.sketches {
		group := int64(j)
		if trans != nil {
			if j >= len(trans) || trans[j] == 0 {
				return moerr.NewInternalError(context.TODO(), "merge approx_count_distinct state without a transposition for group %d", j)
			}
			group = int64(trans[j]) - 1
		}
		if int(group) >= len(a.sketches) {
			return moerr.NewOutOfRange(context.TODO(), "approx_count_distinct merge into group %d, have %d groups", group, len(a.sketches))
		}
		if err := a.sketches[group].Merge(b.sketches[j]); err != nil {
			return moerr.NewInternalError(context.TODO(), "merge approx_count_distinct sketches: %v", err)
		}
	}
	return nil
}

func (a *approxAgg) Eval() (*vector.Vector, error) {
	vec := vector.NewVec(types.New(types.T_int64))
	for _, sk := range a.sketches {
		if err := vector.AppendFixed(vec, int64(sk.Estimate()), false); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

func (a *approxAgg) Free() {
	a.sketches = nil
}
