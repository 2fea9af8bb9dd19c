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

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
)

func (a *unaryAgg[T1, T2]) OutputType() types.Type {
	return a.otyp
}

func (a *unaryAgg[T1, T2]) Grows(n int) error {
	for len(a.vs) < n {
		var zero T2
		a.vs = append(a.vs, zero)
		a.cs = append(a.cs, 0)
		a.es = append(a.es, true)
		a.ns = append(a.ns, false)
	}
	return nil
}

func (a *unaryAgg[T1, T2]) fillOne(group int64, v T1) {
	if a.es[group] {
		a.vs[group] = a.seed(v)
		a.es[group] = false
	} else {
		a.vs[group] = a.fill(a.vs[group], v)
	}
	a.cs[group]++
}

func (a *unaryAgg[T1, T2]) BulkFill(groupIdx int64, vec *vector.Vector) error {
	if int(groupIdx) >= len(a.vs) {
		return moerr.NewOutOfRange(context.TODO(), "%s fill of group %d, have %d groups", a.op, groupIdx, len(a.vs))
	}
	col := vector.MustFixedCol[T1](vec)
	for row := 0; row < vec.Length(); row++ {
		if vec.IsNull(uint64(row)) {
			a.ns[groupIdx] = true
			continue
		}
		a.fillOne(groupIdx, col[row])
	}
	return nil
}

func (a *unaryAgg[T1, T2]) BatchFill(groupOfRows []uint64, vec *vector.Vector) error {
	if vec.Length() != len(groupOfRows) {
		return moerr.NewInternalError(context.TODO(), "%s fill of %d rows with %d group ids", a.op, vec.Length(), len(groupOfRows))
	}
	col := vector.MustFixedCol[T1](vec)
	for row, id := range groupOfRows {
		if id == 0 {
			continue
		}
		group := int64(id) - 1
		if int(group) >= len(a.vs) {
			return moerr.NewOutOfRange(context.TODO(), "%s fill of group %d, have %d groups", a.op, group, len(a.vs))
		}
		if vec.IsNull(uint64(row)) {
			a.ns[group] = true
			continue
		}
		a.fillOne(group, col[row])
	}
	return nil
}

func (a *unaryAgg[T1, T2]) Merge(src Agg, trans []uint64) error {
	b, ok := src.(*unaryAgg[T1, T2])
	if !ok || b.op != a.op {
		return moerr.NewInternalError(context.TODO(), "merge %s state with a foreign state", a.op)
	}
	for j := range b.vs {
		group := int64(j)
		if trans != nil {
			if j >= len(trans) || trans[j] == 0 {
				return moerr.NewInternalError(context.TODO(), "merge %s state without a transposition for group %d", a.op, j)
			}
			group = int64(trans[j]) - 1
		}
		if int(group) >= len(a.vs) {
			return moerr.NewOutOfRange(context.TODO(), "%s merge into group %d, have %d groups", a.op, group, len(a.vs))
		}
		a.ns[group] = a.ns[group] || b.ns[j]
		if b.es[j] {
			continue
		}
		if a.es[group] {
			a.vs[group] = b.vs[j]
			a.es[group] = false
		} else {
			a.vs[group] = a.merge(a.vs[group], b.vs[j])
		}
		a.cs[group] += b.cs[j]
	}
	return nil
}

func (a *unaryAgg[T1, T2]) Eval() (*vector.Vector, error) {
	vec := vector.NewVec(a.otyp)
	for g := range a.vs {
		if a.isCount {
			if err := appendResult(vec, a.emit(a.vs[g], a.cs[g]), false); err != nil {
				return nil, err
			}
			continue
		}
		isNull := a.es[g] || a.cs[g] < a.opts.MinCount || (!a.opts.SkipNulls && a.ns[g])
		if err := appendResult(vec, a.emit(a.vs[g], a.cs[g]), isNull); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

func (a *unaryAgg[T1, T2]) Free() {
	a.vs = nil
	a.cs = nil
	a.es = nil
	a.ns = nil
}

func appendResult[T any](vec *vector.Vector, val T, isNull bool) error {
	return vector.AppendFixed(vec, val, isNull)
}
