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
)

func newMin(ityp types.Type, opts *Options) (Agg, error) {
	switch ityp.Oid {
	case types.T_int64:
		return orderedAgg[int64]("min", ityp, opts, func(a, b int64) bool { return a < b }), nil
	case types.T_float64:
		return orderedAgg[float64]("min", ityp, opts, func(a, b float64) bool { return a < b }), nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "min over %s column", ityp)
}

func newMax(ityp types.Type, opts *Options) (Agg, error) {
	switch ityp.Oid {
	case types.T_int64:
		return orderedAgg[int64]("max", ityp, opts, func(a, b int64) bool { return a > b }), nil
	case types.T_float64:
		return orderedAgg[float64]("max", ityp, opts, func(a, b float64) bool { return a > b }), nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "max over %s column", ityp)
}

func orderedAgg[T int64 | float64](op string, ityp types.Type, opts *Options, less func(a, b T) bool) Agg {
	pick := func(a, b T) T {
		if less(b, a) {
			return b
		}
		return a
	}
	return &unaryAgg[T, T]{
		op:    op,
		otyp:  ityp,
		opts:  opts,
		seed:  func(v T) T { return v },
		fill:  pick,
		merge: pick,
		emit:  func(acc T, _ int64) T { return acc },
	}
}
