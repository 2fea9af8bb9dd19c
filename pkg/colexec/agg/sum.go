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

func newSum(ityp types.Type, opts *Options) (Agg, error) {
	switch ityp.Oid {
	case types.T_int64:
		return &unaryAgg[int64, int64]{
			op:   "sum",
			otyp: types.New(types.T_int64),
			opts: opts,
			seed: func(v int64) int64 { return v },
			fill: func(acc, v int64) int64 { return acc + v },
			merge: func(a, b int64) int64 { return a + b },
			emit:  func(acc int64, _ int64) int64 { return acc },
		}, nil
	case types.T_float64:
		return &unaryAgg[float64, float64]{
			op:   "sum",
			otyp: types.New(types.T_float64),
			opts: opts,
			seed: func(v float64) float64 { return v },
			fill: func(acc, v float64) float64 { return acc + v },
			merge: func(a, b float64) float64 { return a + b },
			emit:  func(acc float64, _ int64) float64 { return acc },
		}, nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "sum over %s column", ityp)
}
