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

func newAvg(ityp types.Type, opts *Options) (Agg, error) {
	switch ityp.Oid {
	case types.T_int64:
		return avgAgg[int64](opts), nil
	case types.T_float64:
		return avgAgg[float64](opts), nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "avg over %s column", ityp)
}

func avgAgg[T int64 | float64](opts *Options) Agg {
	return &unaryAgg[T, float64]{
		op:    "avg",
		otyp:  types.New(types.T_float64),
		opts:  opts,
		seed:  func(v T) float64 { return float64(v) },
		fill:  func(acc float64, v T) float64 { return acc + float64(v) },
		merge: func(a, b float64) float64 { return a + b },
		emit: func(acc float64, cnt int64) float64 {
			if cnt == 0 {
				return 0
			}
			return acc / float64(cnt)
		},
	}
}
