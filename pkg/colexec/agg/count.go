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

// count counts non-null inputs. An empty group evaluates to 0, never to
// null.
func newCount(ityp types.Type, opts *Options) (Agg, error) {
	otyp := types.New(types.T_int64)
	switch ityp.Oid {
	case types.T_bool:
		return countAgg[bool](otyp, opts), nil
	case types.T_int64:
		return countAgg[int64](otyp, opts), nil
	case types.T_float64:
		return countAgg[float64](otyp, opts), nil
	case types.T_varchar:
		return countAgg[[]byte](otyp, opts), nil
	}
	return nil, moerr.NewInvalidInput(context.TODO(), "count over %s column", ityp)
}

func countAgg[T any](otyp types.Type, opts *Options) Agg {
	return &unaryAgg[T, int64]{
		op:      "count",
		otyp:    otyp,
		opts:    opts,
		isCount: true,
		seed:    func(T) int64 { return 1 },
		fill:    func(acc int64, _ T) int64 { return acc + 1 },
		merge:   func(a, b int64) int64 { return a + b },
		emit:    func(_ int64, cnt int64) int64 { return cnt },
	}
}
