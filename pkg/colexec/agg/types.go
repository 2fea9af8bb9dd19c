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

// Kind classifies where a function may run.
type Kind uint8

const (
	// KindScalar marks functions usable by the ungrouped aggregate node.
	KindScalar Kind = 1 << iota
	// KindHash marks functions usable by the group-by node.
	KindHash
)

// Options tune null handling. They are deep-copied per node; kernels
// hold a borrowed read-only view.
type Options struct {
	// SkipNulls drops null inputs; when unset a null input makes the
	// group result null.
	SkipNulls bool
	// MinCount is the least number of non-null inputs a group needs for
	// a non-null result.
	MinCount int64
}

func DefaultOptions() *Options {
	return &Options{SkipNulls: true, MinCount: 1}
}

func (o *Options) Clone() *Options {
	if o == nil {
		return DefaultOptions()
	}
	clone := *o
	return &clone
}

func (o *Options) Validate() error {
	if o.MinCount < 0 {
		return moerr.NewInvalidArg(context.TODO(), "min_count", o.MinCount)
	}
	return nil
}

// Agg is one aggregate function state, holding accumulators for a dense
// range of group ids. A state is owned by a single worker slot until the
// final merge.
type Agg interface {
	OutputType() types.Type

	// Grows makes sure the state covers at least n groups. Called
	// before every consume since the grouper may have grown.
	Grows(n int) error

	// BulkFill consumes every row of vec into the one group groupIdx.
	BulkFill(groupIdx int64, vec *vector.Vector) error

	// BatchFill consumes vec routing row i into group groupOfRows[i]-1.
	// A zero id means the row belongs to no group and is dropped.
	BatchFill(groupOfRows []uint64, vec *vector.Vector) error

	// Merge folds src into the receiver. Group j of src lands in group
	// trans[j]-1, or j when trans is nil. src is spent afterwards.
	Merge(src Agg, trans []uint64) error

	// Eval produces the result column, one row per group.
	Eval() (*vector.Vector, error)

	Free()
}

// unaryAgg is the generic one-input aggregate. The three closures carry
// the per-function arithmetic; everything else (null policy, group
// bookkeeping, merge) is shared.
type unaryAgg[T1, T2 any] struct {
	op   string
	otyp types.Type
	opts *Options

	// accumulator, filled-count, empty flag and saw-null flag per group
	vs []T2
	cs []int64
	es []bool
	ns []bool

	// isCount makes the result 0 instead of null for empty groups.
	isCount bool

	// seed starts a group's accumulator from its first value.
	seed  func(v T1) T2
	fill  func(acc T2, v T1) T2
	merge func(a, b T2) T2
	// emit maps the accumulator to the result value (avg divides here).
	emit func(acc T2, cnt int64) T2
}
