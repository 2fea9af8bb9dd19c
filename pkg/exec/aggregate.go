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

package exec

import (
	"context"

	"github.com/colstream/colstream/pkg/colexec/agg"
	"github.com/colstream/colstream/pkg/common/async"
	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/batch"
)

// ScalarAggNode folds its whole input into a single one-row batch. Each
// thread slot accumulates into a private kernel state; the completion
// of the input counter triggers the merge and the one emission.
type ScalarAggNode struct {
	plan  *ExecPlan
	input ExecNode
	out   ExecNode

	specs   []AggSpec
	targets []int
	names   []string
	schema  *Schema

	// states[i][slot] is the kernel state of aggregate i on thread slot.
	states [][]agg.Agg

	inCounter *async.Counter
	finished  *async.Future
}

func NewScalarAggNode(plan *ExecPlan, input ExecNode, opts *AggregateOptions) (*ScalarAggNode, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(opts.Keys) != 0 {
		return nil, moerr.NewInvalidInput(context.TODO(), "scalar aggregate node with group keys")
	}
	n := &ScalarAggNode{
		plan:      plan,
		input:     input,
		specs:     opts.Aggregates,
		names:     opts.Names,
		inCounter: async.NewCounter(),
		finished:  async.NewFuture(),
	}
	capacity := plan.Concurrency()
	inSchema := input.Schema()
	fields := make([]Field, 0, len(opts.Aggregates))
	for i, spec := range opts.Aggregates {
		idx, err := opts.Targets[i].FindOne(inSchema)
		if err != nil {
			return nil, err
		}
		n.targets = append(n.targets, idx)
		d, ok := agg.Lookup(spec.Fn)
		if !ok {
			return nil, moerr.NewInvalidInput(context.TODO(), "aggregate function %s does not exist", spec.Fn)
		}
		if !d.HasKind(agg.KindScalar) {
			return nil, moerr.NewInvalidInput(context.TODO(), "function %s is not a scalar aggregate", spec.Fn)
		}
		slots := make([]agg.Agg, capacity)
		for t := range slots {
			a, err := agg.New(spec.Fn, inSchema.Fields[idx].Typ, spec.Opts.Clone())
			if err != nil {
				return nil, err
			}
			if err := a.Grows(1); err != nil {
				return nil, err
			}
			slots[t] = a
		}
		n.states = append(n.states, slots)
		fields = append(fields, Field{Name: opts.Names[i], Typ: slots[0].OutputType()})
	}
	n.schema = NewSchema(fields...)
	plan.addNode(n, []ExecNode{input})
	if p, ok := input.(producer); ok {
		p.setOutput(n)
	}
	return n, nil
}

func (n *ScalarAggNode) Label() string   { return "aggregate" }
func (n *ScalarAggNode) Schema() *Schema { return n.schema }

func (n *ScalarAggNode) setOutput(out ExecNode) { n.out = out }

// StartProducing announces the single output batch up front.
func (n *ScalarAggNode) StartProducing() error {
	if n.out == nil {
		return moerr.NewInvalidState(context.TODO(), "aggregate with no output")
	}
	n.out.InputFinished(n, 1)
	return nil
}

func (n *ScalarAggNode) InputReceived(_ ExecNode, bat *batch.Batch) {
	slot := n.plan.indexer.Acquire()
	if slot >= n.plan.Concurrency() {
		n.fail(moerr.NewOutOfRange(context.TODO(), "thread slot %d, capacity %d", slot, n.plan.Concurrency()))
		return
	}
	for i := range n.specs {
		if err := n.states[i][slot].BulkFill(0, bat.GetVector(int32(n.targets[i]))); err != nil {
			n.fail(err)
			return
		}
	}
	if n.inCounter.Increment() {
		n.finalize()
	}
}

func (n *ScalarAggNode) InputFinished(_ ExecNode, total int64) {
	if n.inCounter.SetTotal(total) {
		n.finalize()
	}
}

func (n *ScalarAggNode) ErrorReceived(_ ExecNode, err error) {
	n.out.ErrorReceived(n, err)
	if n.inCounter.Cancel() {
		n.finished.Resolve(err)
	}
}

func (n *ScalarAggNode) fail(err error) {
	n.out.ErrorReceived(n, err)
	if n.inCounter.Cancel() {
		n.finished.Resolve(err)
	}
	n.input.StopProducing()
}

// finalize merges per-slot partials, evaluates each kernel and emits
// the one-row result. Runs on whichever goroutine completed the input
// counter; producer slots are quiet by then.
func (n *ScalarAggNode) finalize() {
	out := batch.New(n.names)
	for i := range n.specs {
		dst := n.states[i][0]
		for s := 1; s < len(n.states[i]); s++ {
			if err := dst.Merge(n.states[i][s], nil); err != nil {
				n.out.ErrorReceived(n, err)
				n.finished.Resolve(err)
				return
			}
		}
		vec, err := dst.Eval()
		if err != nil {
			n.out.ErrorReceived(n, err)
			n.finished.Resolve(err)
			return
		}
		out.SetVector(int32(i), vec)
	}
	out.SetRowCount(1)
	n.out.InputReceived(n, out)
	n.finished.Resolve(nil)
}

func (n *ScalarAggNode) PauseProducing(ExecNode)  {}
func (n *ScalarAggNode) ResumeProducing(ExecNode) {}

func (n *ScalarAggNode) StopProducing() {
	if n.inCounter.Cancel() {
		n.finished.Resolve(nil)
	}
	n.input.StopProducing()
}

func (n *ScalarAggNode) Finished() *async.Future {
	return n.finished
}
