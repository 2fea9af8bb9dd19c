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
	"sync/atomic"

	"github.com/colstream/colstream/pkg/colexec/agg"
	"github.com/colstream/colstream/pkg/common/async"
	"github.com/colstream/colstream/pkg/common/hashmap"
	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/common/taskpool"
	"github.com/colstream/colstream/pkg/container/batch"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
	"github.com/colstream/colstream/pkg/logutil"
)

// slotState is one thread slot's partial aggregation: a grouper owning
// the key -> group-id mapping plus one kernel state per aggregate.
// Built lazily on the slot's first batch.
type slotState struct {
	grouper *hashmap.StrHashMap
	states  []agg.Agg
}

// GroupByNode hash-aggregates its input per key combination. Every
// thread slot builds a private partial; completion of the input counter
// merges the partials into slot 0, finalizes and emits the result in
// chunks of the plan's chunk size. Output columns are the aggregate
// results followed by the key columns.
type GroupByNode struct {
	plan  *ExecPlan
	input ExecNode
	out   ExecNode

	specs    []AggSpec
	targets  []int
	names    []string
	keys     []int
	keyTypes []types.Type
	schema   *Schema

	locals []slotState

	inCounter  *async.Counter
	outCounter *async.Counter
	finished   *async.Future
	stopped    atomic.Bool
}

func NewGroupByNode(plan *ExecPlan, input ExecNode, opts *AggregateOptions) (*GroupByNode, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(opts.Keys) == 0 {
		return nil, moerr.NewInvalidInput(context.TODO(), "group-by node with no keys")
	}
	n := &GroupByNode{
		plan:       plan,
		input:      input,
		specs:      opts.Aggregates,
		names:      opts.Names,
		locals:     make([]slotState, plan.Concurrency()),
		inCounter:  async.NewCounter(),
		outCounter: async.NewCounter(),
		finished:   async.NewFuture(),
	}
	inSchema := input.Schema()
	fields := make([]Field, 0, len(opts.Aggregates)+len(opts.Keys))
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
		if !d.HasKind(agg.KindHash) {
			return nil, moerr.NewInvalidInput(context.TODO(), "function %s is not a hash aggregate", spec.Fn)
		}
		// dispatch check only, the per-slot states build lazily
		probe, err := agg.New(spec.Fn, inSchema.Fields[idx].Typ, spec.Opts.Clone())
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: opts.Names[i], Typ: probe.OutputType()})
		probe.Free()
	}
	for _, ref := range opts.Keys {
		idx, err := ref.FindOne(inSchema)
		if err != nil {
			return nil, err
		}
		n.keys = append(n.keys, idx)
		n.keyTypes = append(n.keyTypes, inSchema.Fields[idx].Typ)
		fields = append(fields, inSchema.Fields[idx])
	}
	n.schema = NewSchema(fields...)
	plan.addNode(n, []ExecNode{input})
	if p, ok := input.(producer); ok {
		p.setOutput(n)
	}
	return n, nil
}

func (n *GroupByNode) Label() string   { return "group_by" }
func (n *GroupByNode) Schema() *Schema { return n.schema }

func (n *GroupByNode) setOutput(out ExecNode) { n.out = out }

func (n *GroupByNode) StartProducing() error {
	if n.out == nil {
		return moerr.NewInvalidState(context.TODO(), "group-by with no output")
	}
	return nil
}

func (n *GroupByNode) initSlot(local *slotState) error {
	// null keys form their own group, so the grouper keeps them
	m, err := hashmap.NewStrMap(true, n.keyTypes)
	if err != nil {
		return err
	}
	states := make([]agg.Agg, len(n.specs))
	for i, spec := range n.specs {
		a, err := agg.New(spec.Fn, n.input.Schema().Fields[n.targets[i]].Typ, spec.Opts.Clone())
		if err != nil {
			return err
		}
		states[i] = a
	}
	local.grouper = m
	local.states = states
	return nil
}

func (n *GroupByNode) InputReceived(_ ExecNode, bat *batch.Batch) {
	slot := n.plan.indexer.Acquire()
	if slot >= len(n.locals) {
		n.fail(moerr.NewOutOfRange(context.TODO(), "thread slot %d, capacity %d", slot, len(n.locals)))
		return
	}
	local := &n.locals[slot]
	if local.grouper == nil {
		if err := n.initSlot(local); err != nil {
			n.fail(err)
			return
		}
	}
	keyVecs := make([]*vector.Vector, len(n.keys))
	for i, k := range n.keys {
		keyVecs[i] = bat.GetVector(int32(k))
	}
	ids, err := local.grouper.Consume(keyVecs, bat.RowCount())
	if err != nil {
		n.fail(err)
		return
	}
	groups := int(local.grouper.GroupCount())
	for i := range n.specs {
		// the grouper may have grown, resize before filling
		if err := local.states[i].Grows(groups); err != nil {
			n.fail(err)
			return
		}
		if err := local.states[i].BatchFill(ids, bat.GetVector(int32(n.targets[i]))); err != nil {
			n.fail(err)
			return
		}
	}
	if n.inCounter.Increment() {
		n.output()
	}
}

func (n *GroupByNode) InputFinished(_ ExecNode, total int64) {
	if n.inCounter.SetTotal(total) {
		n.output()
	}
}

func (n *GroupByNode) ErrorReceived(_ ExecNode, err error) {
	n.out.ErrorReceived(n, err)
	n.stopped.Store(true)
	n.inCounter.Cancel()
	if n.outCounter.Cancel() {
		n.finished.Resolve(err)
	}
}

func (n *GroupByNode) fail(err error) {
	n.out.ErrorReceived(n, err)
	n.stopped.Store(true)
	n.inCounter.Cancel()
	if n.outCounter.Cancel() {
		n.finished.Resolve(err)
	}
	n.input.StopProducing()
}

// mergeLocals folds every populated slot into slot 0. Feeding a slot's
// unique key rows to slot 0's grouper yields the transposition from the
// slot's group ids to slot 0's.
func (n *GroupByNode) mergeLocals() (*slotState, error) {
	dst := &n.locals[0]
	for s := 1; s < len(n.locals); s++ {
		src := &n.locals[s]
		if src.grouper == nil {
			continue
		}
		if dst.grouper == nil {
			if err := n.initSlot(dst); err != nil {
				return nil, err
			}
		}
		uniques := src.grouper.Uniques()
		trans, err := dst.grouper.Consume(uniques, int(src.grouper.GroupCount()))
		if err != nil {
			return nil, err
		}
		groups := int(dst.grouper.GroupCount())
		for i := range n.specs {
			if err := dst.states[i].Grows(groups); err != nil {
				return nil, err
			}
			if err := dst.states[i].Merge(src.states[i], trans); err != nil {
				return nil, err
			}
			src.states[i].Free()
			src.states[i] = nil
		}
		src.grouper.Free()
		src.grouper = nil
		src.states = nil
	}
	return dst, nil
}

// output runs once, on whichever goroutine completed the input counter.
func (n *GroupByNode) output() {
	dst, err := n.mergeLocals()
	if err != nil {
		n.fail(err)
		return
	}

	var groups int
	if dst.grouper != nil {
		groups = int(dst.grouper.GroupCount())
	}
	chunk := n.plan.ctx.chunkSize()
	total := int64((groups + chunk - 1) / chunk)

	n.out.InputFinished(n, total)
	if n.outCounter.SetTotal(total) {
		// empty input, nothing to emit
		n.finished.Resolve(nil)
		return
	}

	result, err := n.buildResult(dst, groups)
	if err != nil {
		n.fail(err)
		return
	}

	ex := n.plan.ctx.executor()
	for c := int64(0); c < total; c++ {
		start := int(c) * chunk
		end := min(start+chunk, groups)
		emit := func() {
			if !n.stopped.Load() {
				n.out.InputReceived(n, result.Window(start, end))
			}
			if n.outCounter.Increment() {
				n.finished.Resolve(nil)
			}
		}
		if ex == nil {
			emit()
			continue
		}
		if err := ex.Submit(emit, taskpool.StopToken{}, nil); err != nil {
			logutil.Errorf("group-by chunk submit: %v", err)
			n.fail(err)
			return
		}
	}
}

func (n *GroupByNode) buildResult(dst *slotState, groups int) (*batch.Batch, error) {
	attrs := append([]string{}, n.names...)
	for _, k := range n.keys {
		attrs = append(attrs, n.input.Schema().Fields[k].Name)
	}
	out := batch.New(attrs)
	for i := range n.specs {
		vec, err := dst.states[i].Eval()
		if err != nil {
			return nil, err
		}
		out.SetVector(int32(i), vec)
	}
	for i, vec := range dst.grouper.Uniques() {
		out.SetVector(int32(len(n.specs)+i), vec)
	}
	out.SetRowCount(groups)
	return out, nil
}

func (n *GroupByNode) PauseProducing(ExecNode)  {}
func (n *GroupByNode) ResumeProducing(ExecNode) {}

func (n *GroupByNode) StopProducing() {
	n.stopped.Store(true)
	n.inCounter.Cancel()
	if n.outCounter.Cancel() {
		n.finished.Resolve(nil)
	}
	n.input.StopProducing()
}

func (n *GroupByNode) Finished() *async.Future {
	return n.finished
}
