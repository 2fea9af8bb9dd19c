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
	"sync"

	"github.com/colstream/colstream/pkg/common/async"
	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/common/taskpool"
	"github.com/colstream/colstream/pkg/logutil"
)

// ExecPlan owns a dataflow of nodes. Nodes register in construction
// order, which is also dependency order since a node's inputs must
// exist before the node itself.
type ExecPlan struct {
	ctx     *ExecContext
	indexer *taskpool.Indexer

	mu      sync.Mutex
	nodes   []ExecNode
	inputs  map[ExecNode][]ExecNode
	started bool
	stopped bool
}

func NewPlan(ctx *ExecContext) *ExecPlan {
	return &ExecPlan{
		ctx:     ctx,
		indexer: taskpool.NewIndexer(ctx.concurrency()),
		inputs:  map[ExecNode][]ExecNode{},
	}
}

func (p *ExecPlan) Context() *ExecContext {
	return p.ctx
}

// Concurrency is the number of thread slots every stateful node in this
// plan partitions itself across.
func (p *ExecPlan) Concurrency() int {
	return p.indexer.Capacity()
}

func (p *ExecPlan) addNode(n ExecNode, inputs []ExecNode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = append(p.nodes, n)
	p.inputs[n] = inputs
}

func (p *ExecPlan) Nodes() []ExecNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExecNode{}, p.nodes...)
}

// Validate checks the registered topology: at least one node, every
// input registered before its consumer, and no node feeding two
// consumers.
func (p *ExecPlan) Validate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes) == 0 {
		return moerr.NewInvalidState(context.TODO(), "empty plan")
	}
	seen := map[ExecNode]int{}
	consumers := map[ExecNode]int{}
	for i, n := range p.nodes {
		for _, in := range p.inputs[n] {
			at, ok := seen[in]
			if !ok || at >= i {
				return moerr.NewInvalidState(context.TODO(), "node %s consumes an unregistered input", n.Label())
			}
			consumers[in]++
			if consumers[in] > 1 {
				return moerr.NewInvalidState(context.TODO(), "node %s feeds more than one consumer", in.Label())
			}
		}
		seen[n] = i
	}
	return nil
}

// StartProducing starts every node leaves-first. On the first failure
// each already-started node is stopped before the error returns.
func (p *ExecPlan) StartProducing() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return moerr.NewInvalidState(context.TODO(), "plan started twice")
	}
	p.started = true
	nodes := append([]ExecNode{}, p.nodes...)
	p.mu.Unlock()

	var started []ExecNode
	for _, n := range nodes {
		if err := n.StartProducing(); err != nil {
			logutil.Errorf("plan start aborted at node %s: %v", n.Label(), err)
			for i := len(started) - 1; i >= 0; i-- {
				started[i].StopProducing()
			}
			return err
		}
		started = append(started, n)
	}
	return nil
}

// StopProducing is idempotent and fans out to every node.
func (p *ExecPlan) StopProducing() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	nodes := append([]ExecNode{}, p.nodes...)
	p.mu.Unlock()
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i].StopProducing()
	}
}

// Finished resolves when every node's finished future has resolved,
// carrying the first node error if any.
func (p *ExecPlan) Finished() *async.Future {
	p.mu.Lock()
	futures := make([]*async.Future, 0, len(p.nodes))
	for _, n := range p.nodes {
		futures = append(futures, n.Finished())
	}
	p.mu.Unlock()
	return async.All(futures...)
}
