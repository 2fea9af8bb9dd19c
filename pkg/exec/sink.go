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
	"github.com/colstream/colstream/pkg/container/batch"
)

// SinkNode terminates a plan, queueing received batches behind a pull
// generator handed to the caller at construction. With an executor on
// the plan the generator yields batches in an unspecified order.
type SinkNode struct {
	plan  *ExecPlan
	input ExecNode

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*batch.Batch
	err       error
	drained   bool
	paused    bool
	spool     *spool
	spoolDone bool

	backpressure *Backpressure
	counter      *async.Counter
	finished     *async.Future
}

func NewSinkNode(plan *ExecPlan, input ExecNode, opts *SinkOptions) (*SinkNode, error) {
	if opts.Out == nil {
		return nil, moerr.NewInvalidArg(context.TODO(), "sink out generator", nil)
	}
	n := &SinkNode{
		plan:         plan,
		input:        input,
		backpressure: opts.Backpressure,
		counter:      async.NewCounter(),
		finished:     async.NewFuture(),
	}
	n.cond = sync.NewCond(&n.mu)
	if opts.Spool != nil {
		sp, err := newSpool(opts.Spool)
		if err != nil {
			return nil, err
		}
		n.spool = sp
	}
	*opts.Out = n.next
	plan.addNode(n, []ExecNode{input})
	if p, ok := input.(producer); ok {
		p.setOutput(n)
	}
	return n, nil
}

func (n *SinkNode) Label() string   { return "sink" }
func (n *SinkNode) Schema() *Schema { return nil }

func (n *SinkNode) StartProducing() error { return nil }

func (n *SinkNode) InputReceived(_ ExecNode, bat *batch.Batch) {
	n.mu.Lock()
	if n.err == nil && !n.drained {
		if n.spool != nil && len(n.queue) >= n.spool.cfg.AfterBatches {
			n.spool.put(bat)
		} else {
			n.queue = append(n.queue, bat)
			if n.backpressure != nil && !n.paused && len(n.queue) >= n.backpressure.High {
				n.paused = true
				n.input.PauseProducing(n)
			}
		}
	}
	n.cond.Broadcast()
	n.mu.Unlock()
	if n.counter.Increment() {
		n.finish(nil)
	}
}

func (n *SinkNode) InputFinished(_ ExecNode, total int64) {
	if n.counter.SetTotal(total) {
		n.finish(nil)
	}
}

func (n *SinkNode) ErrorReceived(_ ExecNode, err error) {
	n.mu.Lock()
	if n.err == nil {
		n.err = err
	}
	n.cond.Broadcast()
	n.mu.Unlock()
	if n.counter.Cancel() {
		n.finished.Resolve(err)
	}
}

// finish marks the stream drained once every announced batch arrived.
func (n *SinkNode) finish(err error) {
	if n.spool != nil {
		if spoolErr := n.spool.seal(); spoolErr != nil && err == nil {
			err = spoolErr
		}
	}
	n.mu.Lock()
	n.drained = true
	if err != nil && n.err == nil {
		n.err = err
	}
	n.cond.Broadcast()
	n.mu.Unlock()
	n.finished.Resolve(err)
}

// next is the pull generator handed to the caller. It blocks until a
// batch is queued, the stream drains or an error arrives. Spooled
// batches replay after the in-memory queue empties.
func (n *SinkNode) next() (*batch.Batch, error) {
	n.mu.Lock()
	for len(n.queue) == 0 && !n.drained && n.err == nil {
		n.cond.Wait()
	}
	if n.err != nil {
		err := n.err
		n.mu.Unlock()
		return nil, err
	}
	if len(n.queue) > 0 {
		bat := n.queue[0]
		n.queue = n.queue[1:]
		if n.backpressure != nil && n.paused && len(n.queue) <= n.backpressure.Low {
			n.paused = false
			n.input.ResumeProducing(n)
		}
		n.mu.Unlock()
		return bat, nil
	}
	if n.spool != nil && !n.spoolDone {
		bat, err := n.spool.next()
		if err != nil {
			n.mu.Unlock()
			return nil, err
		}
		if bat != nil {
			n.mu.Unlock()
			return bat, nil
		}
		n.spoolDone = true
		n.spool.close()
	}
	n.mu.Unlock()
	return nil, nil
}

func (n *SinkNode) PauseProducing(ExecNode)  {}
func (n *SinkNode) ResumeProducing(ExecNode) {}

func (n *SinkNode) StopProducing() {
	n.input.StopProducing()
	n.mu.Lock()
	n.drained = true
	if n.spool != nil && !n.spoolDone {
		// stopped, not drained: drop the spooled batches instead of
		// replaying them
		n.spoolDone = true
		n.spool.discard()
	}
	n.cond.Broadcast()
	n.mu.Unlock()
	if n.counter.Cancel() {
		n.finished.Resolve(nil)
	}
}

func (n *SinkNode) Finished() *async.Future {
	return n.finished
}
