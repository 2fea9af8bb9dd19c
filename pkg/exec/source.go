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
	"github.com/colstream/colstream/pkg/container/batch"
)

// SourceNode pulls batches from a generator and pushes them to its
// single output. With an executor configured, deliveries run as
// parallel tasks and may reach the downstream out of order; without
// one they run inline in generator order.
type SourceNode struct {
	plan   *ExecPlan
	schema *Schema
	gen    Generator
	out    ExecNode

	mu            sync.Mutex
	batchCount    int64
	stopRequested bool

	tasks    *async.TaskGroup
	finished *async.Future
}

func NewSourceNode(plan *ExecPlan, opts *SourceOptions) (*SourceNode, error) {
	if opts.Generator == nil {
		return nil, moerr.NewInvalidArg(context.TODO(), "source generator", nil)
	}
	if opts.OutputSchema == nil || len(opts.OutputSchema.Fields) == 0 {
		return nil, moerr.NewInvalidArg(context.TODO(), "source schema", opts.OutputSchema)
	}
	s := &SourceNode{
		plan:     plan,
		schema:   opts.OutputSchema,
		gen:      opts.Generator,
		tasks:    async.NewTaskGroup(),
		finished: async.NewFuture(),
	}
	plan.addNode(s, nil)
	return s, nil
}

func (s *SourceNode) Label() string   { return "source" }
func (s *SourceNode) Schema() *Schema { return s.schema }

func (s *SourceNode) setOutput(out ExecNode) { s.out = out }

func (s *SourceNode) StartProducing() error {
	if s.out == nil {
		return moerr.NewInvalidState(context.TODO(), "source with no output")
	}
	go s.run()
	return nil
}

func (s *SourceNode) run() {
	var total int64
	for {
		s.mu.Lock()
		if s.stopRequested {
			total = s.batchCount
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()

		bat, err := s.gen()

		s.mu.Lock()
		if err != nil {
			s.stopRequested = true
			total = s.batchCount
			s.mu.Unlock()
			s.out.ErrorReceived(s, err)
			break
		}
		if bat == nil || s.stopRequested {
			s.stopRequested = true
			total = s.batchCount
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()

		if err := s.deliver(bat); err != nil {
			s.mu.Lock()
			s.stopRequested = true
			total = s.batchCount
			s.mu.Unlock()
			s.out.ErrorReceived(s, err)
			break
		}
		s.mu.Lock()
		s.batchCount++
		s.mu.Unlock()
	}

	s.out.InputFinished(s, total)
	s.finished.Resolve(s.tasks.End().Wait())
}

func (s *SourceNode) deliver(bat *batch.Batch) error {
	ex := s.plan.ctx.executor()
	if ex == nil {
		s.out.InputReceived(s, bat)
		return nil
	}
	return s.tasks.AddTask(func() (*async.Future, error) {
		fut := async.NewFuture()
		err := ex.Submit(func() {
			s.out.InputReceived(s, bat)
			fut.Resolve(nil)
		}, taskpool.StopToken{}, func() {
			fut.Resolve(nil)
		})
		if err != nil {
			return nil, err
		}
		return fut, nil
	})
}

// Backpressure is advisory; the source keeps pulling.
func (s *SourceNode) PauseProducing(ExecNode)  {}
func (s *SourceNode) ResumeProducing(ExecNode) {}

func (s *SourceNode) StopProducing() {
	s.mu.Lock()
	s.stopRequested = true
	s.mu.Unlock()
}

func (s *SourceNode) InputReceived(ExecNode, *batch.Batch) {}
func (s *SourceNode) InputFinished(ExecNode, int64)        {}
func (s *SourceNode) ErrorReceived(ExecNode, error)        {}

func (s *SourceNode) Finished() *async.Future {
	return s.finished
}
