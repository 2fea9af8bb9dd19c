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

package async

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/colstream/colstream/pkg/common/moerr"
)

// TaskGroup tracks in-flight tasks without blocking. End returns a
// future that resolves once End was called and every added task has
// resolved, carrying the first task error.
type TaskGroup struct {
	// one pseudo-task held until End, so the group cannot finish early
	nremaining atomic.Int64
	finished   *Future

	mu       sync.Mutex
	firstErr error
	ended    bool
}

func NewTaskGroup() *TaskGroup {
	g := &TaskGroup{finished: NewFuture()}
	g.nremaining.Store(1)
	return g
}

// AddTask invokes factory and tracks the future it returns. A factory
// error is returned synchronously and counts as the group's first error.
func (g *TaskGroup) AddTask(factory func() (*Future, error)) error {
	g.nremaining.Add(1)
	fut, err := factory()
	if err != nil {
		g.recordErr(err)
		g.oneDone()
		return err
	}
	go func() {
		if err := fut.Wait(); err != nil {
			g.recordErr(err)
		}
		g.oneDone()
	}()
	return nil
}

// End declares that no more tasks will be added. Calling it twice is an
// error.
func (g *TaskGroup) End() *Future {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		f := NewFuture()
		f.Resolve(moerr.NewInvalidState(context.TODO(), "task group ended twice"))
		return f
	}
	g.ended = true
	g.mu.Unlock()
	g.oneDone()
	return g.finished
}

func (g *TaskGroup) recordErr(err error) {
	g.mu.Lock()
	if g.firstErr == nil {
		g.firstErr = err
	}
	g.mu.Unlock()
}

func (g *TaskGroup) oneDone() {
	if g.nremaining.Add(-1) == 0 {
		g.mu.Lock()
		err := g.firstErr
		g.mu.Unlock()
		g.finished.Resolve(err)
	}
}
