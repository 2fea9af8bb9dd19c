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

package taskpool

import (
	"context"
	"os"
	"sync"

	"github.com/petermattis/goid"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/logutil"
)

// stubbed in fork tests
var getpid = os.Getpid

// poolState is shared between the Pool object and every worker, so the
// workers stay valid if the Pool is replaced after a fork.
type poolState struct {
	mu            sync.Mutex
	workAvailable *sync.Cond
	shutdownDone  *sync.Cond
	allIdle       *sync.Cond

	desiredCapacity int
	workers         int
	workerIDs       map[int64]struct{}

	tasks []task
	// queued plus currently running tasks
	tasksQueuedOrRunning int

	pleaseShutdown bool
	quickShutdown  bool
}

func newPoolState(capacity int) *poolState {
	st := &poolState{
		desiredCapacity: capacity,
		workerIDs:       make(map[int64]struct{}),
	}
	st.workAvailable = sync.NewCond(&st.mu)
	st.shutdownDone = sync.NewCond(&st.mu)
	st.allIdle = sync.NewCond(&st.mu)
	return st
}

// Pool is a bounded worker pool. Workers are spawned lazily against the
// queue depth and secede when the desired capacity shrinks below the
// live worker count.
type Pool struct {
	mu    sync.Mutex
	state *poolState
	pid   int
}

func New(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		state: newPoolState(capacity),
		pid:   getpid(),
	}
}

// getState guards every public operation against fork: in a child
// process the inherited workers are gone, so the state is rebuilt with
// only the configuration fields kept.
func (p *Pool) getState() *poolState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pid := getpid(); pid != p.pid {
		// single-threaded here: we are the child right after fork
		old := p.state
		st := newPoolState(old.desiredCapacity)
		st.pleaseShutdown = old.pleaseShutdown
		st.quickShutdown = old.quickShutdown
		p.state = st
		p.pid = pid
		logutil.Debugf("taskpool: rebuilt state after fork, pid %d", pid)
	}
	return p.state
}

func (p *Pool) Submit(fn func(), token StopToken, stopCb func()) error {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.pleaseShutdown {
		return moerr.NewInvalidState(context.TODO(), "submit after the pool was shut down")
	}
	st.tasksQueuedOrRunning++
	st.tasks = append(st.tasks, task{fn: fn, token: token, stopCb: stopCb})
	if st.workers < min(st.desiredCapacity, st.tasksQueuedOrRunning) {
		st.launchWorkerLocked()
	}
	st.workAvailable.Signal()
	return nil
}

func (p *Pool) Capacity() int {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.desiredCapacity
}

// SetCapacity adjusts the desired worker count, clamped to at least 1.
// Surplus workers secede once they finish their current task; missing
// workers are spawned against the queue depth.
func (p *Pool) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.desiredCapacity = capacity
	for st.workers < min(capacity, st.tasksQueuedOrRunning) {
		st.launchWorkerLocked()
	}
	st.workAvailable.Broadcast()
}

// NumWorkers returns the live worker count.
func (p *Pool) NumWorkers() int {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.workers
}

// WaitForIdle blocks until no task is queued or running.
func (p *Pool) WaitForIdle() {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	for st.tasksQueuedOrRunning > 0 {
		st.allIdle.Wait()
	}
}

// OwnsCurrent reports whether the calling goroutine is one of this
// pool's workers.
func (p *Pool) OwnsCurrent() bool {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.workerIDs[goid.Get()]
	return ok
}

// Shutdown stops the pool. With wait set, queued tasks drain first;
// otherwise the queue is dropped and workers stop after their current
// task. Further submissions fail.
func (p *Pool) Shutdown(wait bool) error {
	st := p.getState()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pleaseShutdown = true
	if !wait {
		st.quickShutdown = true
		if dropped := len(st.tasks); dropped > 0 {
			st.tasks = nil
			st.tasksQueuedOrRunning -= dropped
			if st.tasksQueuedOrRunning == 0 {
				st.allIdle.Broadcast()
			}
		}
	}
	st.workAvailable.Broadcast()
	for st.workers > 0 {
		st.shutdownDone.Wait()
	}
	if wait && len(st.tasks) > 0 {
		return moerr.NewInternalError(context.TODO(), "%d tasks left after graceful pool shutdown", len(st.tasks))
	}
	return nil
}

func (st *poolState) launchWorkerLocked() {
	st.workers++
	go workerLoop(st)
}

func workerLoop(st *poolState) {
	gid := goid.Get()
	st.mu.Lock()
	st.workerIDs[gid] = struct{}{}
	for {
		if st.pleaseShutdown && (st.quickShutdown || len(st.tasks) == 0) {
			break
		}
		if st.workers > st.desiredCapacity {
			// secede: capacity shrank below the live count
			break
		}
		if len(st.tasks) > 0 {
			t := st.tasks[0]
			st.tasks = st.tasks[1:]
			st.mu.Unlock()
			if t.token.IsStopRequested() {
				if t.stopCb != nil {
					t.stopCb()
				}
			} else {
				t.fn()
			}
			st.mu.Lock()
			st.tasksQueuedOrRunning--
			if st.tasksQueuedOrRunning == 0 {
				st.allIdle.Broadcast()
			}
			continue
		}
		st.workAvailable.Wait()
	}
	st.workers--
	delete(st.workerIDs, gid)
	if st.workers == 0 && st.pleaseShutdown {
		st.shutdownDone.Broadcast()
	}
	st.mu.Unlock()
}
