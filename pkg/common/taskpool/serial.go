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
	"sync"

	"github.com/colstream/colstream/pkg/common/moerr"
)

type serialState struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []task
	finished bool
}

// SerialExecutor runs tasks one at a time on whichever goroutine calls
// RunLoop. The state is shared by pointer so other goroutines may keep
// submitting while the loop runs.
type SerialExecutor struct {
	st *serialState
}

func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{st: &serialState{}}
	e.st.cond = sync.NewCond(&e.st.mu)
	return e
}

func (e *SerialExecutor) Submit(fn func(), token StopToken, stopCb func()) error {
	st := e.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.finished {
		return moerr.NewInvalidState(context.TODO(), "submit after the serial executor finished")
	}
	st.tasks = append(st.tasks, task{fn: fn, token: token, stopCb: stopCb})
	st.cond.Signal()
	return nil
}

func (e *SerialExecutor) Capacity() int {
	return 1
}

// RunLoop processes tasks until MarkFinished was called and the queue is
// empty.
func (e *SerialExecutor) RunLoop() {
	st := e.st
	st.mu.Lock()
	for {
		for len(st.tasks) > 0 {
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
		}
		if st.finished {
			break
		}
		st.cond.Wait()
	}
	st.mu.Unlock()
}

// MarkFinished lets RunLoop return once the queue drains.
func (e *SerialExecutor) MarkFinished() {
	st := e.st
	st.mu.Lock()
	st.finished = true
	st.cond.Broadcast()
	st.mu.Unlock()
}
