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

// Package taskpool schedules the engine's work: a capacity-bounded
// worker pool that survives fork, a single-goroutine serial executor,
// and the process-wide slot indexer used to partition per-worker state.
package taskpool

import (
	"sync/atomic"
)

// Executor runs submitted callables. The pool and the serial executor
// implement it, as does the ants adapter.
type Executor interface {
	// Submit enqueues fn. When the stop token is requested before fn
	// runs, stopCb (if any) runs in its place.
	Submit(fn func(), token StopToken, stopCb func()) error
	// Capacity is the maximum number of callables running at once.
	Capacity() int
}

// Spawn submits fn without a stop token.
func Spawn(e Executor, fn func()) error {
	return e.Submit(fn, StopToken{}, nil)
}

type task struct {
	fn     func()
	token  StopToken
	stopCb func()
}

type stopState struct {
	requested atomic.Bool
}

// StopSource owns a stop flag. Tokens derived from it are passed by
// value into every submitted task.
type StopSource struct {
	st *stopState
}

func NewStopSource() *StopSource {
	return &StopSource{st: &stopState{}}
}

func (s *StopSource) RequestStop() {
	s.st.requested.Store(true)
}

func (s *StopSource) Token() StopToken {
	return StopToken{st: s.st}
}

// StopToken conveys "stop requested" to a task. The zero value is a
// token that never stops.
type StopToken struct {
	st *stopState
}

func (t StopToken) IsStopRequested() bool {
	return t.st != nil && t.st.requested.Load()
}
