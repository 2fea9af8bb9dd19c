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

// Package async carries the small signalling primitives of the engine:
// one-shot futures, completion counters and task groups.
package async

import (
	"sync"
)

// Future is a one-shot completion signal carrying an error. Resolve may
// be called from any goroutine; later calls are ignored.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) Resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err is only meaningful once Done is closed.
func (f *Future) Err() error {
	return f.err
}

// Wait blocks for resolution and returns the resolved error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Go runs fn on a new goroutine and returns a future resolving with its
// error.
func Go(fn func() error) *Future {
	f := NewFuture()
	go func() {
		f.Resolve(fn())
	}()
	return f
}

// All returns a future resolving when every input future resolves,
// carrying the first error observed.
func All(futures ...*Future) *Future {
	out := NewFuture()
	go func() {
		var firstErr error
		for _, f := range futures {
			if err := f.Wait(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		out.Resolve(firstErr)
	}()
	return out
}
