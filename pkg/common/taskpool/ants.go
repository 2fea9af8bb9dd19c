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

	"github.com/panjf2000/ants/v2"

	"github.com/colstream/colstream/pkg/common/moerr"
)

// AntsExecutor adapts an ants goroutine pool to the Executor interface.
// Unlike Pool it recycles idle goroutines and has no secession or fork
// handling; plans outside the engine's own CPU pool can run on it, and
// the disk spool uses one for background writes.
type AntsExecutor struct {
	pool *ants.Pool
}

func NewAntsExecutor(size int) (*AntsExecutor, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, moerr.NewInternalError(context.TODO(), "create ants pool: %v", err)
	}
	return &AntsExecutor{pool: p}, nil
}

func (e *AntsExecutor) Submit(fn func(), token StopToken, stopCb func()) error {
	err := e.pool.Submit(func() {
		if token.IsStopRequested() {
			if stopCb != nil {
				stopCb()
			}
			return
		}
		fn()
	})
	if err != nil {
		return moerr.NewInvalidState(context.TODO(), "submit to ants pool: %v", err)
	}
	return nil
}

func (e *AntsExecutor) Capacity() int {
	return e.pool.Cap()
}

func (e *AntsExecutor) Release() {
	e.pool.Release()
}
