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
	"sync"

	"github.com/petermattis/goid"
)

// Indexer hands every goroutine that asks a dense slot number, stable
// for the goroutine's lifetime. Aggregation nodes size their per-worker
// state vectors with Capacity and index them with Acquire.
//
// Acquire can return a slot at or past Capacity when more goroutines
// show up than planned; callers must treat that as out of range.
type Indexer struct {
	capacity int

	mu    sync.Mutex
	slots map[int64]int
}

func NewIndexer(capacity int) *Indexer {
	return &Indexer{
		capacity: capacity,
		slots:    make(map[int64]int),
	}
}

func (ix *Indexer) Capacity() int {
	return ix.capacity
}

// Acquire returns the calling goroutine's slot, assigning the next one
// on first use.
func (ix *Indexer) Acquire() int {
	gid := goid.Get()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if slot, ok := ix.slots[gid]; ok {
		return slot
	}
	slot := len(ix.slots)
	ix.slots[gid] = slot
	return slot
}

var (
	processIndexer     *Indexer
	processIndexerOnce sync.Once
)

// ProcessIndexer is the process-wide indexer. Its capacity is the CPU
// pool capacity plus one slot for the goroutine driving the plan.
func ProcessIndexer() *Indexer {
	processIndexerOnce.Do(func() {
		processIndexer = NewIndexer(DefaultCapacity() + 1)
	})
	return processIndexer
}
