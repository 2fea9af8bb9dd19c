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
	"sync/atomic"
)

const totalUnset = int64(-1)

// Counter counts a stream of events against a total that may only become
// known mid-stream. Exactly one caller across Increment, SetTotal and
// Cancel observes completion, which makes it safe to hang a one-shot
// finalization off the return value.
type Counter struct {
	count     atomic.Int64
	total     atomic.Int64
	completed atomic.Bool
}

func NewCounter() *Counter {
	c := &Counter{}
	c.total.Store(totalUnset)
	return c
}

// Increment adds one event. Returns true iff this call completed the
// counter.
func (c *Counter) Increment() bool {
	n := c.count.Add(1)
	if n != c.total.Load() {
		return false
	}
	return c.doneOnce()
}

// SetTotal records the expected event count. Returns true iff the stream
// was already fully counted at the moment of setting.
func (c *Counter) SetTotal(n int64) bool {
	c.total.Store(n)
	if c.count.Load() != n {
		return false
	}
	return c.doneOnce()
}

// Cancel completes the counter early. Returns true iff this call is the
// first to complete it.
func (c *Counter) Cancel() bool {
	return c.doneOnce()
}

// Total returns the set total, or -1 when unset.
func (c *Counter) Total() int64 {
	return c.total.Load()
}

func (c *Counter) Count() int64 {
	return c.count.Load()
}

func (c *Counter) Completed() bool {
	return c.completed.Load()
}

func (c *Counter) doneOnce() bool {
	return c.completed.CompareAndSwap(false, true)
}
