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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstream/colstream/pkg/common/moerr"
)

func TestCounterIncrementCompletes(t *testing.T) {
	c := NewCounter()
	require.Equal(t, int64(-1), c.Total())
	require.False(t, c.Increment())
	require.False(t, c.Increment())
	require.False(t, c.SetTotal(3))
	require.True(t, c.Increment())
	require.True(t, c.Completed())
	require.False(t, c.Increment())
}

func TestCounterSetTotalCompletes(t *testing.T) {
	c := NewCounter()
	c.Increment()
	c.Increment()
	require.True(t, c.SetTotal(2))
	require.False(t, c.Cancel())
}

func TestCounterZeroTotal(t *testing.T) {
	c := NewCounter()
	require.True(t, c.SetTotal(0))
}

func TestCounterCancelWinsOnce(t *testing.T) {
	c := NewCounter()
	require.True(t, c.Cancel())
	require.False(t, c.Cancel())
	require.False(t, c.SetTotal(0))
	require.False(t, c.Increment())
}

func TestCounterSingleCompletionUnderContention(t *testing.T) {
	for round := 0; round < 50; round++ {
		c := NewCounter()
		const n = 64
		var completions atomic.Int64
		var wg sync.WaitGroup
		wg.Add(n + 2)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				if c.Increment() {
					completions.Add(1)
				}
			}()
		}
		go func() {
			defer wg.Done()
			if c.SetTotal(n) {
				completions.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			if c.Cancel() {
				completions.Add(1)
			}
		}()
		wg.Wait()
		require.Equal(t, int64(1), completions.Load())
	}
}

func TestFutureResolveOnce(t *testing.T) {
	f := NewFuture()
	require.False(t, f.IsReady())
	f.Resolve(nil)
	f.Resolve(moerr.NewInternalError(nil, "late"))
	require.True(t, f.IsReady())
	require.NoError(t, f.Wait())
	require.NoError(t, f.Err())
}

func TestFutureGoAndAll(t *testing.T) {
	ok := Go(func() error { return nil })
	bad := Go(func() error { return moerr.NewInternalError(nil, "boom") })
	require.Error(t, All(ok, bad).Wait())
	require.NoError(t, All(ok).Wait())
}

func TestTaskGroupWaitsForTasks(t *testing.T) {
	g := NewTaskGroup()
	release := make(chan struct{})
	var ran atomic.Int64
	for i := 0; i < 4; i++ {
		err := g.AddTask(func() (*Future, error) {
			f := NewFuture()
			go func() {
				<-release
				ran.Add(1)
				f.Resolve(nil)
			}()
			return f, nil
		})
		require.NoError(t, err)
	}
	end := g.End()
	require.False(t, end.IsReady())
	close(release)
	require.NoError(t, end.Wait())
	require.Equal(t, int64(4), ran.Load())
}

func TestTaskGroupFactoryError(t *testing.T) {
	g := NewTaskGroup()
	boom := moerr.NewInternalError(nil, "no workers")
	require.Error(t, g.AddTask(func() (*Future, error) {
		return nil, boom
	}))
	require.ErrorIs(t, g.End().Wait(), boom)
}

func TestTaskGroupEndTwice(t *testing.T) {
	g := NewTaskGroup()
	require.NoError(t, g.End().Wait())
	require.Error(t, g.End().Wait())
}

func TestTaskGroupCarriesFirstTaskError(t *testing.T) {
	g := NewTaskGroup()
	boom := moerr.NewInternalError(nil, "task failed")
	require.NoError(t, g.AddTask(func() (*Future, error) {
		f := NewFuture()
		f.Resolve(boom)
		return f, nil
	}))
	require.NoError(t, g.AddTask(func() (*Future, error) {
		f := NewFuture()
		f.Resolve(nil)
		return f, nil
	}))
	require.ErrorIs(t, g.End().Wait(), boom)
}
