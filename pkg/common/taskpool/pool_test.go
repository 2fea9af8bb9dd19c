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
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubmitRunsTasks(t *testing.T) {
	pool := New(4)
	defer pool.Shutdown(true)

	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, pool.Submit(func() {
			ran.Add(1)
		}, StopToken{}, nil))
	}
	pool.WaitForIdle()
	require.Equal(t, int64(100), ran.Load())
}

func TestCapacityClampsToOne(t *testing.T) {
	pool := New(0)
	defer pool.Shutdown(true)
	require.Equal(t, 1, pool.Capacity())
	pool.SetCapacity(-3)
	require.Equal(t, 1, pool.Capacity())
}

func TestSetCapacityShrinksWorkforce(t *testing.T) {
	pool := New(8)
	defer pool.Shutdown(true)

	var gate sync.WaitGroup
	gate.Add(1)
	for i := 0; i < 16; i++ {
		require.NoError(t, pool.Submit(func() {
			gate.Wait()
		}, StopToken{}, nil))
	}
	require.Eventually(t, func() bool {
		return pool.NumWorkers() == 8
	}, 2*time.Second, time.Millisecond)

	pool.SetCapacity(2)
	gate.Done()
	pool.WaitForIdle()
	require.Eventually(t, func() bool {
		return pool.NumWorkers() <= 2
	}, 2*time.Second, time.Millisecond)
	require.Equal(t, 2, pool.Capacity())
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	pool := New(2)
	require.NoError(t, pool.Shutdown(true))
	require.Error(t, pool.Submit(func() {}, StopToken{}, nil))
}

func TestQuickShutdownDropsQueue(t *testing.T) {
	pool := New(1)
	var ran atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-release
		ran.Add(1)
	}, StopToken{}, nil))
	<-started
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() {
			ran.Add(1)
		}, StopToken{}, nil))
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, pool.Shutdown(false))
	// only the in-flight task ran, the queue was dropped
	require.Equal(t, int64(1), ran.Load())
}

func TestOwnsCurrent(t *testing.T) {
	pool := New(2)
	defer pool.Shutdown(true)

	owns := make(chan bool, 1)
	require.NoError(t, pool.Submit(func() {
		owns <- pool.OwnsCurrent()
	}, StopToken{}, nil))
	require.True(t, <-owns)
	require.False(t, pool.OwnsCurrent())
}

func TestStopTokenSkipsTask(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown(true)

	src := NewStopSource()
	src.RequestStop()
	var ran, stopped atomic.Int64
	require.NoError(t, pool.Submit(func() {
		ran.Add(1)
	}, src.Token(), func() {
		stopped.Add(1)
	}))
	pool.WaitForIdle()
	require.Equal(t, int64(0), ran.Load())
	require.Equal(t, int64(1), stopped.Load())
}

func TestZeroStopTokenNeverStops(t *testing.T) {
	var token StopToken
	require.False(t, token.IsStopRequested())
}

func TestForkSurvival(t *testing.T) {
	realGetpid := getpid
	defer func() { getpid = realGetpid }()

	pool := New(2)
	var ran atomic.Int64
	require.NoError(t, pool.Submit(func() { ran.Add(1) }, StopToken{}, nil))
	pool.WaitForIdle()
	require.Equal(t, int64(1), ran.Load())

	// pretend we are the child after fork
	getpid = func() int { return os.Getpid() + 1 }

	require.Equal(t, 0, pool.NumWorkers())
	require.Equal(t, 2, pool.Capacity())
	require.NoError(t, pool.Submit(func() { ran.Add(1) }, StopToken{}, nil))
	pool.WaitForIdle()
	require.Equal(t, int64(2), ran.Load())
	require.NoError(t, pool.Shutdown(true))
}

func TestCPUPoolIsASingleton(t *testing.T) {
	require.Same(t, CPUPool(), CPUPool())
	require.GreaterOrEqual(t, CPUPool().Capacity(), 1)
}
