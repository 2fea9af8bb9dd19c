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
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/colstream/colstream/pkg/logutil"
)

// ParseOMPEnvVar reads the first comma-separated integer of an
// OpenMP-style variable, 0 when unset or unparsable.
func ParseOMPEnvVar(name string) int {
	val := os.Getenv(name)
	if val == "" {
		return 0
	}
	if idx := strings.IndexByte(val, ','); idx >= 0 {
		val = val[:idx]
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return n
}

// DefaultCapacity derives the CPU pool capacity from the environment:
// OMP_NUM_THREADS wins over hardware concurrency, OMP_THREAD_LIMIT
// clamps the result.
func DefaultCapacity() int {
	capacity := ParseOMPEnvVar("OMP_NUM_THREADS")
	if capacity <= 0 {
		capacity = runtime.NumCPU()
	}
	if limit := ParseOMPEnvVar("OMP_THREAD_LIMIT"); limit > 0 && limit < capacity {
		capacity = limit
	}
	if capacity <= 0 {
		logutil.Warnf("taskpool: failed to determine the number of available threads, using a hardcoded arbitrary value")
		capacity = 4
	}
	return capacity
}

var (
	cpuPool     *Pool
	cpuPoolOnce sync.Once
)

// CPUPool is the process-wide pool, created lazily and never shut down
// by the package. It is fork-safe: the first operation in a child
// process rebuilds its state.
func CPUPool() *Pool {
	cpuPoolOnce.Do(func() {
		cpuPool = New(DefaultCapacity())
	})
	return cpuPool
}
