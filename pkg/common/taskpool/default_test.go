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
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOMPEnvVar(t *testing.T) {
	t.Setenv("OMP_NUM_THREADS", "3,9")
	require.Equal(t, 3, ParseOMPEnvVar("OMP_NUM_THREADS"))

	t.Setenv("OMP_NUM_THREADS", " 5 ")
	require.Equal(t, 5, ParseOMPEnvVar("OMP_NUM_THREADS"))

	t.Setenv("OMP_NUM_THREADS", "bogus")
	require.Equal(t, 0, ParseOMPEnvVar("OMP_NUM_THREADS"))

	t.Setenv("OMP_NUM_THREADS", "")
	require.Equal(t, 0, ParseOMPEnvVar("OMP_NUM_THREADS"))
}

func TestDefaultCapacity(t *testing.T) {
	t.Setenv("OMP_NUM_THREADS", "3,9")
	t.Setenv("OMP_THREAD_LIMIT", "")
	require.Equal(t, 3, DefaultCapacity())

	t.Setenv("OMP_THREAD_LIMIT", "2")
	require.Equal(t, 2, DefaultCapacity())

	// a limit above the requested count does not raise it
	t.Setenv("OMP_THREAD_LIMIT", "64")
	require.Equal(t, 3, DefaultCapacity())

	t.Setenv("OMP_NUM_THREADS", "")
	t.Setenv("OMP_THREAD_LIMIT", "")
	require.Equal(t, runtime.NumCPU(), DefaultCapacity())
}
