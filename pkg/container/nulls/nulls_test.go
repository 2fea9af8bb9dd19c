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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndContains(t *testing.T) {
	nsp := Build(10, 1, 3, 5)
	require.True(t, Any(nsp))
	require.Equal(t, 3, Length(nsp))
	require.True(t, Contains(nsp, 3))
	require.False(t, Contains(nsp, 2))
	require.False(t, Contains(nil, 2))
}

func TestAddDel(t *testing.T) {
	nsp := Build(4)
	require.False(t, Any(nsp))
	Add(nsp, 2)
	require.True(t, Contains(nsp, 2))
	Del(nsp, 2)
	require.False(t, Any(nsp))
}

func TestRangeBias(t *testing.T) {
	nsp := Build(10, 4, 6)
	m := Range(nsp, 4, 8, 4, &Nulls{})
	require.True(t, m.Contains(0))
	require.True(t, m.Contains(2))
	require.False(t, m.Contains(1))
	require.Equal(t, 2, m.Count())
}

func TestShowRead(t *testing.T) {
	nsp := Build(10, 0, 9)
	data, err := nsp.Show()
	require.NoError(t, err)

	var got Nulls
	require.NoError(t, got.Read(data))
	require.True(t, got.Contains(0))
	require.True(t, got.Contains(9))
	require.Equal(t, 2, got.Count())
}

func TestClone(t *testing.T) {
	nsp := Build(5, 1)
	dup := nsp.Clone()
	Add(dup, 3)
	require.False(t, Contains(nsp, 3))
	require.True(t, dup.Contains(3))
}
