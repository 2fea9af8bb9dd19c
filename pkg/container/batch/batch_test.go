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

package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
)

func testBatch(t *testing.T, rows int) *Batch {
	t.Helper()
	bat := New([]string{"k", "v"})
	kvec := vector.NewVec(types.New(types.T_varchar))
	vvec := vector.NewVec(types.New(types.T_int64))
	for i := 0; i < rows; i++ {
		require.NoError(t, vector.AppendBytes(kvec, []byte{byte('a' + i%4)}, false))
		require.NoError(t, vector.AppendFixed(vvec, int64(i), false))
	}
	bat.SetVector(0, kvec)
	bat.SetVector(1, vvec)
	bat.SetRowCount(rows)
	return bat
}

func TestNewSizesVectors(t *testing.T) {
	bat := New([]string{"a", "b", "c"})
	require.Equal(t, 3, bat.VectorCount())
	require.True(t, bat.IsEmpty())
}

func TestGetSubBatch(t *testing.T) {
	bat := testBatch(t, 6)
	sub := bat.GetSubBatch([]string{"v"})
	require.Equal(t, 1, sub.VectorCount())
	require.Equal(t, 6, sub.RowCount())
	require.Same(t, bat.GetVector(1), sub.GetVector(0))
}

func TestPick(t *testing.T) {
	bat := testBatch(t, 3)
	picked := bat.Pick([]int32{1, 0})
	require.Equal(t, []string{"v", "k"}, picked.Attrs)
	require.Same(t, bat.GetVector(0), picked.GetVector(1))
}

func TestWindow(t *testing.T) {
	bat := testBatch(t, 10)
	w := bat.Window(4, 7)
	require.Equal(t, 3, w.RowCount())
	require.Equal(t, int64(4), vector.GetFixedAt[int64](w.GetVector(1), 0))
	require.Equal(t, int64(6), vector.GetFixedAt[int64](w.GetVector(1), 2))
}

func TestAppend(t *testing.T) {
	left := testBatch(t, 2)
	right := testBatch(t, 3)
	got, err := left.Append(context.TODO(), right)
	require.NoError(t, err)
	require.Equal(t, 5, got.RowCount())
	require.Equal(t, int64(2), vector.GetFixedAt[int64](got.GetVector(1), 4))
}

func TestDup(t *testing.T) {
	bat := testBatch(t, 2)
	dup := bat.Dup()
	require.Equal(t, bat.RowCount(), dup.RowCount())
	require.NotSame(t, bat.GetVector(0), dup.GetVector(0))
}

func TestMarshalRoundTrip(t *testing.T) {
	bat := testBatch(t, 4)
	data, err := bat.MarshalBinary()
	require.NoError(t, err)

	got := NewWithSize(0)
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, 4, got.RowCount())
	require.Equal(t, bat.Attrs, got.Attrs)
	require.Equal(t, int64(3), vector.GetFixedAt[int64](got.GetVector(1), 3))
}
