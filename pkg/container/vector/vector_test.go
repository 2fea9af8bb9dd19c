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

package vector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstream/colstream/pkg/container/nulls"
	"github.com/colstream/colstream/pkg/container/types"
)

func TestAppendFixed(t *testing.T) {
	vec := NewVec(types.New(types.T_int64))
	require.NoError(t, AppendFixed(vec, int64(7), false))
	require.NoError(t, AppendFixed(vec, int64(0), true))
	require.NoError(t, AppendFixed(vec, int64(9), false))

	require.Equal(t, 3, vec.Length())
	require.False(t, vec.IsNull(0))
	require.True(t, vec.IsNull(1))
	require.Equal(t, []int64{7, 0, 9}, MustFixedCol[int64](vec))

	// type mismatch is an error, not a panic
	require.Error(t, AppendFixed(vec, 3.14, false))
}

func TestAppendFixedList(t *testing.T) {
	vec := NewVec(types.New(types.T_float64))
	require.NoError(t, AppendFixedList(vec, []float64{1, 2, 3}, nulls.Build(3, 1)))
	require.NoError(t, AppendFixedList(vec, []float64{4}, nil))

	require.Equal(t, 4, vec.Length())
	require.True(t, vec.IsNull(1))
	require.False(t, vec.IsNull(3))
	require.Equal(t, 4.0, GetFixedAt[float64](vec, 3))
}

func TestAppendBytes(t *testing.T) {
	vec := NewVec(types.New(types.T_varchar))
	require.NoError(t, AppendBytes(vec, []byte("hello"), false))
	require.NoError(t, AppendBytes(vec, nil, true))

	require.Equal(t, 2, vec.Length())
	require.Equal(t, []byte("hello"), vec.GetBytesAt(0))
	require.True(t, vec.IsNull(1))
	require.Len(t, MustBytesCol(vec), 2)
}

func TestWindow(t *testing.T) {
	vec := NewVec(types.New(types.T_int64))
	require.NoError(t, AppendFixedList(vec, []int64{0, 1, 2, 3, 4, 5}, nulls.Build(6, 3)))

	w := vec.Window(2, 5)
	require.Equal(t, 3, w.Length())
	require.Equal(t, int64(2), GetFixedAt[int64](w, 0))
	require.Equal(t, int64(4), GetFixedAt[int64](w, 2))
	// null at parent row 3 lands at window row 1
	require.True(t, w.IsNull(1))
	require.False(t, w.IsNull(0))
}

func TestUnionOne(t *testing.T) {
	src := NewVec(types.New(types.T_varchar))
	require.NoError(t, AppendBytes(src, []byte("a"), false))
	require.NoError(t, AppendBytes(src, nil, true))

	dst := NewVec(types.New(types.T_varchar))
	require.NoError(t, dst.UnionOne(src, 1))
	require.NoError(t, dst.UnionOne(src, 0))
	require.Equal(t, 2, dst.Length())
	require.True(t, dst.IsNull(0))
	require.Equal(t, []byte("a"), dst.GetBytesAt(1))

	other := NewVec(types.New(types.T_int64))
	require.Error(t, other.UnionOne(src, 0))
}

func TestDup(t *testing.T) {
	vec := NewVec(types.New(types.T_int64))
	require.NoError(t, AppendFixedList(vec, []int64{1, 2}, nulls.Build(2, 0)))

	dup := vec.Dup()
	require.NoError(t, AppendFixed(dup, int64(3), false))
	require.Equal(t, 2, vec.Length())
	require.Equal(t, 3, dup.Length())
	require.True(t, dup.IsNull(0))
}

func TestMarshalRoundTrip(t *testing.T) {
	vec := NewVec(types.New(types.T_varchar))
	require.NoError(t, AppendBytes(vec, []byte("x"), false))
	require.NoError(t, AppendBytes(vec, nil, true))
	require.NoError(t, AppendBytes(vec, []byte("yy"), false))

	data, err := vec.MarshalBinary()
	require.NoError(t, err)

	got := NewVec(types.New(types.T_any))
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, 3, got.Length())
	require.Equal(t, types.T_varchar, got.GetType().Oid)
	require.True(t, got.IsNull(1))
	require.Equal(t, []byte("yy"), got.GetBytesAt(2))
}
