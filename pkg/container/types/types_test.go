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

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeProperties(t *testing.T) {
	require.True(t, New(T_int64).IsFixedLen())
	require.True(t, New(T_bool).IsFixedLen())
	require.False(t, New(T_varchar).IsFixedLen())

	require.Equal(t, 8, New(T_int64).TypeSize())
	require.Equal(t, 8, New(T_float64).TypeSize())
	require.Equal(t, 1, New(T_bool).TypeSize())

	require.True(t, New(T_int64).Eq(New(T_int64)))
	require.False(t, New(T_int64).Eq(New(T_float64)))

	require.Equal(t, "BIGINT", New(T_int64).String())
	require.Equal(t, "VARCHAR", New(T_varchar).String())
}
