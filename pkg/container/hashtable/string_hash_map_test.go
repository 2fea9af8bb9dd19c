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

package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertFind(t *testing.T) {
	var m StringHashMap
	m.Init()

	id, isNew := m.Insert([]byte("alpha"))
	require.True(t, isNew)
	require.Equal(t, uint64(1), id)

	id, isNew = m.Insert([]byte("alpha"))
	require.False(t, isNew)
	require.Equal(t, uint64(1), id)

	id, isNew = m.Insert([]byte("beta"))
	require.True(t, isNew)
	require.Equal(t, uint64(2), id)

	require.Equal(t, uint64(1), m.Find([]byte("alpha")))
	require.Equal(t, uint64(0), m.Find([]byte("missing")))
	require.Equal(t, uint64(2), m.Cardinality())
}

func TestKeyById(t *testing.T) {
	var m StringHashMap
	m.Init()
	m.Insert([]byte("x"))
	m.Insert([]byte("y"))
	require.Equal(t, []byte("x"), m.Key(1))
	require.Equal(t, []byte("y"), m.Key(2))
}

func TestGrowsPastInitialBuckets(t *testing.T) {
	var m StringHashMap
	m.Init()
	const n = 5000
	for i := 0; i < n; i++ {
		id, isNew := m.Insert([]byte(fmt.Sprintf("key-%05d", i)))
		require.True(t, isNew)
		require.Equal(t, uint64(i+1), id)
	}
	require.Equal(t, uint64(n), m.Cardinality())
	for i := 0; i < n; i += 97 {
		require.Equal(t, uint64(i+1), m.Find([]byte(fmt.Sprintf("key-%05d", i))))
	}
}
