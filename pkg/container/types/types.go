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

import "fmt"

type T uint8

const (
	// T_any is the zero value, an untyped column.
	T_any T = iota
	T_bool
	T_int64
	T_float64
	T_varchar
)

// Type describes a column type. Width is only meaningful for T_varchar
// and 0 means unbounded.
type Type struct {
	Oid   T
	Width int32
}

func New(oid T) Type {
	return Type{Oid: oid}
}

func (t Type) IsFixedLen() bool {
	switch t.Oid {
	case T_bool, T_int64, T_float64:
		return true
	}
	return false
}

// TypeSize returns the in-memory size of one value, -1 for variable
// length types.
func (t Type) TypeSize() int {
	switch t.Oid {
	case T_bool:
		return 1
	case T_int64, T_float64:
		return 8
	}
	return -1
}

func (t Type) String() string {
	switch t.Oid {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int64:
		return "BIGINT"
	case T_float64:
		return "DOUBLE"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unknown type oid %d", t.Oid)
}

func (t Type) Eq(other Type) bool {
	return t.Oid == other.Oid
}
