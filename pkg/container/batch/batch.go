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
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/vector"
)

func New(attrs []string) *Batch {
	return &Batch{
		Attrs: attrs,
		Vecs:  make([]*vector.Vector, len(attrs)),
	}
}

func NewWithSize(n int) *Batch {
	return &Batch{
		Vecs: make([]*vector.Vector, n),
	}
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(n int) {
	bat.rowCount = n
}

func (bat *Batch) VectorCount() int {
	return len(bat.Vecs)
}

func (bat *Batch) SetAttributes(attrs []string) {
	bat.Attrs = attrs
}

func (bat *Batch) SetVector(pos int32, vec *vector.Vector) {
	bat.Vecs[pos] = vec
}

func (bat *Batch) GetVector(pos int32) *vector.Vector {
	return bat.Vecs[pos]
}

// GetSubBatch returns a batch holding only the named columns, sharing
// the underlying vectors.
func (bat *Batch) GetSubBatch(cols []string) *Batch {
	mp := make(map[string]int)
	for i, attr := range bat.Attrs {
		mp[attr] = i
	}
	rbat := NewWithSize(len(cols))
	for i, col := range cols {
		rbat.Vecs[i] = bat.Vecs[mp[col]]
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

// Pick returns a batch holding the columns at the given positions,
// sharing the underlying vectors.
func (bat *Batch) Pick(poses []int32) *Batch {
	rbat := NewWithSize(len(poses))
	for i, pos := range poses {
		rbat.Vecs[i] = bat.Vecs[pos]
		if bat.Attrs != nil {
			rbat.Attrs = append(rbat.Attrs, bat.Attrs[pos])
		}
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

// Window returns a read-only view of rows [start, end).
func (bat *Batch) Window(start, end int) *Batch {
	rbat := NewWithSize(len(bat.Vecs))
	rbat.Attrs = bat.Attrs
	for i, vec := range bat.Vecs {
		rbat.Vecs[i] = vec.Window(start, end)
	}
	rbat.rowCount = end - start
	return rbat
}

// Append appends the rows of b to bat. The receiver must own its
// vectors, appending to a window is an error of the caller.
func (bat *Batch) Append(ctx context.Context, b *Batch) (*Batch, error) {
	if bat == nil {
		return b.Dup(), nil
	}
	if len(bat.Vecs) != len(b.Vecs) {
		return nil, moerr.NewInternalError(ctx, "unexpected error happens in batch append")
	}
	for i := range bat.Vecs {
		for row := 0; row < b.rowCount; row++ {
			if err := bat.Vecs[i].UnionOne(b.Vecs[i], int64(row)); err != nil {
				return bat, err
			}
		}
	}
	bat.rowCount += b.rowCount
	return bat, nil
}

func (bat *Batch) Dup() *Batch {
	rbat := NewWithSize(len(bat.Vecs))
	rbat.Attrs = append([]string{}, bat.Attrs...)
	for i, vec := range bat.Vecs {
		rbat.Vecs[i] = vec.Dup()
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

func (bat *Batch) IsEmpty() bool {
	return bat.rowCount == 0
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}

func (bat *Batch) MarshalBinary() ([]byte, error) {
	eb := encodeBatch{
		RowCount: bat.rowCount,
		Attrs:    bat.Attrs,
		Vecs:     make([][]byte, len(bat.Vecs)),
	}
	for i, vec := range bat.Vecs {
		data, err := vec.MarshalBinary()
		if err != nil {
			return nil, err
		}
		eb.Vecs[i] = data
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&eb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (bat *Batch) UnmarshalBinary(data []byte) error {
	var eb encodeBatch
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&eb); err != nil {
		return err
	}
	bat.rowCount = eb.RowCount
	bat.Attrs = eb.Attrs
	bat.Vecs = make([]*vector.Vector, len(eb.Vecs))
	for i, vdata := range eb.Vecs {
		bat.Vecs[i] = new(vector.Vector)
		if err := bat.Vecs[i].UnmarshalBinary(vdata); err != nil {
			return err
		}
	}
	return nil
}
