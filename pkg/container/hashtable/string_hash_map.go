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
	"github.com/cespare/xxhash/v2"
)

const (
	kInitialBucketCnt = 1024
	kLoadFactorNumer  = 1
	kLoadFactorDenom  = 2
)

type StringHashMapCell struct {
	HashState uint64
	Mapped    uint64 // group id, starting from 1; 0 means empty cell
}

// StringHashMap maps byte-string keys to dense ids assigned in insertion
// order. Open addressing with linear probing over 64-bit xxhash values.
type StringHashMap struct {
	bucketCntBits uint8
	bucketCnt     uint64
	elemCnt       uint64
	maxElemCnt    uint64
	cells         []StringHashMapCell
	// keys[id-1] is the inserted key for id, kept for collision checks.
	keys [][]byte
}

func (ht *StringHashMap) Init() {
	ht.bucketCntBits = 10
	ht.bucketCnt = kInitialBucketCnt
	ht.maxElemCnt = kInitialBucketCnt * kLoadFactorNumer / kLoadFactorDenom
	ht.cells = make([]StringHashMapCell, kInitialBucketCnt)
}

func hashOf(key []byte) uint64 {
	h := xxhash.Sum64(key)
	if h == 0 {
		h = 1 // 0 marks an empty cell
	}
	return h
}

// Insert returns the id of key, assigning the next dense id if the key
// is new.
func (ht *StringHashMap) Insert(key []byte) (id uint64, isNew bool) {
	if ht.elemCnt >= ht.maxElemCnt {
		ht.resize()
	}
	hash := hashOf(key)
	cell := ht.findCell(hash, key)
	if cell.Mapped != 0 {
		return cell.Mapped, false
	}
	ht.elemCnt++
	ht.keys = append(ht.keys, append([]byte{}, key...))
	cell.HashState = hash
	cell.Mapped = ht.elemCnt
	return cell.Mapped, true
}

// Find returns the id of key, 0 if absent.
func (ht *StringHashMap) Find(key []byte) uint64 {
	hash := hashOf(key)
	return ht.findCell(hash, key).Mapped
}

func (ht *StringHashMap) Cardinality() uint64 {
	return ht.elemCnt
}

// Key returns the inserted key for a given id.
func (ht *StringHashMap) Key(id uint64) []byte {
	return ht.keys[id-1]
}

func (ht *StringHashMap) findCell(hash uint64, key []byte) *StringHashMapCell {
	mask := ht.bucketCnt - 1
	for idx := hash & mask; ; idx = (idx + 1) & mask {
		cell := &ht.cells[idx]
		if cell.Mapped == 0 {
			return cell
		}
		if cell.HashState == hash && string(ht.keys[cell.Mapped-1]) == string(key) {
			return cell
		}
	}
}

func (ht *StringHashMap) resize() {
	oldCells := ht.cells
	ht.bucketCntBits += 2
	ht.bucketCnt = uint64(1) << ht.bucketCntBits
	ht.maxElemCnt = ht.bucketCnt * kLoadFactorNumer / kLoadFactorDenom
	ht.cells = make([]StringHashMapCell, ht.bucketCnt)

	mask := ht.bucketCnt - 1
	for i := range oldCells {
		cell := &oldCells[i]
		if cell.Mapped == 0 {
			continue
		}
		for idx := cell.HashState & mask; ; idx = (idx + 1) & mask {
			if ht.cells[idx].Mapped == 0 {
				ht.cells[idx] = *cell
				break
			}
		}
	}
}
