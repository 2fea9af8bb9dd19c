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

package agg

import (
	"context"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/types"
)

type maker func(ityp types.Type, opts *Options) (Agg, error)

type Desc struct {
	Kinds Kind
	make  maker
}

var aggFuncs = map[string]Desc{
	"sum":                   {Kinds: KindScalar | KindHash, make: newSum},
	"count":                 {Kinds: KindScalar | KindHash, make: newCount},
	"min":                   {Kinds: KindScalar | KindHash, make: newMin},
	"max":                   {Kinds: KindScalar | KindHash, make: newMax},
	"avg":                   {Kinds: KindScalar | KindHash, make: newAvg},
	"approx_count_distinct": {Kinds: KindScalar | KindHash, make: newApproxCountDistinct},
}

// Lookup returns the descriptor of a function name.
func Lookup(name string) (Desc, bool) {
	d, ok := aggFuncs[name]
	return d, ok
}

func (d Desc) HasKind(k Kind) bool {
	return d.Kinds&k != 0
}

// New builds one aggregate state for the given input type. opts must
// already be a node-owned copy.
func New(name string, ityp types.Type, opts *Options) (Agg, error) {
	d, ok := aggFuncs[name]
	if !ok {
		return nil, moerr.NewInvalidInput(context.TODO(), "aggregate function %s does not exist", name)
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return d.make(ityp, opts)
}
