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

package exec

import (
	"context"
	"sync"

	"github.com/colstream/colstream/pkg/common/moerr"
)

// NodeFactory builds a node from untyped options. The concrete options
// type is per factory.
type NodeFactory func(plan *ExecPlan, inputs []ExecNode, opts any) (ExecNode, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]NodeFactory{
		"source":    makeSourceNode,
		"aggregate": makeAggregateNode,
		"sink":      makeSinkNode,
	}
)

// RegisterFactory adds a custom factory. Re-registering a name is an
// error.
func RegisterFactory(name string, f NodeFactory) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return moerr.NewInvalidState(context.TODO(), "node factory %s registered twice", name)
	}
	registry[name] = f
	return nil
}

// MakeNode builds a node via the named factory and registers it with
// the plan.
func MakeNode(name string, plan *ExecPlan, inputs []ExecNode, opts any) (ExecNode, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, moerr.NewInvalidInput(context.TODO(), "node factory %s does not exist", name)
	}
	return f(plan, inputs, opts)
}

func makeSourceNode(plan *ExecPlan, inputs []ExecNode, opts any) (ExecNode, error) {
	o, ok := opts.(*SourceOptions)
	if !ok {
		return nil, moerr.NewInvalidArg(context.TODO(), "source options", opts)
	}
	if len(inputs) != 0 {
		return nil, moerr.NewInvalidInput(context.TODO(), "source node with %d inputs", len(inputs))
	}
	return NewSourceNode(plan, o)
}

// makeAggregateNode picks the scalar or the group-by node by the
// presence of keys.
func makeAggregateNode(plan *ExecPlan, inputs []ExecNode, opts any) (ExecNode, error) {
	o, ok := opts.(*AggregateOptions)
	if !ok {
		return nil, moerr.NewInvalidArg(context.TODO(), "aggregate options", opts)
	}
	if len(inputs) != 1 {
		return nil, moerr.NewInvalidInput(context.TODO(), "aggregate node with %d inputs", len(inputs))
	}
	if len(o.Keys) == 0 {
		return NewScalarAggNode(plan, inputs[0], o)
	}
	return NewGroupByNode(plan, inputs[0], o)
}

func makeSinkNode(plan *ExecPlan, inputs []ExecNode, opts any) (ExecNode, error) {
	o, ok := opts.(*SinkOptions)
	if !ok {
		return nil, moerr.NewInvalidArg(context.TODO(), "sink options", opts)
	}
	if len(inputs) != 1 {
		return nil, moerr.NewInvalidInput(context.TODO(), "sink node with %d inputs", len(inputs))
	}
	return NewSinkNode(plan, inputs[0], o)
}
