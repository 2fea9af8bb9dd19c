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

	"github.com/colstream/colstream/pkg/colexec/agg"
	"github.com/colstream/colstream/pkg/common/async"
	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/common/taskpool"
	"github.com/colstream/colstream/pkg/config"
	"github.com/colstream/colstream/pkg/container/batch"
	"github.com/colstream/colstream/pkg/container/types"
)

// ExecNode is a push-based operator with at most one output. Upstream
// pushes through InputReceived / InputFinished / ErrorReceived;
// downstream throttles through PauseProducing / ResumeProducing /
// StopProducing. Calls may arrive concurrently from worker goroutines.
type ExecNode interface {
	Label() string

	// Schema describes this node's output batches. Nil for nodes that
	// produce nothing, such as a sink.
	Schema() *Schema

	StartProducing() error

	// Backpressure hints from the downstream node. Advisory.
	PauseProducing(from ExecNode)
	ResumeProducing(from ExecNode)

	// StopProducing is idempotent and may arrive before StartProducing
	// has returned.
	StopProducing()

	InputReceived(from ExecNode, bat *batch.Batch)
	InputFinished(from ExecNode, total int64)
	ErrorReceived(from ExecNode, err error)

	// Finished resolves once this node has drained, stopped or failed.
	Finished() *async.Future
}

// producer lets a downstream node attach itself to its single input
// during construction.
type producer interface {
	setOutput(out ExecNode)
}

// Field names and types one output column.
type Field struct {
	Name string
	Typ  types.Type
}

type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldRef addresses a schema field by name or by position.
type FieldRef struct {
	name string
	pos  int
}

func RefName(name string) FieldRef {
	return FieldRef{name: name, pos: -1}
}

func RefPos(pos int) FieldRef {
	return FieldRef{pos: pos}
}

// FindOne resolves the reference against s.
func (r FieldRef) FindOne(s *Schema) (int, error) {
	if r.name != "" {
		if i := s.FieldIndex(r.name); i >= 0 {
			return i, nil
		}
		return -1, moerr.NewInvalidArg(context.TODO(), "field ref", r.name)
	}
	if r.pos < 0 || r.pos >= len(s.Fields) {
		return -1, moerr.NewInvalidArg(context.TODO(), "field ref", r.pos)
	}
	return r.pos, nil
}

// Generator pulls the next source batch. A nil batch with a nil error
// means end of stream.
type Generator func() (*batch.Batch, error)

// BatchGenerator pulls result batches from a sink. A nil batch with a
// nil error means the stream has drained.
type BatchGenerator func() (*batch.Batch, error)

type SourceOptions struct {
	OutputSchema *Schema
	Generator    Generator
}

// AggSpec names one aggregate function and its options.
type AggSpec struct {
	Fn   string
	Opts *agg.Options
}

// AggregateOptions configure both the scalar aggregate node (empty
// Keys) and the group-by node. Aggregates, Targets and Names run in
// parallel and must have equal length.
type AggregateOptions struct {
	Aggregates []AggSpec
	Targets    []FieldRef
	Names      []string
	Keys       []FieldRef
}

func (o *AggregateOptions) validate() error {
	if len(o.Aggregates) == 0 {
		return moerr.NewInvalidInput(context.TODO(), "aggregate node with no aggregates")
	}
	if len(o.Targets) != len(o.Aggregates) || len(o.Names) != len(o.Aggregates) {
		return moerr.NewInvalidInput(context.TODO(),
			"aggregate node with %d aggregates, %d targets, %d names",
			len(o.Aggregates), len(o.Targets), len(o.Names))
	}
	return nil
}

// Backpressure bounds the sink's in-memory queue. The sink pauses its
// input above High queued batches and resumes below Low.
type Backpressure struct {
	High int
	Low  int
}

type SinkOptions struct {
	// Out receives the pull generator during construction.
	Out *BatchGenerator

	Backpressure *Backpressure

	// Spool overflows queued batches to compressed temp files.
	Spool *SpoolConfig
}

// ExecContext carries the per-plan executor and tuning knobs. A nil
// context or a nil Executor runs the plan serially on caller
// goroutines.
type ExecContext struct {
	Executor taskpool.Executor

	// ChunkSize bounds group-by output batches. Zero or negative picks
	// the default.
	ChunkSize int
}

func (c *ExecContext) executor() taskpool.Executor {
	if c == nil {
		return nil
	}
	return c.Executor
}

func (c *ExecContext) chunkSize() int {
	if c == nil || c.ChunkSize <= 0 {
		return config.DefaultExecChunkSize
	}
	return c.ChunkSize
}

// concurrency is the number of goroutines that may push into a node:
// the executor's workers plus the caller's goroutine.
func (c *ExecContext) concurrency() int {
	if e := c.executor(); e != nil {
		return e.Capacity() + 1
	}
	return 1
}
