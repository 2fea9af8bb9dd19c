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

// colstream-demo runs a small source -> group-by -> sink plan over
// generated data and prints the aggregated result.
//
// Usage:
//
//	colstream-demo [-config engine.toml] [-rows 100000]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/colstream/colstream/pkg/colexec/agg"
	"github.com/colstream/colstream/pkg/common/taskpool"
	"github.com/colstream/colstream/pkg/config"
	"github.com/colstream/colstream/pkg/container/batch"
	"github.com/colstream/colstream/pkg/container/types"
	"github.com/colstream/colstream/pkg/container/vector"
	"github.com/colstream/colstream/pkg/exec"
	"github.com/colstream/colstream/pkg/logutil"
)

var (
	configFile = flag.String("config", "", "path of the engine toml configuration")
	totalRows  = flag.Int("rows", 100000, "number of generated input rows")
	batchRows  = flag.Int("batch-rows", 8192, "rows per generated batch")
)

var regions = []string{"emea", "apac", "amer", "latam"}

func makeGenerator(rows, perBatch int) exec.Generator {
	rng := rand.New(rand.NewSource(1))
	left := rows
	return func() (*batch.Batch, error) {
		if left <= 0 {
			return nil, nil
		}
		n := min(perBatch, left)
		left -= n
		kvec := vector.NewVec(types.New(types.T_varchar))
		vvec := vector.NewVec(types.New(types.T_float64))
		for i := 0; i < n; i++ {
			if err := vector.AppendBytes(kvec, []byte(regions[rng.Intn(len(regions))]), false); err != nil {
				return nil, err
			}
			if err := vector.AppendFixed(vvec, rng.Float64()*100, false); err != nil {
				return nil, err
			}
		}
		bat := batch.New([]string{"region", "amount"})
		bat.SetVector(0, kvec)
		bat.SetVector(1, vvec)
		bat.SetRowCount(n)
		return bat, nil
	}
}

func run() error {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logutil.SetupWithConfig(&cfg.Log)

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = taskpool.DefaultCapacity()
	}
	pool := taskpool.New(capacity)
	defer pool.Shutdown(true)
	logutil.Infof("running with %d workers, chunk size %d", capacity, cfg.ExecChunkSize)

	plan := exec.NewPlan(&exec.ExecContext{Executor: pool, ChunkSize: cfg.ExecChunkSize})
	src, err := exec.NewSourceNode(plan, &exec.SourceOptions{
		OutputSchema: exec.NewSchema(
			exec.Field{Name: "region", Typ: types.New(types.T_varchar)},
			exec.Field{Name: "amount", Typ: types.New(types.T_float64)},
		),
		Generator: makeGenerator(*totalRows, *batchRows),
	})
	if err != nil {
		return err
	}
	gb, err := exec.NewGroupByNode(plan, src, &exec.AggregateOptions{
		Aggregates: []exec.AggSpec{
			{Fn: "sum"},
			{Fn: "count"},
			{Fn: "avg", Opts: &agg.Options{SkipNulls: true, MinCount: 1}},
		},
		Targets: []exec.FieldRef{exec.RefName("amount"), exec.RefName("amount"), exec.RefName("amount")},
		Names:   []string{"sum_amount", "n", "avg_amount"},
		Keys:    []exec.FieldRef{exec.RefName("region")},
	})
	if err != nil {
		return err
	}
	var out exec.BatchGenerator
	sinkOpts := &exec.SinkOptions{Out: &out}
	if cfg.SpillDir != "" {
		sinkOpts.Spool = &exec.SpoolConfig{Dir: cfg.SpillDir, AfterBatches: 4}
	}
	if _, err := exec.NewSinkNode(plan, gb, sinkOpts); err != nil {
		return err
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if err := plan.StartProducing(); err != nil {
		return err
	}

	fmt.Printf("%-8s %14s %10s %12s\n", "region", "sum", "count", "avg")
	for {
		bat, err := out()
		if err != nil {
			return err
		}
		if bat == nil {
			break
		}
		for r := 0; r < bat.RowCount(); r++ {
			fmt.Printf("%-8s %14.2f %10d %12.2f\n",
				bat.GetVector(3).GetBytesAt(r),
				vector.GetFixedAt[float64](bat.GetVector(0), r),
				vector.GetFixedAt[int64](bat.GetVector(1), r),
				vector.GetFixedAt[float64](bat.GetVector(2), r))
		}
	}
	return plan.Finished().Wait()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logutil.Errorf("demo failed: %v", err)
		os.Exit(1)
	}
}
