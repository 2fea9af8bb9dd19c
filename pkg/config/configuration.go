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

package config

import (
	"context"

	"github.com/BurntSushi/toml"
	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/logutil"
)

const (
	// DefaultExecChunkSize is the row count of emitted group-by chunks
	// when the configuration leaves it unset or negative.
	DefaultExecChunkSize = 32 * 1024
)

// EngineConfig are the tunables of the execution engine.
type EngineConfig struct {
	// Capacity is the worker count of the CPU pool. 0 derives it from
	// the environment (OMP_NUM_THREADS / hardware concurrency).
	Capacity int `toml:"capacity"`

	// ExecChunkSize bounds the row count of batches emitted by the
	// group-by output stage. Negative or zero means the default.
	ExecChunkSize int `toml:"exec-chunksize"`

	// SpillDir, when set, lets sinks spool received batches to
	// compressed files under this directory instead of holding them
	// in memory.
	SpillDir string `toml:"spill-dir"`

	Log logutil.LogConfig `toml:"log"`
}

func Default() *EngineConfig {
	return &EngineConfig{
		ExecChunkSize: DefaultExecChunkSize,
		Log:           logutil.LogConfig{Level: "info"},
	}
}

// Load reads a toml file and fills the unset fields with defaults.
func Load(path string) (*EngineConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfig(context.TODO(), "parse %s: %v", path, err)
	}
	if cfg.ExecChunkSize <= 0 {
		cfg.ExecChunkSize = DefaultExecChunkSize
	}
	if cfg.Capacity < 0 {
		return nil, moerr.NewBadConfig(context.TODO(), "capacity %d is negative", cfg.Capacity)
	}
	return cfg, nil
}
