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
	"encoding/gob"
	"io"
	"os"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pierrec/lz4"

	"github.com/colstream/colstream/pkg/common/moerr"
	"github.com/colstream/colstream/pkg/container/batch"
	"github.com/colstream/colstream/pkg/logutil"
)

// SpoolConfig enables sink overflow to disk. Batches beyond
// AfterBatches queued in memory go to an lz4-compressed temp file under
// Dir and replay once the stream has drained.
type SpoolConfig struct {
	// Dir holds the temp file. Empty means the OS temp dir.
	Dir string

	// AfterBatches is the in-memory queue length that triggers
	// spooling.
	AfterBatches int
}

// spool writes overflow batches to one compressed file on a single
// background worker, preserving write order.
type spool struct {
	cfg *SpoolConfig

	workers *ants.Pool
	wg      sync.WaitGroup

	mu   sync.Mutex
	f    *os.File
	zw   *lz4.Writer
	enc  *gob.Encoder
	zr   io.Reader
	dec  *gob.Decoder
	err  error
	path string
}

func newSpool(cfg *SpoolConfig) (*spool, error) {
	if cfg.AfterBatches <= 0 {
		return nil, moerr.NewBadConfig(context.TODO(), "spool after %d batches", cfg.AfterBatches)
	}
	f, err := os.CreateTemp(cfg.Dir, "colstream-spool-*.lz4")
	if err != nil {
		return nil, moerr.NewIOError(context.TODO(), "create spool file: %v", err)
	}
	workers, err := ants.NewPool(1)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	zw := lz4.NewWriter(f)
	return &spool{
		cfg:     cfg,
		workers: workers,
		f:       f,
		zw:      zw,
		enc:     gob.NewEncoder(zw),
		path:    f.Name(),
	}, nil
}

// put schedules bat for writing. Write failures surface at seal time.
func (s *spool) put(bat *batch.Batch) {
	s.wg.Add(1)
	err := s.workers.Submit(func() {
		defer s.wg.Done()
		data, err := bat.MarshalBinary()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.err != nil {
			return
		}
		if err == nil {
			err = s.enc.Encode(data)
		}
		if err != nil {
			s.err = moerr.NewIOError(context.TODO(), "spool write: %v", err)
			logutil.Errorf("sink spool write failed: %v", err)
		}
	})
	if err != nil {
		s.wg.Done()
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
}

// seal waits out pending writes and flips the file to read mode.
func (s *spool) seal() error {
	s.wg.Wait()
	s.workers.Release()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.zw.Close(); err != nil && s.err == nil {
		s.err = moerr.NewIOError(context.TODO(), "spool flush: %v", err)
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil && s.err == nil {
		s.err = moerr.NewIOError(context.TODO(), "spool rewind: %v", err)
	}
	s.zr = lz4.NewReader(s.f)
	s.dec = gob.NewDecoder(s.zr)
	return s.err
}

// next replays one spooled batch, nil at the end.
func (s *spool) next() (*batch.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.dec == nil {
		return nil, moerr.NewInvalidState(context.TODO(), "reading an unsealed spool")
	}
	var data []byte
	if err := s.dec.Decode(&data); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, moerr.NewIOError(context.TODO(), "spool read: %v", err)
	}
	bat := batch.NewWithSize(0)
	if err := bat.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return bat, nil
}

// discard waits out pending writes and removes the file without ever
// flipping to read mode. Used when the stream stops instead of draining.
func (s *spool) discard() {
	s.wg.Wait()
	s.workers.Release()
	s.close()
}

func (s *spool) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		s.f.Close()
		os.Remove(s.path)
		s.f = nil
	}
}
