// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/timer"
	"cogentcore.org/gpubench/kernel"
	"golang.org/x/sync/errgroup"
)

// DefaultPoolGroupSize is the default MaxGroupSize of a [Pool].
const DefaultPoolGroupSize = 1024

// Pool is an [Engine] that runs each group as a task on a bounded
// pool of goroutines. It is the CPU counterpart of the GPU engine,
// and is always available.
type Pool struct {

	// Workers is the maximum number of groups running at the same time.
	// 0 means runtime.GOMAXPROCS(0).
	Workers int

	// MaxGroupSize is the largest group size the pool accepts.
	MaxGroupSize int
}

// NewPool returns a new [Pool] with the given number of workers
// (0 = GOMAXPROCS) and the default max group size.
func NewPool(workers int) *Pool {
	return &Pool{Workers: workers, MaxGroupSize: DefaultPoolGroupSize}
}

func (pl *Pool) workers() int {
	if pl.Workers > 0 {
		return pl.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (pl *Pool) Capabilities() Capabilities {
	mx := pl.MaxGroupSize
	if mx <= 0 {
		mx = DefaultPoolGroupSize
	}
	return Capabilities{
		Name:                  fmt.Sprintf("%s/%s goroutine pool (%d workers)", runtime.GOOS, runtime.GOARCH, pl.workers()),
		Backend:               "cpu",
		MaxGroupSize:          mx,
		MaxInvocations:        mx,
		MaxGroupsPerDimension: math.MaxInt32,
	}
}

func (pl *Pool) Compile(pars *kernel.Params, groupSize int) (Kernel, error) {
	if err := pars.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	caps := pl.Capabilities()
	if groupSize <= 0 || groupSize > caps.MaxGroupSize {
		return nil, fmt.Errorf("%w: group size %d outside [1, %d]", ErrInvalidInput, groupSize, caps.MaxGroupSize)
	}
	return &poolKernel{pool: pl, pars: *pars, groupSize: groupSize}, nil
}

// Release is a no-op: the pool holds no resources between dispatches.
func (pl *Pool) Release() {}

// poolKernel is the compiled [Kernel] of a [Pool].
type poolKernel struct {
	pool      *Pool
	pars      kernel.Params
	groupSize int
}

func (pk *poolKernel) Dispatch(ctx context.Context, in, out []float32, groupCount int) (Timing, error) {
	var tm Timing
	if err := CheckDispatch(in, out, pk.groupSize, groupCount); err != nil {
		return tm, err
	}
	n := len(in)
	tmr := timer.Time{}
	tmr.Start()
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(pk.pool.workers())
	var stopped error
	for g := range groupCount {
		st := g * pk.groupSize
		if st >= n {
			break
		}
		if err := ectx.Err(); err != nil {
			stopped = err
			break
		}
		ed := min(st+pk.groupSize, n)
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			pk.pars.TransformSlice(in[st:ed], out[st:ed])
			return nil
		})
	}
	err := eg.Wait()
	if err == nil {
		err = stopped
	}
	tmr.Stop()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return tm, fmt.Errorf("%w: %w", ErrSynchronizationTimeout, err)
		}
		return tm, err
	}
	tm.Compute = tmr.Total
	tm.Full = tmr.Total
	return tm, nil
}

// Release is a no-op for the pool.
func (pk *poolKernel) Release() {}
