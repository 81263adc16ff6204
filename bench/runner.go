// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bench runs the single-shot parallel map benchmark: it applies
// the transform to a random input vector once on a parallel
// [compute.Engine] and once as a sequential host loop, and reports
// the elapsed times and their ratio.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cogentcore.org/core/base/timer"
	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/kernel"
)

// Stage is a step of [Runner.Run].
type Stage int32

const (
	StageInit Stage = iota
	StageGenerateInput
	StageRunParallel
	StageRunSequential
	StageCompare
	StageReport
	StageDone
)

var stageNames = [...]string{"Init", "GenerateInput", "RunParallel", "RunSequential", "Compare", "Report", "Done"}

func (st Stage) String() string {
	if st < 0 || int(st) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int32(st))
	}
	return stageNames[st]
}

// Runner is the benchmark runner. The engine is owned by the caller,
// and no buffers are kept between runs.
type Runner struct {

	// Config is the benchmark configuration.
	Config Config

	// Engine is the parallel execution capability.
	Engine compute.Engine

	// Caps are the engine capabilities, queried once in [NewRunner].
	Caps compute.Capabilities

	pars kernel.Params
}

// NewRunner returns a new runner for the given configuration and engine.
func NewRunner(cfg Config, engine compute.Engine) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("bench.NewRunner: %w", compute.ErrCapabilityUnavailable)
	}
	rn := &Runner{Config: cfg, Engine: engine, pars: cfg.Params()}
	rn.Caps = engine.Capabilities()
	slog.Debug("bench: engine capabilities", "backend", rn.Caps.Backend, "name", rn.Caps.Name,
		"maxGroupSize", rn.Caps.MaxGroupSize, "maxInvocations", rn.Caps.MaxInvocations)
	return rn, nil
}

// GroupSize returns the group size used for the configured max parallel width.
func (rn *Runner) GroupSize() int {
	return compute.GroupSize(rn.Config.MaxParallelWidth, rn.Caps)
}

// RunParallel applies the transform to in on the engine, with the
// configured group size, returning the results and their timing.
func (rn *Runner) RunParallel(ctx context.Context, in Input) ([]float32, compute.Timing, error) {
	return rn.RunParallelWith(ctx, in, rn.GroupSize())
}

// RunParallelWith is [Runner.RunParallel] with the given group size.
// The results do not depend on the group size.
func (rn *Runner) RunParallelWith(ctx context.Context, in Input, groupSize int) ([]float32, compute.Timing, error) {
	if len(in) == 0 {
		return nil, compute.Timing{}, fmt.Errorf("%w: empty input vector", compute.ErrInvalidInput)
	}
	kn, err := rn.Engine.Compile(&rn.pars, groupSize)
	if err != nil {
		return nil, compute.Timing{}, err
	}
	defer kn.Release()
	out := make([]float32, len(in))
	tm, err := rn.dispatch(ctx, kn, in, out, groupSize)
	if err != nil {
		return nil, tm, err
	}
	return out, tm, nil
}

// dispatch runs one dispatch of kn, bounded by the configured timeout.
func (rn *Runner) dispatch(ctx context.Context, kn compute.Kernel, in Input, out []float32, groupSize int) (compute.Timing, error) {
	if rn.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rn.Config.Timeout)
		defer cancel()
	}
	return kn.Dispatch(ctx, in, out, compute.GroupCount(len(in), groupSize))
}

// RunSequential applies the transform to each element of in, in index
// order, on the calling goroutine. The elapsed time covers only the loop.
func (rn *Runner) RunSequential(in Input) ([]float32, time.Duration, error) {
	if len(in) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input vector", compute.ErrInvalidInput)
	}
	out := make([]float32, len(in))
	tmr := timer.Time{}
	tmr.Start()
	for i, x := range in {
		out[i] = rn.pars.Transform(x)
	}
	tmr.Stop()
	return out, tmr.Total, nil
}

func (rn *Runner) stage(st Stage, args ...any) {
	slog.Debug("bench: "+st.String(), args...)
}

// Run runs the benchmark: it generates the input, runs the parallel
// path (after any warmup) and the sequential path Repeats times each,
// verifies the results and returns the report. Any error ends the run
// without a report.
func (rn *Runner) Run(ctx context.Context) (*Report, error) {
	cf := &rn.Config
	rn.stage(StageInit, "n", cf.InputSize, "iterations", cf.Iterations, "maxParallelWidth", cf.MaxParallelWidth)

	rn.stage(StageGenerateInput, "seed", cf.Seed)
	in, err := GenerateInput(cf.InputSize, cf.Seed)
	if err != nil {
		return nil, err
	}

	gs := rn.GroupSize()
	gc := compute.GroupCount(len(in), gs)
	rn.stage(StageRunParallel, "groupSize", gs, "groupCount", gc, "warmup", cf.Warmup)
	kn, err := rn.Engine.Compile(&rn.pars, gs)
	if err != nil {
		return nil, fmt.Errorf("compiling transform for %s: %w", rn.Caps.Backend, err)
	}
	defer kn.Release()
	dev := make([]float32, len(in))
	for range cf.Warmup {
		if _, err := rn.dispatch(ctx, kn, in, dev, gs); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}
	devMs := make([]float64, cf.Repeats)
	fullMs := make([]float64, cf.Repeats)
	for r := range cf.Repeats {
		tm, err := rn.dispatch(ctx, kn, in, dev, gs)
		if err != nil {
			return nil, fmt.Errorf("parallel run: %w", err)
		}
		devMs[r] = durationMs(tm.Compute)
		fullMs[r] = durationMs(tm.Full)
	}

	rn.stage(StageRunSequential)
	var host []float32
	hostMs := make([]float64, cf.Repeats)
	for r := range cf.Repeats {
		out, el, err := rn.RunSequential(in)
		if err != nil {
			return nil, err
		}
		host = out
		hostMs[r] = durationMs(el)
	}

	rn.stage(StageCompare)
	hm, hs := meanStd(hostMs)
	dm, ds := meanStd(devMs)
	fm, _ := meanStd(fullMs)
	rep := Compare(hm, dm)
	rep.MaxAbsDiff, rep.Mismatches = Verify(dev, host, cf.Tolerance)

	rn.stage(StageReport)
	rep.DeviceFullMs = fm
	rep.N = len(in)
	rep.Iterations = cf.Iterations
	rep.GroupSize = gs
	rep.GroupCount = gc
	rep.Backend = rn.Caps.Backend
	rep.DeviceName = rn.Caps.Name
	rep.Repeats = cf.Repeats
	rep.HostStdMs = hs
	rep.DeviceStdMs = ds
	rep.HostRunsMs = hostMs
	rep.DeviceRunsMs = devMs
	rep.Tolerance = cf.Tolerance
	rep.Timestamp = time.Now()

	rn.stage(StageDone, "ratio", rep.SpeedupRatio)
	return &rep, nil
}

// Sweep runs the parallel path over the same input once for each of
// the given group sizes, each clamped to the engine limits, and compares
// the results to each other and to one sequential run.
func (rn *Runner) Sweep(ctx context.Context, groupSizes []int) (*SweepReport, error) {
	if len(groupSizes) == 0 {
		return nil, fmt.Errorf("%w: no group sizes to sweep", compute.ErrInvalidInput)
	}
	cf := &rn.Config
	in, err := GenerateInput(cf.InputSize, cf.Seed)
	if err != nil {
		return nil, err
	}
	host, hostEl, err := rn.RunSequential(in)
	if err != nil {
		return nil, err
	}
	sw := &SweepReport{
		N:             len(in),
		Iterations:    cf.Iterations,
		Backend:       rn.Caps.Backend,
		DeviceName:    rn.Caps.Name,
		HostElapsedMs: durationMs(hostEl),
		Tolerance:     cf.Tolerance,
		Invariant:     true,
	}
	var first []float32
	for _, req := range groupSizes {
		gs := compute.GroupSize(req, rn.Caps)
		if gs != req {
			slog.Warn("bench: group size clamped to engine limits", "requested", req, "used", gs)
		}
		out, tm, err := rn.RunParallelWith(ctx, in, gs)
		if err != nil {
			return nil, fmt.Errorf("group size %d: %w", gs, err)
		}
		pt := SweepPoint{
			GroupSize:       gs,
			GroupCount:      compute.GroupCount(len(in), gs),
			DeviceElapsedMs: durationMs(tm.Compute),
			DeviceFullMs:    durationMs(tm.Full),
		}
		pt.SpeedupRatio = Compare(sw.HostElapsedMs, pt.DeviceElapsedMs).SpeedupRatio
		pt.MaxAbsDiff, _ = Verify(out, host, cf.Tolerance)
		if first == nil {
			first = out
		} else {
			var miss int
			pt.PartitionDiff, miss = Verify(out, first, cf.Tolerance)
			if miss > 0 {
				sw.Invariant = false
			}
		}
		sw.Points = append(sw.Points, pt)
	}
	sw.Timestamp = time.Now()
	return sw, nil
}
