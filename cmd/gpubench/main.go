// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gpubench compares the time of an iterative sine map over a
// random vector, run once on a parallel engine (the GPU by default) and
// once as a sequential host loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/cli"
	"cogentcore.org/gpubench/bench"
	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/gpu"
	"cogentcore.org/gpubench/report"
)

func init() {
	// must lock main thread for gpu!
	runtime.LockOSThread()
}

// Config is the configuration for gpubench.
type Config struct {

	// Backend is the parallel engine: gpu, cpu (goroutine pool),
	// or auto (gpu if available, else cpu).
	Backend string `default:"gpu" flag:"b,backend"`

	// InputSize is the number of elements in the input vector.
	InputSize int `default:"100000" flag:"n,input-size"`

	// Iterations is the number of transform steps per element.
	Iterations int `default:"1000" flag:"k,iterations"`

	// MaxParallelWidth is the maximum group (workgroup) size.
	MaxParallelWidth int `default:"256" flag:"w,width"`

	// Seed for the random input; 0 uses the current time.
	Seed int64

	// Repeats is the number of timed runs of each path.
	Repeats int `default:"1"`

	// Warmup is the number of untimed parallel runs.
	Warmup int

	// Tolerance for differences between the parallel and sequential results.
	Tolerance float64 `default:"0.0001"`

	// Timeout in seconds for waiting on the parallel engine; 0 = none.
	Timeout int `default:"30"`

	// Workers is the number of goroutines of the cpu backend; 0 = GOMAXPROCS.
	Workers int

	// LowPower requests a low power GPU adapter.
	LowPower bool

	// Save are files to save the report to: .json, .toml, .svg, .png or .pdf.
	// The sweep command saves the sweep report, or a plot of it.
	Save []string

	// SweepSizes are the group sizes of the sweep command.
	SweepSizes []int `cmd:"sweep"`

	// Verbose logs each stage of the run.
	Verbose bool `flag:"v,verbose"`

	// GPUDebug prints the generated shader and buffer sizes.
	GPUDebug bool
}

// DefaultSweepSizes are the group sizes swept if none are given.
var DefaultSweepSizes = []int{32, 64, 128, 256}

func main() {
	opts := cli.DefaultOptions("gpubench", "Compares the time of an elementwise transform on a parallel engine and on the host.")
	opts.DefaultFiles = []string{"gpubench.toml"}
	cli.Run(opts, &Config{},
		&cli.Cmd[*Config]{Func: Run, Name: "run", Doc: "Run runs the benchmark once and prints the report.", Root: true},
		&cli.Cmd[*Config]{Func: Sweep, Name: "sweep", Doc: "Sweep runs the parallel path with each of the sweep group sizes."},
		&cli.Cmd[*Config]{Func: Caps, Name: "caps", Doc: "Caps prints the capabilities of the parallel engine."})
}

// BenchConfig returns the benchmark configuration.
func (c *Config) BenchConfig() bench.Config {
	bc := bench.Config{}
	bc.Defaults()
	bc.InputSize = c.InputSize
	bc.Iterations = c.Iterations
	bc.MaxParallelWidth = c.MaxParallelWidth
	bc.Seed = c.Seed
	bc.Repeats = c.Repeats
	bc.Warmup = c.Warmup
	bc.Tolerance = c.Tolerance
	bc.Timeout = time.Duration(c.Timeout) * time.Second
	return bc
}

func (c *Config) setup() {
	if c.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	gpu.Debug = c.GPUDebug
}

// newEngine returns the engine for the configured backend.
func newEngine(c *Config) (compute.Engine, error) {
	switch c.Backend {
	case "gpu":
		en, err := gpu.NewEngine(gpu.Options{LowPower: c.LowPower})
		if err != nil {
			return nil, err
		}
		return en, nil
	case "cpu":
		return compute.NewPool(c.Workers), nil
	case "auto":
		en, err := gpu.NewEngine(gpu.Options{LowPower: c.LowPower})
		if err == nil {
			return en, nil
		}
		if !errors.Is(err, compute.ErrCapabilityUnavailable) {
			return nil, err
		}
		slog.Warn("no GPU available, using the cpu backend", "err", err)
		return compute.NewPool(c.Workers), nil
	}
	return nil, fmt.Errorf("unknown backend %q: must be gpu, cpu or auto", c.Backend)
}

// newRunner returns a runner for the configured backend, and a function
// to release the engine.
func newRunner(c *Config) (*bench.Runner, func(), error) {
	c.setup()
	en, err := newEngine(c)
	if err != nil {
		return nil, nil, err
	}
	rn, err := bench.NewRunner(c.BenchConfig(), en)
	if err != nil {
		en.Release()
		return nil, nil, err
	}
	return rn, en.Release, nil
}

// Run runs the benchmark once and prints the report.
func Run(c *Config) error {
	rn, release, err := newRunner(c)
	if err != nil {
		return err
	}
	defer release()
	rep, err := rn.Run(context.Background())
	if err != nil {
		return err
	}
	sinks := []report.Sink{&report.Text{W: os.Stdout}}
	for _, fn := range c.Save {
		sk, err := report.ForFile(fn)
		if err != nil {
			return err
		}
		sinks = append(sinks, sk)
	}
	var errs []error
	for _, sk := range sinks {
		errs = append(errs, sk.Write(rep))
	}
	return errors.Join(errs...)
}

// Sweep runs the parallel path with each of the sweep group sizes
// and prints the times, checking that the results are the same.
func Sweep(c *Config) error {
	rn, release, err := newRunner(c)
	if err != nil {
		return err
	}
	defer release()
	sizes := c.SweepSizes
	if len(sizes) == 0 {
		sizes = DefaultSweepSizes
	}
	sw, err := rn.Sweep(context.Background(), sizes)
	if err != nil {
		return err
	}
	if err := report.WriteSweep(os.Stdout, sw); err != nil {
		return err
	}
	var errs []error
	for _, fn := range c.Save {
		errs = append(errs, report.SaveSweep(fn, sw))
	}
	if !sw.Invariant {
		errs = append(errs, fmt.Errorf("results depend on the group size"))
	}
	return errors.Join(errs...)
}

// Caps prints the capabilities of the parallel engine.
func Caps(c *Config) error {
	c.setup()
	en, err := newEngine(c)
	if err != nil {
		return err
	}
	defer en.Release()
	caps := en.Capabilities()
	fmt.Printf("Device: %s\t Backend: %s\n", caps.Name, caps.Backend)
	fmt.Printf("Max group size: %d\t Max invocations: %d\t Max groups per dimension: %d\n",
		caps.MaxGroupSize, caps.MaxInvocations, caps.MaxGroupsPerDimension)
	gs := compute.GroupSize(c.MaxParallelWidth, caps)
	fmt.Printf("Group size: %d\t Groups for %d elements: %d\n", gs, c.InputSize, compute.GroupCount(c.InputSize, gs))
	return nil
}
