// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"fmt"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/kernel"
)

// Config has the inputs of a benchmark run.
type Config struct {

	// InputSize is the number of elements in the input vector.
	InputSize int

	// Iterations is the number of transform steps per element.
	Iterations int

	// MaxParallelWidth is the maximum group size, further limited
	// by the engine capabilities.
	MaxParallelWidth int

	// Seed for the input generator; 0 uses a time based seed.
	Seed int64

	// Repeats is the number of timed runs of each path.
	Repeats int

	// Warmup is the number of untimed parallel dispatches
	// before the timed ones.
	Warmup int

	// Tolerance is the maximum absolute difference between
	// the parallel and sequential results of one element.
	Tolerance float64

	// Timeout bounds each wait for the parallel engine; 0 = no bound.
	Timeout time.Duration

	// Scale normalizes the input values.
	Scale float32

	// Quantum is the quantization factor of each transform step.
	Quantum float32
}

// Defaults sets the default configuration: 100000 elements,
// 1000 iterations and a max parallel width of 256.
func (cf *Config) Defaults() {
	cf.InputSize = 100000
	cf.Iterations = 1000
	cf.MaxParallelWidth = 256
	cf.Repeats = 1
	cf.Tolerance = 1e-4
	cf.Timeout = 30 * time.Second
	cf.Scale = 100
	cf.Quantum = 100
}

// Params returns the transform parameters.
func (cf *Config) Params() kernel.Params {
	return kernel.Params{Scale: cf.Scale, Iterations: cf.Iterations, Quantum: cf.Quantum}
}

// Validate returns an [compute.ErrInvalidInput] error listing
// all problems with the configuration.
func (cf *Config) Validate() error {
	var errs []error
	if cf.InputSize <= 0 {
		errs = append(errs, fmt.Errorf("input size must be positive, got %d", cf.InputSize))
	}
	if cf.MaxParallelWidth <= 0 {
		errs = append(errs, fmt.Errorf("max parallel width must be positive, got %d", cf.MaxParallelWidth))
	}
	if cf.Repeats <= 0 {
		errs = append(errs, fmt.Errorf("repeats must be positive, got %d", cf.Repeats))
	}
	if cf.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %d", cf.Warmup))
	}
	if cf.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must not be negative, got %g", cf.Tolerance))
	}
	pars := cf.Params()
	if err := pars.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", compute.ErrInvalidInput, err)
	}
	return nil
}
