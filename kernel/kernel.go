// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel defines the elementwise transform that is benchmarked,
// once for the host and once as a WGSL compute shader, both driven
// by the same [Params].
package kernel

import (
	"fmt"
	"math"

	"cogentcore.org/core/base/errors"
	"github.com/chewxy/math32"
)

// Params are the constants of the transform. The same values are used
// by [Params.Transform] on the host and uploaded to the GPU as a [Uniform].
type Params struct {

	// Scale normalizes the input: r = x / Scale.
	Scale float32 `default:"100"`

	// Iterations is the number of quantize + sine steps applied
	// to each element.
	Iterations int `default:"1000"`

	// Quantum is the quantization factor applied at the start of each step:
	// r = floor(r * Quantum) / Quantum, i.e., truncation to 2 decimals
	// for the default of 100.
	Quantum float32 `default:"100"`
}

// Defaults sets the default parameters.
func (ps *Params) Defaults() {
	ps.Scale = 100
	ps.Iterations = 1000
	ps.Quantum = 100
}

// Validate returns an error if the parameters cannot be used.
func (ps *Params) Validate() error {
	var errs []error
	if !finite(ps.Scale) || ps.Scale == 0 {
		errs = append(errs, fmt.Errorf("scale must be finite and non-zero, got %g", ps.Scale))
	}
	if !finite(ps.Quantum) || ps.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be finite and positive, got %g", ps.Quantum))
	}
	if ps.Iterations < 0 || int64(ps.Iterations) > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("iterations must be in [0, %d], got %d", uint32(math.MaxUint32), ps.Iterations))
	}
	return errors.Join(errs...)
}

// Transform applies the transform to one element.
// It does not depend on any other element, so it can be applied
// to any partition of a vector in any order.
func (ps *Params) Transform(x float32) float32 {
	r := x / ps.Scale
	for range ps.Iterations {
		r = math32.Floor(r*ps.Quantum) / ps.Quantum
		r = math32.Sin(r * math32.Pi)
	}
	return r
}

// TransformSlice applies [Params.Transform] to in[i] for each i,
// writing into out, which must be at least as long as in.
func (ps *Params) TransformSlice(in, out []float32) {
	for i, x := range in {
		out[i] = ps.Transform(x)
	}
}

// Uniform is the GPU layout of [Params] for a vector of N elements.
// It must match the Params struct in shaders/transform.wgsl,
// and is 16 bytes, which satisfies uniform buffer alignment.
type Uniform struct {
	Scale      float32
	Quantum    float32
	Iterations uint32
	N          uint32
}

// Uniform returns the uniform values for a vector of n elements.
func (ps *Params) Uniform(n int) Uniform {
	return Uniform{Scale: ps.Scale, Quantum: ps.Quantum, Iterations: uint32(ps.Iterations), N: uint32(n)}
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
