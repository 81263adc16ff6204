// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compute defines the parallel execution capability used to run
// the transform kernel over a vector in groups of bounded size,
// and provides a goroutine worker [Pool] implementation of it.
// The WebGPU implementation is in package gpu.
package compute

import (
	"context"
	"time"

	"cogentcore.org/gpubench/kernel"
)

// Capabilities are the limits of an [Engine], queried once at startup.
type Capabilities struct {

	// Name is a human readable name of the device.
	Name string

	// Backend is the short name of the engine kind, e.g., gpu or cpu.
	Backend string

	// MaxGroupSize is the maximum number of elements processed
	// together as one group (workgroup size in dimension X).
	MaxGroupSize int

	// MaxInvocations is the maximum number of invocations in one group,
	// summed over all group dimensions.
	MaxInvocations int

	// MaxGroupsPerDimension is the maximum number of groups that can
	// be dispatched in one dimension. 0 means no limit.
	MaxGroupsPerDimension int
}

// Timing is the elapsed time of one [Kernel.Dispatch].
type Timing struct {

	// Compute is the time from just before the input is made available
	// to the engine until all results are confirmed complete.
	// It excludes copying the results back into host memory.
	Compute time.Duration

	// Full is Compute plus the time to copy the results back into
	// host memory.
	Full time.Duration
}

// Engine is a parallel execution capability.
type Engine interface {

	// Capabilities returns the limits of the engine.
	Capabilities() Capabilities

	// Compile prepares the transform with the given parameters
	// for dispatch in groups of groupSize elements.
	Compile(pars *kernel.Params, groupSize int) (Kernel, error)

	// Release frees all resources held by the engine.
	Release()
}

// Kernel is a compiled transform, ready to be dispatched.
type Kernel interface {

	// Dispatch applies the transform to each element of in, writing
	// the results to out, which must have the same length, using
	// groupCount groups. It blocks until all results are available in out.
	// groupCount must be at least [GroupCount](len(in), groupSize).
	Dispatch(ctx context.Context, in, out []float32, groupCount int) (Timing, error)

	// Release frees the resources of the compiled kernel.
	Release()
}

// GroupCount returns the number of groups of groupSize elements
// that is sufficient to cover n elements: ceil(n / groupSize).
func GroupCount(n, groupSize int) int {
	if n <= 0 || groupSize <= 0 {
		return 0
	}
	return (n + groupSize - 1) / groupSize
}

// GroupSize returns the group size to use given the configured
// maximum parallel width and the engine capabilities.
func GroupSize(maxWidth int, caps Capabilities) int {
	gs := maxWidth
	if caps.MaxGroupSize > 0 {
		gs = min(gs, caps.MaxGroupSize)
	}
	if caps.MaxInvocations > 0 {
		gs = min(gs, caps.MaxInvocations)
	}
	return max(gs, 1)
}

// Split2D returns group counts in X and Y such that x * y >= groupCount
// and x <= maxPerDim, for engines that limit the number of groups
// per dispatch dimension. maxPerDim <= 0 means no limit.
func Split2D(groupCount, maxPerDim int) (x, y int) {
	if maxPerDim <= 0 || groupCount <= maxPerDim {
		return groupCount, 1
	}
	y = (groupCount + maxPerDim - 1) / maxPerDim
	x = (groupCount + y - 1) / y
	return x, y
}
