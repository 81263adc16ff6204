// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"context"
	"fmt"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/timer"
	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/kernel"
	"github.com/cogentcore/webgpu/wgpu"
)

// Compile builds the compute pipeline for the given parameters
// and group (workgroup) size.
func (en *Engine) Compile(pars *kernel.Params, groupSize int) (compute.Kernel, error) {
	if err := pars.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", compute.ErrInvalidInput, err)
	}
	pl, err := en.newPipeline(groupSize)
	if err != nil {
		return nil, err
	}
	return &Kernel{engine: en, pars: *pars, pipeline: pl}, nil
}

// Kernel is a compiled transform on an [Engine].
type Kernel struct {
	engine   *Engine
	pars     kernel.Params
	pipeline *Pipeline
}

// Dispatch uploads in, runs one compute pass over groupCount
// workgroups and reads the results back into out. All buffers are
// created for this call and released before it returns.
// Timing.Compute covers the upload and the compute pass up to the
// completion fence, and Timing.Full adds the readback.
func (kn *Kernel) Dispatch(ctx context.Context, in, out []float32, groupCount int) (compute.Timing, error) {
	var tm compute.Timing
	en := kn.engine
	gs := kn.pipeline.GroupSize
	if err := compute.CheckDispatch(in, out, gs, groupCount); err != nil {
		return tm, err
	}
	n := len(in)
	size := uint64(n) * 4
	if mx := en.maxBufferSize(); mx > 0 && size > mx {
		return tm, fmt.Errorf("%w: %d bytes exceeds max storage buffer size %d", compute.ErrAllocationFailure, size, mx)
	}
	caps := en.Capabilities()
	gx, gy := compute.Split2D(groupCount, caps.MaxGroupsPerDimension)
	if caps.MaxGroupsPerDimension > 0 && gy > caps.MaxGroupsPerDimension {
		return tm, fmt.Errorf("%w: %d groups exceed dispatch limits", compute.ErrAllocationFailure, groupCount)
	}

	var rl releaser
	defer rl.release()

	outBuf, err := en.newBuffer("outputs", size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return tm, err
	}
	rl.add(outBuf.Release)
	readBuf, err := en.newBuffer("readback", size, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
	if err != nil {
		return tm, err
	}
	rl.add(readBuf.Release)
	if Debug {
		fmt.Printf("gpu: dispatch n: %d  groups: %d x %d  group size: %d  buffer: %d bytes\n", n, gx, gy, gs, size)
	}

	fullTmr := timer.Time{}
	cmpTmr := timer.Time{}
	fullTmr.Start()
	cmpTmr.Start()

	uni := []kernel.Uniform{kn.pars.Uniform(n)}
	parBuf, err := en.newBufferInit("params", wgpu.ToBytes(uni), wgpu.BufferUsageUniform)
	if err != nil {
		return tm, err
	}
	rl.add(parBuf.Release)
	inBuf, err := en.newBufferInit("inputs", wgpu.ToBytes(in), wgpu.BufferUsageStorage)
	if err != nil {
		return tm, err
	}
	rl.add(inBuf.Release)

	bg, err := en.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: kn.pipeline.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: parBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: inBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: outBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return tm, fmt.Errorf("%w: bind group: %w", compute.ErrAllocationFailure, err)
	}
	rl.add(bg.Release)

	err = en.submit(func(cmd *wgpu.CommandEncoder) {
		ce := cmd.BeginComputePass(nil)
		ce.SetPipeline(kn.pipeline.pipeline)
		ce.SetBindGroup(0, bg, nil)
		ce.DispatchWorkgroups(uint32(gx), uint32(gy), 1)
		ce.End()
		ce.Release()
	})
	if err != nil {
		return tm, err
	}
	if err := en.fence(ctx); err != nil {
		return tm, err
	}
	cmpTmr.Stop()

	err = en.submit(func(cmd *wgpu.CommandEncoder) {
		cmd.CopyBufferToBuffer(outBuf, 0, readBuf, 0, size)
	})
	if err != nil {
		return tm, err
	}
	if err := en.BufferReadSync(ctx, readBuf, out); err != nil {
		return tm, err
	}
	fullTmr.Stop()
	tm.Compute = cmpTmr.Total
	tm.Full = fullTmr.Total
	return tm, nil
}

// submit encodes commands with the given function and submits them
// to the queue.
func (en *Engine) submit(encode func(cmd *wgpu.CommandEncoder)) error {
	cmd, err := en.device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return err
	}
	defer cmd.Release()
	encode(cmd)
	cmdBuffer, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		return err
	}
	en.queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	return nil
}

// Release releases the compiled pipeline.
func (kn *Kernel) Release() {
	if kn.pipeline != nil {
		kn.pipeline.Release()
		kn.pipeline = nil
	}
}
