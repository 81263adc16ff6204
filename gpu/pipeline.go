// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"log/slog"

	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/kernel"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline is the compiled transform shader with a fixed
// workgroup size, and the layout of its bind group.
type Pipeline struct {

	// GroupSize is the workgroup size the shader was compiled with.
	GroupSize int

	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
}

// newPipeline compiles the transform shader for the given group size.
func (en *Engine) newPipeline(groupSize int) (*Pipeline, error) {
	caps := en.Capabilities()
	if groupSize <= 0 || groupSize > caps.MaxGroupSize || groupSize > caps.MaxInvocations {
		return nil, fmt.Errorf("%w: group size %d exceeds device limits (%d, %d invocations)", compute.ErrInvalidInput, groupSize, caps.MaxGroupSize, caps.MaxInvocations)
	}
	code, err := kernel.Shader(groupSize)
	if err != nil {
		return nil, err
	}
	if Debug {
		fmt.Println(code)
	}
	pl := &Pipeline{GroupSize: groupSize}
	pl.module, err = en.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          kernel.ShaderFile,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		slog.Error("gpu: shader compile failed", "group size", groupSize, "err", err)
		return nil, err
	}
	pl.pipeline, err = en.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "transform",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     pl.module,
			EntryPoint: kernel.EntryPoint,
		},
	})
	if err != nil {
		pl.Release()
		return nil, err
	}
	pl.layout = pl.pipeline.GetBindGroupLayout(0)
	return pl, nil
}

// Release releases the pipeline, its layout and shader module.
func (pl *Pipeline) Release() {
	if pl.layout != nil {
		pl.layout.Release()
		pl.layout = nil
	}
	if pl.pipeline != nil {
		pl.pipeline.Release()
		pl.pipeline = nil
	}
	if pl.module != nil {
		pl.module.Release()
		pl.module = nil
	}
}
