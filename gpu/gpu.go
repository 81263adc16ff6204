// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu implements [compute.Engine] on WebGPU, running the
// transform as a compute shader over storage buffers.
package gpu

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/gpubench/compute"
	"github.com/cogentcore/webgpu/wgpu"
)

// Debug prints the generated shader source and buffer sizes.
var Debug = false

// Options configure the adapter request of [NewEngine].
type Options struct {

	// LowPower requests a low power adapter (e.g., an integrated GPU)
	// instead of the default high performance one.
	LowPower bool
}

// Engine is a [compute.Engine] on a WebGPU device, which it owns.
type Engine struct {

	// DeviceName is the name of the adapter.
	DeviceName string

	// Info has the adapter properties.
	Info wgpu.AdapterInfo

	// Limits are the adapter limits, which are also required of the device.
	Limits wgpu.Limits

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewEngine acquires a GPU adapter and device. It returns an error
// wrapping [compute.ErrCapabilityUnavailable] if there is none.
func NewEngine(opts Options) (*Engine, error) {
	en := &Engine{}
	en.instance = wgpu.CreateInstance(nil)
	if en.instance == nil {
		return nil, fmt.Errorf("%w: could not create WebGPU instance", compute.ErrCapabilityUnavailable)
	}
	pref := wgpu.PowerPreferenceHighPerformance
	if opts.LowPower {
		pref = wgpu.PowerPreferenceLowPower
	}
	adapter, err := en.instance.RequestAdapter(&wgpu.RequestAdapterOptions{PowerPreference: pref})
	if err == nil && adapter == nil {
		err = errNilAdapter
	}
	if err != nil {
		en.Release()
		return nil, fmt.Errorf("%w: no GPU adapter: %w", compute.ErrCapabilityUnavailable, err)
	}
	en.adapter = adapter
	en.Info = adapter.GetInfo()
	en.Limits = adapter.GetLimits().Limits
	en.DeviceName = adapterName(&en.Info)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "gpubench",
		RequiredLimits: &wgpu.RequiredLimits{Limits: en.Limits},
	})
	if err == nil && device == nil {
		err = errNilDevice
	}
	if err != nil {
		en.Release()
		return nil, fmt.Errorf("%w: could not open device on %s: %w", compute.ErrCapabilityUnavailable, en.DeviceName, err)
	}
	en.device = device
	en.queue = device.GetQueue()
	slog.Debug("gpu: device acquired", "name", en.DeviceName, "backend", en.Info.BackendType,
		"maxGroupSize", en.Limits.MaxComputeWorkgroupSizeX, "maxInvocations", en.Limits.MaxComputeInvocationsPerWorkgroup)
	return en, nil
}

var (
	errNilAdapter = errors.New("adapter request returned nil")
	errNilDevice  = errors.New("device request returned nil")
)

func (en *Engine) Capabilities() compute.Capabilities {
	return compute.Capabilities{
		Name:                  en.DeviceName,
		Backend:               "gpu",
		MaxGroupSize:          int(en.Limits.MaxComputeWorkgroupSizeX),
		MaxInvocations:        int(en.Limits.MaxComputeInvocationsPerWorkgroup),
		MaxGroupsPerDimension: int(en.Limits.MaxComputeWorkgroupsPerDimension),
	}
}

// Release releases the device, adapter and instance.
// It is safe to call on a partially initialized or nil Engine.
func (en *Engine) Release() {
	if en == nil {
		return
	}
	if en.queue != nil {
		en.queue.Release()
		en.queue = nil
	}
	if en.device != nil {
		en.device.Release()
		en.device = nil
	}
	if en.adapter != nil {
		en.adapter.Release()
		en.adapter = nil
	}
	if en.instance != nil {
		en.instance.Release()
		en.instance = nil
	}
}

// maxBufferSize returns the largest storage buffer that can be bound.
func (en *Engine) maxBufferSize() uint64 {
	mx := en.Limits.MaxStorageBufferBindingSize
	if en.Limits.MaxBufferSize > 0 && (mx == 0 || en.Limits.MaxBufferSize < mx) {
		mx = en.Limits.MaxBufferSize
	}
	return mx
}

func adapterName(info *wgpu.AdapterInfo) string {
	nm := info.Name
	if nm == "" {
		nm = info.VendorName
	}
	if nm == "" {
		nm = "unknown GPU"
	}
	if info.DriverDescription != "" {
		nm += " (" + info.DriverDescription + ")"
	}
	return nm
}
