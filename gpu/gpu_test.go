// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"context"
	"testing"
	"time"

	"cogentcore.org/gpubench/compute"
	"cogentcore.org/gpubench/kernel"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	en, err := NewEngine(Options{})
	if err != nil {
		assert.ErrorIs(t, err, compute.ErrCapabilityUnavailable)
		t.Skip("Need software GPU on CI")
	}
	t.Cleanup(en.Release)
	return en
}

func TestAdapterName(t *testing.T) {
	assert.Equal(t, "unknown GPU", adapterName(&wgpu.AdapterInfo{}))
	assert.Equal(t, "Vendor", adapterName(&wgpu.AdapterInfo{VendorName: "Vendor"}))
	assert.Equal(t, "Card (driver 1.2)", adapterName(&wgpu.AdapterInfo{Name: "Card", DriverDescription: "driver 1.2"}))
}

func TestReleaseNil(t *testing.T) {
	var en *Engine
	en.Release()
	(&Engine{}).Release()
}

func TestMaxBufferSize(t *testing.T) {
	en := &Engine{Limits: wgpu.Limits{MaxStorageBufferBindingSize: 1 << 27, MaxBufferSize: 1 << 28}}
	assert.Equal(t, uint64(1<<27), en.maxBufferSize())
	en.Limits.MaxBufferSize = 1 << 20
	assert.Equal(t, uint64(1<<20), en.maxBufferSize())
}

func TestCapabilities(t *testing.T) {
	en := newTestEngine(t)
	caps := en.Capabilities()
	assert.Equal(t, "gpu", caps.Backend)
	assert.Positive(t, caps.MaxGroupSize)
	assert.Positive(t, caps.MaxInvocations)
}

func TestDispatchMatchesHost(t *testing.T) {
	en := newTestEngine(t)
	pars := &kernel.Params{Scale: 100, Iterations: 100, Quantum: 100}
	n := 10000
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(i%1000) / 10
	}
	host := make([]float32, n)
	pars.TransformSlice(in, host)

	var first []float32
	for _, gs := range []int{1, 64, compute.GroupSize(256, en.Capabilities())} {
		kn, err := en.Compile(pars, gs)
		require.NoError(t, err)
		out := make([]float32, n)
		tm, err := kn.Dispatch(context.Background(), in, out, compute.GroupCount(n, gs))
		kn.Release()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, tm.Full, tm.Compute)
		// device sin and division may differ by a few ulp, which can
		// move a rare value across a quantization boundary
		miss := 0
		for i := range out {
			if math32.Abs(host[i]-out[i]) > 1e-4 {
				miss++
			}
		}
		assert.LessOrEqual(t, miss, n/1000, "group size %d", gs)
		if first == nil {
			first = out
			continue
		}
		assert.Equal(t, first, out, "group size %d", gs)
	}
}

func TestDispatchDeadline(t *testing.T) {
	en := newTestEngine(t)
	pars := &kernel.Params{Scale: 100, Iterations: 50, Quantum: 100}
	n := 4096
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(i%100) + 0.5
	}
	kn, err := en.Compile(pars, 64)
	require.NoError(t, err)
	defer kn.Release()

	want := make([]float32, n)
	_, err = kn.Dispatch(context.Background(), in, want, compute.GroupCount(n, 64))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	out := make([]float32, n)
	_, err = kn.Dispatch(ctx, in, out, compute.GroupCount(n, 64))
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestPollWait(t *testing.T) {
	polls := 0
	err := pollWait(context.Background(), func() { polls++ }, func() bool { return polls >= 5 })
	assert.NoError(t, err)
	assert.Equal(t, 5, polls)

	polls = 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pollWait(ctx, func() { polls++ }, func() bool { return false })
	assert.ErrorIs(t, err, compute.ErrSynchronizationTimeout)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, polls)
}

func TestPollWaitBackoff(t *testing.T) {
	polls := 0
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pollWait(ctx, func() { polls++ }, func() bool { return false })
	assert.ErrorIs(t, err, compute.ErrSynchronizationTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// at most one poll per minPollWait, and far fewer once backed off
	assert.Positive(t, polls)
	assert.Less(t, polls, int(50*time.Millisecond/minPollWait))
}

func TestCompileErrors(t *testing.T) {
	en := newTestEngine(t)
	pars := &kernel.Params{}
	pars.Defaults()
	_, err := en.Compile(pars, en.Capabilities().MaxGroupSize+1)
	assert.ErrorIs(t, err, compute.ErrInvalidInput)
	pars.Scale = 0
	_, err = en.Compile(pars, 64)
	assert.ErrorIs(t, err, compute.ErrInvalidInput)
}
