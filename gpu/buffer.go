// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/gpubench/compute"
	"github.com/cogentcore/webgpu/wgpu"
)

// note: buffers are created with their contents (CreateBufferInit)
// for upload, so we only need to manage Read.

// BufferMapAsyncError returns an error message if the status is not success.
func BufferMapAsyncError(status wgpu.BufferMapAsyncStatus) error {
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("gpu BufferMapAsync was not successful: status %d", status)
	}
	return nil
}

// newBuffer creates a buffer of the given size in bytes. Creation
// failures are reported as [compute.ErrAllocationFailure].
func (en *Engine) newBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := en.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s buffer of %d bytes: %w", compute.ErrAllocationFailure, label, size, err)
	}
	return buf, nil
}

// newBufferInit creates a buffer holding the given contents.
func (en *Engine) newBufferInit(label string, contents []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := en.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s buffer of %d bytes: %w", compute.ErrAllocationFailure, label, len(contents), err)
	}
	return buf, nil
}

// waitDone polls the device until done returns true. Without a deadline
// on ctx it blocks in the device poll; otherwise it polls without
// blocking, backing off between polls, and returns
// [compute.ErrSynchronizationTimeout] once the deadline has passed.
func (en *Engine) waitDone(ctx context.Context, done func() bool) error {
	if _, ok := ctx.Deadline(); !ok {
		for !done() {
			en.device.Poll(true, nil)
		}
		return nil
	}
	return pollWait(ctx, func() { en.device.Poll(false, nil) }, done)
}

const (
	minPollWait = 10 * time.Microsecond
	maxPollWait = 500 * time.Microsecond
)

// pollWait calls poll until done returns true, sleeping between calls
// for an interval that doubles from minPollWait up to maxPollWait.
func pollWait(ctx context.Context, poll func(), done func() bool) error {
	wait := minPollWait
	tm := time.NewTimer(wait)
	defer tm.Stop()
	for {
		poll()
		if done() {
			return nil
		}
		tm.Reset(wait)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", compute.ErrSynchronizationTimeout, ctx.Err())
		case <-tm.C:
		}
		wait = min(2*wait, maxPollWait)
	}
}

// fence waits until all work submitted to the queue has completed.
func (en *Engine) fence(ctx context.Context) error {
	var done bool
	var status wgpu.QueueWorkDoneStatus
	en.queue.OnSubmittedWorkDone(func(s wgpu.QueueWorkDoneStatus) {
		status = s
		done = true
	})
	if err := en.waitDone(ctx, func() bool { return done }); err != nil {
		return err
	}
	if status != wgpu.QueueWorkDoneStatusSuccess {
		return fmt.Errorf("gpu: submitted work did not complete: status %d", status)
	}
	return nil
}

// BufferReadSync maps the given buffer for reading, waiting on the device
// until the map is complete, and copies its contents into out.
// The buffer is unmapped before returning.
func (en *Engine) BufferReadSync(ctx context.Context, buffer *wgpu.Buffer, out []float32) error {
	size := uint64(len(out)) * 4
	var done bool
	var status wgpu.BufferMapAsyncStatus
	err := buffer.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	if errors.Log(err) != nil {
		return err
	}
	if err := en.waitDone(ctx, func() bool { return done }); err != nil {
		return err
	}
	if err := BufferMapAsyncError(status); err != nil {
		return err
	}
	data := buffer.GetMappedRange(0, uint(size))
	copy(out, unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(out)))
	buffer.Unmap()
	return nil
}

// releaser collects resources to be released together,
// in reverse order of addition.
type releaser []func()

func (rl *releaser) add(fun func()) {
	*rl = append(*rl, fun)
}

func (rl releaser) release() {
	for i := len(rl) - 1; i >= 0; i-- {
		rl[i]()
	}
}
