// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"fmt"

	"cogentcore.org/core/base/errors"
)

var (
	// ErrCapabilityUnavailable means that no parallel execution
	// capability (e.g., a GPU adapter) is available on this machine.
	ErrCapabilityUnavailable = errors.New("parallel execution capability unavailable")

	// ErrAllocationFailure means that a buffer could not be allocated.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrSynchronizationTimeout means that waiting for submitted work
	// to complete exceeded its deadline.
	ErrSynchronizationTimeout = errors.New("synchronization timeout")

	// ErrInvalidInput means that the arguments cannot be run,
	// e.g., an empty input vector.
	ErrInvalidInput = errors.New("invalid input")
)

// CheckDispatch returns an [ErrInvalidInput] error if the arguments
// of a [Kernel.Dispatch] call are inconsistent.
func CheckDispatch(in, out []float32, groupSize, groupCount int) error {
	n := len(in)
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty input vector", ErrInvalidInput)
	case len(out) != n:
		return fmt.Errorf("%w: output length %d != input length %d", ErrInvalidInput, len(out), n)
	case groupSize <= 0:
		return fmt.Errorf("%w: group size must be positive, got %d", ErrInvalidInput, groupSize)
	case groupCount < GroupCount(n, groupSize):
		return fmt.Errorf("%w: %d groups of %d cannot cover %d elements", ErrInvalidInput, groupCount, groupSize, n)
	}
	return nil
}
