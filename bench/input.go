// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"fmt"
	"time"

	"cogentcore.org/lab/base/randx"
	"cogentcore.org/gpubench/compute"
	"github.com/chewxy/math32"
)

// MaxInput is the exclusive upper bound of generated input values.
const MaxInput = 100

// Input is the vector the transform is applied to. It is not
// modified after it is generated.
type Input []float32

// GenerateInput returns n values uniformly distributed in [0, [MaxInput]),
// from a generator with the given seed. A seed of 0 uses the current time.
func GenerateInput(n int, seed int64) (Input, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return GenerateInputRand(n, randx.NewSysRand(seed))
}

// GenerateInputRand is [GenerateInput] with the given random source.
func GenerateInputRand(n int, rnd randx.Rand) (Input, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: input size must be positive, got %d", compute.ErrInvalidInput, n)
	}
	top := math32.Nextafter(MaxInput, 0)
	in := make(Input, n)
	for i := range in {
		// Float32 * 100 can round up to 100
		in[i] = min(rnd.Float32()*MaxInput, top)
	}
	return in, nil
}
