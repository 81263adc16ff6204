// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"math"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() *Params {
	ps := &Params{}
	ps.Defaults()
	return ps
}

func TestTransformDeterministic(t *testing.T) {
	ps := defaultParams()
	for _, x := range []float32{0, 0.5, 1, 12.34, 50, 99.99} {
		a := ps.Transform(x)
		b := ps.Transform(x)
		assert.Equal(t, math.Float32bits(a), math.Float32bits(b), "x = %g", x)
	}
}

func TestTransformRange(t *testing.T) {
	ps := defaultParams()
	for i := range 1000 {
		x := float32(i) / 10
		v := ps.Transform(x)
		assert.GreaterOrEqual(t, v, float32(-1), "x = %g", x)
		assert.LessOrEqual(t, v, float32(1), "x = %g", x)
	}
}

func TestTransformStepOrder(t *testing.T) {
	ps := &Params{Scale: 100, Iterations: 3, Quantum: 100}
	x := float32(37.777)
	r := x / 100
	for range 3 {
		r = math32.Floor(r*100) / 100
		r = math32.Sin(r * math32.Pi)
	}
	assert.Equal(t, r, ps.Transform(x))

	// sine before quantize is a different trajectory
	s := x / 100
	for range 3 {
		s = math32.Sin(s * math32.Pi)
		s = math32.Floor(s*100) / 100
	}
	assert.NotEqual(t, s, ps.Transform(x))
}

func TestTransformZeroIterations(t *testing.T) {
	ps := &Params{Scale: 100, Iterations: 0, Quantum: 100}
	assert.Equal(t, float32(0.42), ps.Transform(42))
}

func TestTransformSlice(t *testing.T) {
	ps := defaultParams()
	in := []float32{1, 2, 3, 4}
	out := make([]float32, len(in))
	ps.TransformSlice(in, out)
	for i, x := range in {
		assert.Equal(t, ps.Transform(x), out[i])
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, defaultParams().Validate())

	ps := defaultParams()
	ps.Scale = 0
	assert.Error(t, ps.Validate())

	ps = defaultParams()
	ps.Quantum = -1
	assert.Error(t, ps.Validate())

	ps = defaultParams()
	ps.Quantum = math32.NaN()
	assert.Error(t, ps.Validate())

	ps = defaultParams()
	ps.Iterations = -1
	assert.Error(t, ps.Validate())
}

func TestUniform(t *testing.T) {
	u := defaultParams().Uniform(100000)
	assert.Equal(t, Uniform{Scale: 100, Quantum: 100, Iterations: 1000, N: 100000}, u)
}

func TestShader(t *testing.T) {
	src, err := Shader(64)
	require.NoError(t, err)
	assert.Contains(t, src, "@workgroup_size(64)")
	assert.Contains(t, src, "* 64u + li")
	assert.NotContains(t, src, "{{")
	assert.Contains(t, src, "fn "+EntryPoint+"(")

	qi := strings.Index(src, "r = floor(r * params.quantum) / params.quantum;")
	si := strings.Index(src, "r = sin(r * PI);")
	require.Positive(t, qi)
	require.Positive(t, si)
	assert.Less(t, qi, si, "quantize must come before sine")

	_, err = Shader(0)
	assert.Error(t, err)
}
