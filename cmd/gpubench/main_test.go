// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/core/base/iox/jsonx"
	"cogentcore.org/core/base/iox/tomlx"
	"cogentcore.org/core/cli"
	"cogentcore.org/gpubench/bench"
	"cogentcore.org/gpubench/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	c := &Config{}
	require.NoError(t, cli.SetFromDefaults(c))
	return c
}

func TestDefaults(t *testing.T) {
	c := defaultConfig(t)
	assert.Equal(t, "gpu", c.Backend)
	assert.Equal(t, 100000, c.InputSize)
	assert.Equal(t, 1000, c.Iterations)
	assert.Equal(t, 256, c.MaxParallelWidth)
	assert.Equal(t, 1, c.Repeats)
	assert.Equal(t, 30, c.Timeout)

	bc := c.BenchConfig()
	assert.NoError(t, bc.Validate())
	assert.Equal(t, 30*time.Second, bc.Timeout)
	assert.Equal(t, 1e-4, bc.Tolerance)
	assert.Equal(t, float32(100), bc.Scale)
}

func TestNewEngine(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	c.Workers = 2
	en, err := newEngine(c)
	require.NoError(t, err)
	assert.Equal(t, "cpu", en.Capabilities().Backend)
	en.Release()

	c.Backend = "auto"
	en, err = newEngine(c)
	require.NoError(t, err)
	assert.Contains(t, []string{"gpu", "cpu"}, en.Capabilities().Backend)
	en.Release()

	c.Backend = "tpu"
	_, err = newEngine(c)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestRunCPU(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	c.InputSize = 1000
	c.Iterations = 50
	c.Seed = 5
	fn := filepath.Join(t.TempDir(), "report.json")
	c.Save = []string{fn}
	require.NoError(t, Run(c))

	var rep bench.Report
	require.NoError(t, jsonx.Open(&rep, fn))
	assert.Equal(t, 1000, rep.N)
	assert.Equal(t, "cpu", rep.Backend)
	assert.Equal(t, 0, rep.Mismatches)

	c.Save = []string{filepath.Join(t.TempDir(), "report.csv")}
	assert.Error(t, Run(c))
}

func TestRunInvalid(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	c.InputSize = 0
	assert.ErrorIs(t, Run(c), compute.ErrInvalidInput)
}

func TestSweepCPU(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	c.InputSize = 500
	c.Iterations = 20
	c.SweepSizes = []int{1, 16, 500}
	dir := t.TempDir()
	fn := filepath.Join(dir, "sweep.json")
	c.Save = []string{filepath.Join(dir, "sweep.svg"), fn}
	require.NoError(t, Sweep(c))

	var sw bench.SweepReport
	require.NoError(t, jsonx.Open(&sw, fn))
	assert.Len(t, sw.Points, 3)
	assert.True(t, sw.Invariant)
}

func TestSweepSaveErrors(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	c.InputSize = 100
	c.Iterations = 5
	c.SweepSizes = []int{1, 100}
	dir := t.TempDir()

	c.Save = []string{filepath.Join(dir, "sweep.csv")}
	assert.ErrorContains(t, Sweep(c), "unsupported file type")

	c.Save = []string{filepath.Join(dir, "missing", "dir", "sweep.json")}
	assert.Error(t, Sweep(c))

	// later files are still saved after a failure
	fn := filepath.Join(dir, "sweep.toml")
	c.Save = []string{filepath.Join(dir, "sweep.csv"), fn}
	assert.Error(t, Sweep(c))
	_, err := os.Stat(fn)
	assert.NoError(t, err)
}

func TestDefaultConfigFile(t *testing.T) {
	var c Config
	require.NoError(t, tomlx.Open(&c, filepath.Join("..", "..", "gpubench.toml")))
	assert.Equal(t, "gpu", c.Backend)
}

func TestCapsCPU(t *testing.T) {
	c := defaultConfig(t)
	c.Backend = "cpu"
	assert.NoError(t, Caps(c))
}
