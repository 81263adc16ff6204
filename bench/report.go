// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinDeviceMs is the device time in milliseconds at or below which
// the speedup ratio is undefined.
const MinDeviceMs = 1e-6

// Ratio is a speedup ratio. It is +Inf when undefined.
type Ratio float64

// Undefined is the ratio reported when the device time is too small.
var Undefined = Ratio(math.Inf(1))

// Defined returns whether the ratio is a finite number.
func (r Ratio) Defined() bool {
	f := float64(r)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func (r Ratio) String() string {
	if !r.Defined() {
		return "+Inf"
	}
	return strconv.FormatFloat(float64(r), 'g', 4, 64)
}

// MarshalJSON encodes an undefined ratio as the string "+Inf",
// which JSON numbers cannot represent.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte(`"+Inf"`), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("bench.Ratio: %w", err)
		}
		*r = Ratio(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// Report is the result of one benchmark run. Times are in
// milliseconds, and are means over the repeats.
type Report struct {

	// HostElapsedMs is the time of the sequential host loop.
	HostElapsedMs float64

	// DeviceElapsedMs is the time of the parallel path, from just before
	// the input is made available to the engine until the completion fence.
	DeviceElapsedMs float64

	// SpeedupRatio is HostElapsedMs / DeviceElapsedMs.
	SpeedupRatio Ratio

	// DeviceFullMs is DeviceElapsedMs plus reading the results back.
	DeviceFullMs float64

	// N is the input size.
	N int

	// Iterations is the number of transform steps per element.
	Iterations int

	// GroupSize is the number of elements per group.
	GroupSize int

	// GroupCount is the number of groups dispatched.
	GroupCount int

	// Backend is the kind of parallel engine, e.g., gpu or cpu.
	Backend string

	// DeviceName is the name of the parallel engine device.
	DeviceName string

	// Repeats is the number of timed runs of each path.
	Repeats int

	// HostStdMs is the standard deviation of the host times.
	HostStdMs float64

	// DeviceStdMs is the standard deviation of the device times.
	DeviceStdMs float64

	// HostRunsMs are the host times of each repeat.
	HostRunsMs []float64

	// DeviceRunsMs are the device times of each repeat.
	DeviceRunsMs []float64

	// MaxAbsDiff is the largest difference between the parallel
	// and sequential results.
	MaxAbsDiff float64

	// Mismatches is the number of elements differing by more than Tolerance.
	Mismatches int

	// Tolerance used for Mismatches.
	Tolerance float64

	// Timestamp is when the run finished.
	Timestamp time.Time
}

// Compare returns the report of the given host and device times,
// with SpeedupRatio = host / device, which is [Undefined] when the
// device time is at or below [MinDeviceMs].
func Compare(hostMs, deviceMs float64) Report {
	rep := Report{HostElapsedMs: hostMs, DeviceElapsedMs: deviceMs, SpeedupRatio: Undefined}
	if deviceMs > MinDeviceMs {
		rep.SpeedupRatio = Ratio(hostMs / deviceMs)
	}
	return rep
}

// Verify returns the largest absolute difference between the device
// and host results, and the number of elements that differ by more
// than tol. Mismatches are logged, and are not an error.
func Verify(device, host []float32, tol float64) (maxAbsDiff float64, mismatches int) {
	if len(device) != len(host) {
		slog.Error("bench.Verify: result lengths differ", "device", len(device), "host", len(host))
		return math.Inf(1), max(len(device), len(host))
	}
	if len(host) == 0 {
		return 0, 0
	}
	diff := make([]float64, len(host))
	for i := range host {
		diff[i] = float64(device[i]) - float64(host[i])
	}
	for _, d := range diff {
		if !(math.Abs(d) <= tol) {
			mismatches++
		}
	}
	if floats.HasNaN(diff) {
		maxAbsDiff = math.NaN()
	} else {
		maxAbsDiff = floats.Norm(diff, math.Inf(1))
	}
	if mismatches > 0 {
		slog.Error("Differences between parallel and sequential results detected at Tolerance level", "tolerance", tol, "mismatches", mismatches, "maxAbsDiff", maxAbsDiff)
	}
	return
}

// meanStd returns the mean and sample standard deviation of xs,
// with a standard deviation of 0 for fewer than 2 values.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// durationMs returns d in fractional milliseconds.
func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// SweepPoint is the result for one group size of a [SweepReport].
type SweepPoint struct {

	// GroupSize is the number of elements per group.
	GroupSize int

	// GroupCount is the number of groups dispatched.
	GroupCount int

	// DeviceElapsedMs is the parallel compute time.
	DeviceElapsedMs float64

	// DeviceFullMs adds reading the results back.
	DeviceFullMs float64

	// SpeedupRatio is the host time over DeviceElapsedMs.
	SpeedupRatio Ratio

	// MaxAbsDiff is the largest difference from the host results.
	MaxAbsDiff float64

	// PartitionDiff is the largest difference from the results
	// of the first group size.
	PartitionDiff float64
}

// SweepReport is the result of running the parallel path
// with a series of group sizes over the same input.
type SweepReport struct {
	N             int
	Iterations    int
	Backend       string
	DeviceName    string
	HostElapsedMs float64
	Tolerance     float64

	// Invariant is whether all group sizes produced the same results,
	// within Tolerance.
	Invariant bool

	Points    []SweepPoint
	Timestamp time.Time
}
