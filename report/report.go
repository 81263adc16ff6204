// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report presents benchmark reports: as a text summary,
// as JSON or TOML files, or as a plot.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cogentcore.org/core/base/iox/jsonx"
	"cogentcore.org/core/base/iox/tomlx"
	"cogentcore.org/gpubench/bench"
)

// Sink receives a finished [bench.Report].
type Sink interface {
	Write(rep *bench.Report) error
}

// Text writes a one line summary of the times and their ratio,
// preceded by a line describing the device.
type Text struct {
	W io.Writer
}

func (tx *Text) Write(rep *bench.Report) error {
	_, err := fmt.Fprintf(tx.W, "Device: %s (%s)\t Group size: %d\t Groups: %d\t Iterations: %d\t Repeats: %d\n",
		rep.DeviceName, rep.Backend, rep.GroupSize, rep.GroupCount, rep.Iterations, rep.Repeats)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(tx.W, "N: %d\t Host: %s\t Device: %s\t Full: %s\t Host/Device: %s\n",
		rep.N, Millis(rep.HostElapsedMs), Millis(rep.DeviceElapsedMs), Millis(rep.DeviceFullMs), rep.SpeedupRatio)
	if err != nil {
		return err
	}
	if rep.Mismatches > 0 {
		_, err = fmt.Fprintf(tx.W, "Mismatches: %d of %d\t Max diff: %g\t Tolerance: %g\n",
			rep.Mismatches, rep.N, rep.MaxAbsDiff, rep.Tolerance)
	}
	return err
}

// Millis formats a time in milliseconds.
func Millis(ms float64) string {
	return fmt.Sprintf("%.4gms", ms)
}

// JSON saves the report to a JSON file.
type JSON struct {
	Filename string
}

func (js *JSON) Write(rep *bench.Report) error {
	return jsonx.Save(rep, js.Filename)
}

// TOML saves the report to a TOML file.
type TOML struct {
	Filename string
}

func (tm *TOML) Write(rep *bench.Report) error {
	return tomlx.Save(rep, tm.Filename)
}

// ForFile returns the sink for the given file, based on its extension:
// .json, .toml, or a plot format (.svg, .png, .pdf).
func ForFile(filename string) (Sink, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return &JSON{Filename: filename}, nil
	case ".toml":
		return &TOML{Filename: filename}, nil
	case ".svg", ".png", ".pdf":
		return &Plot{Filename: filename}, nil
	default:
		return nil, fmt.Errorf("report: unsupported file type %q for %q", ext, filename)
	}
}

// WriteSweep writes one line per group size of the sweep.
func WriteSweep(w io.Writer, sw *bench.SweepReport) error {
	fmt.Fprintf(w, "Device: %s (%s)\t N: %d\t Iterations: %d\t Host: %s\n",
		sw.DeviceName, sw.Backend, sw.N, sw.Iterations, Millis(sw.HostElapsedMs))
	fmt.Fprintf(w, "GroupSize\tGroups\tDevice\t\tFull\t\tHost/Device\tMaxDiff\n")
	for _, pt := range sw.Points {
		fmt.Fprintf(w, "%d\t\t%d\t%s\t%s\t%s\t\t%g\n", pt.GroupSize, pt.GroupCount,
			Millis(pt.DeviceElapsedMs), Millis(pt.DeviceFullMs), pt.SpeedupRatio, pt.MaxAbsDiff)
	}
	var err error
	if sw.Invariant {
		_, err = fmt.Fprintf(w, "Results are the same for all group sizes\n")
	} else {
		_, err = fmt.Fprintf(w, "Results differ between group sizes (tolerance %g)\n", sw.Tolerance)
	}
	return err
}

// SaveSweep saves the sweep to the given file, based on its extension:
// .json, .toml, or a plot of it (.svg, .png, .pdf).
func SaveSweep(filename string, sw *bench.SweepReport) error {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return jsonx.Save(sw, filename)
	case ".toml":
		return tomlx.Save(sw, filename)
	case ".svg", ".png", ".pdf":
		return PlotSweep(filename, sw)
	default:
		return fmt.Errorf("report: unsupported file type %q for %q", ext, filename)
	}
}
