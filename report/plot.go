// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"image/color"
	"strconv"

	"cogentcore.org/gpubench/bench"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	hostColor   = color.RGBA{R: 219, G: 68, B: 55, A: 255}
	deviceColor = color.RGBA{R: 66, G: 133, B: 244, A: 255}
)

// Plot saves a bar chart of the host and device times of each repeat.
// The format is given by the file extension.
type Plot struct {
	Filename string

	// Width and Height of the plot; defaults to 8 x 4 inches.
	Width, Height vg.Length
}

func (pl *Plot) size() (vg.Length, vg.Length) {
	w, h := pl.Width, pl.Height
	if w <= 0 {
		w = 8 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

func (pl *Plot) Write(rep *bench.Report) error {
	host := plotter.Values(rep.HostRunsMs)
	dev := plotter.Values(rep.DeviceRunsMs)
	if len(host) == 0 {
		host = plotter.Values{rep.HostElapsedMs}
	}
	if len(dev) == 0 {
		dev = plotter.Values{rep.DeviceElapsedMs}
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("N: %d  Iterations: %d  Host/Device: %s", rep.N, rep.Iterations, rep.SpeedupRatio)
	p.Y.Label.Text = "Time (ms)"
	p.X.Label.Text = "Repeat"

	bw := vg.Points(16)
	hb, err := plotter.NewBarChart(host, bw)
	if err != nil {
		return err
	}
	hb.Color = hostColor
	hb.LineStyle.Width = vg.Length(0)
	hb.Offset = -bw / 2

	db, err := plotter.NewBarChart(dev, bw)
	if err != nil {
		return err
	}
	db.Color = deviceColor
	db.LineStyle.Width = vg.Length(0)
	db.Offset = bw / 2

	p.Add(hb, db, plotter.NewGrid())
	p.Legend.Add("host", hb)
	p.Legend.Add(rep.Backend+" "+rep.DeviceName, db)
	p.Legend.Top = true

	names := make([]string, max(len(host), len(dev)))
	for i := range names {
		names[i] = strconv.Itoa(i + 1)
	}
	p.NominalX(names...)
	w, h := pl.size()
	return p.Save(w, h, pl.Filename)
}

// PlotSweep saves a plot of the device time for each group size
// of the sweep, along with the host time.
func PlotSweep(filename string, sw *bench.SweepReport) error {
	if len(sw.Points) == 0 {
		return fmt.Errorf("report.PlotSweep: no points to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("N: %d  Iterations: %d  %s", sw.N, sw.Iterations, sw.DeviceName)
	p.X.Label.Text = "Group size"
	p.Y.Label.Text = "Time (ms)"

	dev := make(plotter.XYs, len(sw.Points))
	host := make(plotter.XYs, len(sw.Points))
	for i, pt := range sw.Points {
		dev[i].X = float64(pt.GroupSize)
		dev[i].Y = pt.DeviceElapsedMs
		host[i].X = float64(pt.GroupSize)
		host[i].Y = sw.HostElapsedMs
	}
	dl, dp, err := plotter.NewLinePoints(dev)
	if err != nil {
		return err
	}
	dl.Color = deviceColor
	dl.Width = vg.Points(2)
	dp.GlyphStyle.Color = deviceColor

	hl, err := plotter.NewLine(host)
	if err != nil {
		return err
	}
	hl.Color = hostColor
	hl.Width = vg.Points(2)
	hl.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}

	p.Add(plotter.NewGrid(), dl, dp, hl)
	p.Legend.Add(sw.Backend, dl, dp)
	p.Legend.Add("host", hl)
	return p.Save(10*vg.Inch, 4*vg.Inch, filename)
}
