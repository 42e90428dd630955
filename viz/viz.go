// Package viz renders spectra, beam quality summaries and sweep results
// as PNG charts.
package viz

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/radkit/spekdose/dose"
	"github.com/radkit/spekdose/imaging"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("viz: no data to plot")

var (
	spectrumColor = drawing.Color{R: 30, G: 110, B: 200, A: 255}
	sweepColor    = drawing.Color{R: 200, G: 80, B: 30, A: 255}
	cnrColor      = drawing.Color{R: 90, G: 90, B: 90, A: 255}
	contrastColor = drawing.Color{R: 40, G: 140, B: 70, A: 255}
)

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
}

// SpectrumChart plots differential fluence against photon energy.
func SpectrumChart(k, phi []float64, title string) (chart.Chart, error) {
	if len(k) < 2 || len(phi) < len(k) {
		return chart.Chart{}, ErrNoData
	}

	return chart.Chart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Energy [keV]"},
		YAxis:      chart.YAxis{Name: "Fluence [cm-2 keV-1]"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Fluence",
				XValues: k,
				YValues: phi[:len(k)],
				Style:   lineStyle(spectrumColor),
			},
		},
	}, nil
}

// HVLChart plots the beam quality indices of a result as a bar chart.
func HVLChart(res dose.Result) chart.BarChart {
	return chart.BarChart{
		Title:      "Beam quality",
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   60,
		Bars: []chart.Value{
			{Label: "HVL1 Al [mm]", Value: res.HVL1AlMM},
			{Label: "HVL2 Al [mm]", Value: res.HVL2AlMM},
			{Label: "HVL1 Cu [mm]", Value: res.HVL1CuMM},
			{Label: "Homog. coeff.", Value: res.HomogeneityCoefficient},
		},
	}
}

// SweepChart plots CNR and dose-normalized CNR against tube potential,
// with relative contrast on the secondary axis.
func SweepChart(res imaging.Result) (chart.Chart, error) {
	if len(res.Points) < 2 {
		return chart.Chart{}, ErrNoData
	}

	n := len(res.Points)
	xs := make([]float64, n)
	cnrd := make([]float64, n)
	cnr := make([]float64, n)
	contrast := make([]float64, n)

	for i, p := range res.Points {
		xs[i] = p.KV
		cnrd[i] = p.CNRD
		cnr[i] = p.CNR
		contrast[i] = p.Contrast
	}

	return chart.Chart{
		Title:          "Tube potential optimization",
		Background:     chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:          chart.XAxis{Name: "Tube potential [kV]"},
		YAxis:          chart.YAxis{Name: "CNR, CNRD"},
		YAxisSecondary: chart.YAxis{Name: "Contrast"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "CNRD",
				XValues: xs,
				YValues: cnrd,
				Style:   lineStyle(sweepColor),
			},
			chart.ContinuousSeries{
				Name:    "CNR",
				XValues: xs,
				YValues: cnr,
				Style:   lineStyle(cnrColor),
			},
			chart.ContinuousSeries{
				Name:    "Contrast",
				XValues: xs,
				YValues: contrast,
				YAxis:   chart.YAxisSecondary,
				Style:   lineStyle(contrastColor),
			},
		},
	}, nil
}

// KermaChart plots the incident air kerma against tube potential.
func KermaChart(res imaging.Result) (chart.Chart, error) {
	if len(res.Points) < 2 {
		return chart.Chart{}, ErrNoData
	}

	xs := make([]float64, len(res.Points))
	ys := make([]float64, len(res.Points))

	for i, p := range res.Points {
		xs[i] = p.KV
		ys[i] = p.KermaUGy
	}

	return chart.Chart{
		Title:      "Incident air kerma",
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Tube potential [kV]"},
		YAxis:      chart.YAxis{Name: "Kerma per mAs [uGy]"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Kerma",
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(spectrumColor),
			},
		},
	}, nil
}

// DoseDistanceChart plots the inverse-square ESAK falloff of a result
// over a range of source-to-skin distances around the operating point.
func DoseDistanceChart(res dose.Result) (chart.Chart, error) {
	ssd := res.Exposure.SSDCM
	if ssd <= 0 || res.ESAKMGy <= 0 {
		return chart.Chart{}, ErrNoData
	}

	const steps = 40

	lo, hi := ssd*0.5, ssd*2
	xs := make([]float64, 0, steps+1)
	ys := make([]float64, 0, steps+1)

	for i := 0; i <= steps; i++ {
		d := lo + (hi-lo)*float64(i)/steps
		xs = append(xs, d)
		ys = append(ys, res.ESAKMGy*(ssd/d)*(ssd/d))
	}

	return chart.Chart{
		Title:      "ESAK vs distance",
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "SSD [cm]"},
		YAxis:      chart.YAxis{Name: "ESAK [mGy]"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "ESAK",
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(sweepColor),
			},
		},
	}, nil
}

// RenderSpectrumPNG writes the spectrum chart as PNG.
func RenderSpectrumPNG(w io.Writer, k, phi []float64, title string) error {
	ch, err := SpectrumChart(k, phi, title)
	if err != nil {
		return err
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering spectrum: %w", err)
	}

	return nil
}

// RenderHVLPNG writes the beam quality bar chart as PNG.
func RenderHVLPNG(w io.Writer, res dose.Result) error {
	ch := HVLChart(res)

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering beam quality: %w", err)
	}

	return nil
}

// RenderSweepPNG writes the sweep chart as PNG.
func RenderSweepPNG(w io.Writer, res imaging.Result) error {
	ch, err := SweepChart(res)
	if err != nil {
		return err
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering sweep: %w", err)
	}

	return nil
}

// RenderKermaPNG writes the kerma-vs-potential chart as PNG.
func RenderKermaPNG(w io.Writer, res imaging.Result) error {
	ch, err := KermaChart(res)
	if err != nil {
		return err
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering kerma: %w", err)
	}

	return nil
}

// RenderDoseDistancePNG writes the ESAK falloff chart as PNG.
func RenderDoseDistancePNG(w io.Writer, res dose.Result) error {
	ch, err := DoseDistanceChart(res)
	if err != nil {
		return err
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering dose falloff: %w", err)
	}

	return nil
}
