package viz

import (
	"bytes"
	"errors"
	"testing"

	"github.com/radkit/spekdose/dose"
	"github.com/radkit/spekdose/imaging"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func assertPNG(t *testing.T, buf *bytes.Buffer) {
	t.Helper()

	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("output is not a PNG (first bytes %v)", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestRenderSpectrumPNG(t *testing.T) {
	k := []float64{10, 20, 30, 40, 50}
	phi := []float64{1e5, 5e5, 8e5, 4e5, 1e5}

	var buf bytes.Buffer
	if err := RenderSpectrumPNG(&buf, k, phi, "120 kVp spectrum"); err != nil {
		t.Fatalf("RenderSpectrumPNG: %v", err)
	}

	assertPNG(t, &buf)
}

func TestRenderSpectrumPNGNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSpectrumPNG(&buf, []float64{10}, []float64{1}, ""); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRenderHVLPNG(t *testing.T) {
	res := dose.Result{
		HVL1AlMM:               3.2,
		HVL2AlMM:               4.1,
		HVL1CuMM:               0.25,
		HomogeneityCoefficient: 0.78,
	}

	var buf bytes.Buffer
	if err := RenderHVLPNG(&buf, res); err != nil {
		t.Fatalf("RenderHVLPNG: %v", err)
	}

	assertPNG(t, &buf)
}

func sweepResult() imaging.Result {
	return imaging.Result{Points: []imaging.Point{
		{KV: 60, Contrast: 0.20, CNR: 3.1, KermaUGy: 40, CNRD: 1.2},
		{KV: 80, Contrast: 0.15, CNR: 4.5, KermaUGy: 65, CNRD: 1.8},
		{KV: 100, Contrast: 0.11, CNR: 4.8, KermaUGy: 95, CNRD: 1.5},
	}}
}

func TestRenderSweepPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSweepPNG(&buf, sweepResult()); err != nil {
		t.Fatalf("RenderSweepPNG: %v", err)
	}

	assertPNG(t, &buf)
}

func TestRenderSweepPNGNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSweepPNG(&buf, imaging.Result{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRenderKermaPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderKermaPNG(&buf, sweepResult()); err != nil {
		t.Fatalf("RenderKermaPNG: %v", err)
	}

	assertPNG(t, &buf)
}

func TestRenderKermaPNGNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderKermaPNG(&buf, imaging.Result{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRenderDoseDistancePNG(t *testing.T) {
	res := dose.Result{ESAKMGy: 2.5}
	res.Exposure.SSDCM = 100

	var buf bytes.Buffer
	if err := RenderDoseDistancePNG(&buf, res); err != nil {
		t.Fatalf("RenderDoseDistancePNG: %v", err)
	}

	assertPNG(t, &buf)
}

func TestRenderDoseDistancePNGNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderDoseDistancePNG(&buf, dose.Result{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}
