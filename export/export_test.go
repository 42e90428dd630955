package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radkit/spekdose/dose"
	"github.com/radkit/spekdose/spek"
)

func fixedExporter() *Exporter {
	return New(
		WithClock(func() time.Time {
			return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
		}),
		WithIDSource(func() string {
			return "00000000-0000-0000-0000-000000000000"
		}),
	)
}

func sampleResult() dose.Result {
	return dose.Result{
		ESAKMGy:                2.456,
		KermaPerMAsUGy:         245.6,
		DistanceCorrection:     1,
		HVL1AlMM:               3.2,
		HVL2AlMM:               4.1,
		HVL1CuMM:               0.25,
		MeanEnergyKeV:          45.2,
		EffectiveEnergyKeV:     52.8,
		HomogeneityCoefficient: 0.78,
		TotalFluence:           1.5e8,
		EnergyFluenceKeV:       6.8e9,
		BSF:                    1,
		ESAKWithBSFMGy:         2.456,
		Exposure: dose.Exposure{
			KVp:           120,
			MA:            100,
			TimeS:         0.1,
			AnodeAngleDeg: 12,
			Target:        "W",
			SSDCM:         100,
			Filters:       []spek.Filter{{Material: "Al", ThicknessMM: 2.5}},
		},
	}
}

func TestWriteSummaryCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedExporter().WriteSummaryCSV(&buf, sampleResult()))

	goldie.New(t).Assert(t, "summary", buf.Bytes())
}

func TestWriteReportGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedExporter().WriteReport(&buf, sampleResult()))

	goldie.New(t).Assert(t, "report", buf.Bytes())
}

func TestWriteReportWithField(t *testing.T) {
	res := sampleResult()
	res.Exposure.FieldDiameterCM = 10
	res.BSF = 1.35
	res.ESAKWithBSFMGy = res.ESAKMGy * res.BSF

	var buf bytes.Buffer
	require.NoError(t, fixedExporter().WriteReport(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "IAK:              2.456 mGy")
	assert.Contains(t, out, "BSF:              1.350")
	assert.Contains(t, out, "ESAK (BSF corr.): 3.316 mGy")
	assert.Contains(t, out, "Field Diameter:   10 cm")
	assert.NotContains(t, out, "\nESAK:")
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedExporter().WriteResultsJSON(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, `"exported_at": "2026-08-25T12:00:00Z"`)
	assert.Contains(t, out, `"software": "spekdose"`)
	assert.Contains(t, out, `"calculation_id": "00000000-0000-0000-0000-000000000000"`)
	assert.Contains(t, out, `"esak_mgy": 2.456`)
	assert.Contains(t, out, `"hvl1_al_mm": 3.2`)
}

func TestWriteSpectrumCSV(t *testing.T) {
	k := []float64{10, 10.5, 11}
	phi := []float64{1e6, 2e6, 1.5e6}

	var buf bytes.Buffer
	require.NoError(t, fixedExporter().WriteSpectrumCSV(&buf, k, phi))

	out := buf.String()
	assert.Contains(t, out, "# Energy bins: 3")
	assert.Contains(t, out, "# Energy range: 10.0 - 11.0 keV")
	assert.Contains(t, out, "energy_kev,fluence_per_cm2_kev")
	assert.Contains(t, out, "10.500,2.000000e+06")

	// Header comments plus column row plus one line per bin.
	assert.Equal(t, 7+len(k), strings.Count(out, "\n"))
}

func TestExposureRoundTrip(t *testing.T) {
	exp := sampleResult().Exposure
	exp.FieldDiameterCM = 10
	exp.Phantom = "Water"

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, fixedExporter().SaveExposure(path, exp))

	got, err := LoadExposure(path)
	require.NoError(t, err)
	assert.Equal(t, exp, got)
}

func TestLoadExposureErrors(t *testing.T) {
	_, err := LoadExposure(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ReadExposure(strings.NewReader("{not json"))
	assert.Error(t, err)
}
