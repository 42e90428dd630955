// Package export renders calculation results to JSON, CSV and
// plain-text report formats and round-trips exposure configurations.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radkit/spekdose/dose"
)

// Software identity stamped into export metadata.
const (
	SoftwareName    = "spekdose"
	SoftwareVersion = "1.0.0"
)

// Exporter writes results in the supported formats. The zero value is
// not usable; construct with New.
type Exporter struct {
	now   func() time.Time
	newID func() string
}

// Option adjusts an Exporter.
type Option func(*Exporter)

// WithClock overrides the timestamp source, mainly for reproducible
// output in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithIDSource overrides the calculation ID generator.
func WithIDSource(newID func() string) Option {
	return func(e *Exporter) { e.newID = newID }
}

// New builds an exporter with a wall clock and random UUIDs.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		now:   time.Now,
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type metadata struct {
	ExportedAt    string `json:"exported_at"`
	Software      string `json:"software"`
	Version       string `json:"version"`
	CalculationID string `json:"calculation_id"`
}

func (e *Exporter) metadata() metadata {
	return metadata{
		ExportedAt:    e.now().UTC().Format(time.RFC3339),
		Software:      SoftwareName,
		Version:       SoftwareVersion,
		CalculationID: e.newID(),
	}
}

// WriteResultsJSON writes the full result record with export metadata.
func (e *Exporter) WriteResultsJSON(w io.Writer, res dose.Result) error {
	doc := struct {
		Metadata metadata    `json:"metadata"`
		Results  dose.Result `json:"results"`
	}{e.metadata(), res}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encoding results: %w", err)
	}

	return nil
}

// WriteSpectrumCSV writes energy and differential fluence columns with
// a comment header.
func (e *Exporter) WriteSpectrumCSV(w io.Writer, k, phi []float64) error {
	n := len(k)
	if len(phi) < n {
		n = len(phi)
	}

	total := 0.0
	lo, hi := 0.0, 0.0

	if n > 0 {
		lo, hi = k[0], k[n-1]
		dk := 1.0
		if n > 1 {
			dk = k[1] - k[0]
		}

		for i := 0; i < n; i++ {
			total += phi[i] * dk
		}
	}

	var b strings.Builder

	b.WriteString("# X-ray spectrum data\n")
	fmt.Fprintf(&b, "# Generated: %s\n", e.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Energy bins: %d\n", n)
	fmt.Fprintf(&b, "# Energy range: %.1f - %.1f keV\n", lo, hi)
	fmt.Fprintf(&b, "# Total fluence: %.2e cm^-2\n", total)
	b.WriteString("#\n")
	b.WriteString("energy_kev,fluence_per_cm2_kev\n")

	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.3f,%.6e\n", k[i], phi[i])
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export: writing spectrum CSV: %w", err)
	}

	return nil
}

// summaryRows flattens a result into Category,Parameter,Value rows.
func summaryRows(res dose.Result) [][3]string {
	exp := res.Exposure

	rows := [][3]string{
		{"Parameter", "Tube Voltage", fmt.Sprintf("%g kVp", exp.KVp)},
		{"Parameter", "Tube Current", fmt.Sprintf("%g mA", exp.MA)},
		{"Parameter", "Exposure Time", fmt.Sprintf("%g s", exp.TimeS)},
		{"Parameter", "mAs", fmt.Sprintf("%g", exp.MAs())},
		{"Parameter", "Anode Angle", fmt.Sprintf("%g deg", exp.AnodeAngleDeg)},
		{"Parameter", "SSD", fmt.Sprintf("%g cm", exp.SSDCM)},
	}

	for i, f := range exp.Filters {
		rows = append(rows, [3]string{
			"Parameter",
			fmt.Sprintf("Filter %d", i+1),
			fmt.Sprintf("%s %g mm", f.Material, f.ThicknessMM),
		})
	}

	if exp.FieldDiameterCM > 0 {
		rows = append(rows, [3]string{
			"Parameter", "Field Diameter", fmt.Sprintf("%g cm", exp.FieldDiameterCM),
		})
	}

	rows = append(rows,
		[3]string{"Result", "ESAK", fmt.Sprintf("%.4g mGy", res.ESAKMGy)},
		[3]string{"Result", "BSF", fmt.Sprintf("%.4g", res.BSF)},
		[3]string{"Result", "ESAK (BSF corrected)", fmt.Sprintf("%.4g mGy", res.ESAKWithBSFMGy)},
		[3]string{"Result", "Air Kerma per mAs", fmt.Sprintf("%.4g uGy/mAs", res.KermaPerMAsUGy)},
		[3]string{"Result", "HVL1 (Al)", fmt.Sprintf("%.4g mm", res.HVL1AlMM)},
		[3]string{"Result", "HVL2 (Al)", fmt.Sprintf("%.4g mm", res.HVL2AlMM)},
		[3]string{"Result", "HVL1 (Cu)", fmt.Sprintf("%.4g mm", res.HVL1CuMM)},
		[3]string{"Result", "Mean Energy", fmt.Sprintf("%.4g keV", res.MeanEnergyKeV)},
		[3]string{"Result", "Effective Energy", fmt.Sprintf("%.4g keV", res.EffectiveEnergyKeV)},
		[3]string{"Result", "Homogeneity Coefficient", fmt.Sprintf("%.4g", res.HomogeneityCoefficient)},
		[3]string{"Result", "Total Fluence", fmt.Sprintf("%.4g cm^-2", res.TotalFluence)},
		[3]string{"Result", "Energy Fluence", fmt.Sprintf("%.4g keV cm^-2", res.EnergyFluenceKeV)},
	)

	return rows
}

// WriteSummaryCSV writes the Category,Parameter,Value summary table.
func (e *Exporter) WriteSummaryCSV(w io.Writer, res dose.Result) error {
	var b strings.Builder

	b.WriteString("# X-ray dosimetry calculation summary\n")
	fmt.Fprintf(&b, "# Generated: %s\n", e.now().UTC().Format(time.RFC3339))
	b.WriteString("#\n")
	b.WriteString("Category,Parameter,Value\n")

	for _, row := range summaryRows(res) {
		fmt.Fprintf(&b, "%s,%s,%s\n", row[0], row[1], row[2])
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export: writing summary CSV: %w", err)
	}

	return nil
}

const reportRule = "============================================================"

// WriteReport writes the plain-text calculation report.
func (e *Exporter) WriteReport(w io.Writer, res dose.Result) error {
	exp := res.Exposure

	var b strings.Builder

	b.WriteString(reportRule + "\n")
	b.WriteString("X-RAY DOSIMETRY CALCULATION REPORT\n")
	b.WriteString(reportRule + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", e.now().UTC().Format("2006-01-02 15:04:05"))

	b.WriteString("CLINICAL PARAMETERS:\n")
	b.WriteString("--------------------\n")
	fmt.Fprintf(&b, "Tube Voltage:     %g kVp\n", exp.KVp)
	fmt.Fprintf(&b, "Tube Current:     %g mA\n", exp.MA)
	fmt.Fprintf(&b, "Exposure Time:    %g s\n", exp.TimeS)
	fmt.Fprintf(&b, "mAs:              %g\n", exp.MAs())
	fmt.Fprintf(&b, "Anode Angle:      %g deg\n", exp.AnodeAngleDeg)
	fmt.Fprintf(&b, "SSD:              %g cm\n\n", exp.SSDCM)

	b.WriteString("FILTRATION:\n")
	b.WriteString("-----------\n")

	if len(exp.Filters) == 0 {
		b.WriteString("None specified\n")
	}

	for _, f := range exp.Filters {
		fmt.Fprintf(&b, "%8s: %g mm\n", f.Material, f.ThicknessMM)
	}

	b.WriteString("\nDOSIMETRIC RESULTS:\n")
	b.WriteString("-------------------\n")

	if exp.FieldDiameterCM > 0 {
		fmt.Fprintf(&b, "IAK:              %.3f mGy\n", res.ESAKMGy)
		fmt.Fprintf(&b, "BSF:              %.3f\n", res.BSF)
		fmt.Fprintf(&b, "ESAK (BSF corr.): %.3f mGy\n", res.ESAKWithBSFMGy)
		fmt.Fprintf(&b, "Air Kerma/mAs:    %.2f uGy/mAs\n", res.KermaPerMAsUGy)
		fmt.Fprintf(&b, "Field Diameter:   %g cm\n", exp.FieldDiameterCM)
	} else {
		fmt.Fprintf(&b, "ESAK:             %.3f mGy\n", res.ESAKMGy)
		fmt.Fprintf(&b, "BSF:              %.3f\n", res.BSF)
		fmt.Fprintf(&b, "Air Kerma/mAs:    %.2f uGy/mAs\n", res.KermaPerMAsUGy)
	}

	b.WriteString("\nBEAM QUALITY PARAMETERS:\n")
	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "HVL1 (Al):        %.2f mm\n", res.HVL1AlMM)
	fmt.Fprintf(&b, "HVL2 (Al):        %.2f mm\n", res.HVL2AlMM)
	fmt.Fprintf(&b, "HVL1 (Cu):        %.3f mm\n", res.HVL1CuMM)
	fmt.Fprintf(&b, "Mean Energy:      %.1f keV\n", res.MeanEnergyKeV)
	fmt.Fprintf(&b, "Effective Energy: %.1f keV\n", res.EffectiveEnergyKeV)
	fmt.Fprintf(&b, "Homog. Coeff.:    %.3f\n", res.HomogeneityCoefficient)

	b.WriteString("\n" + reportRule + "\n")
	b.WriteString("End of Report\n")
	b.WriteString(reportRule + "\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export: writing report: %w", err)
	}

	return nil
}

// exposureFile is the on-disk exposure configuration.
type exposureFile struct {
	Metadata struct {
		Created  string `json:"created"`
		Software string `json:"software"`
		Version  string `json:"version"`
	} `json:"metadata"`
	Parameters dose.Exposure `json:"parameters"`
}

// WriteExposure serializes an exposure configuration for later reuse.
func (e *Exporter) WriteExposure(w io.Writer, exp dose.Exposure) error {
	var doc exposureFile

	doc.Metadata.Created = e.now().UTC().Format(time.RFC3339)
	doc.Metadata.Software = SoftwareName
	doc.Metadata.Version = SoftwareVersion
	doc.Parameters = exp

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encoding exposure: %w", err)
	}

	return nil
}

// SaveExposure writes the configuration to a file.
func (e *Exporter) SaveExposure(path string, exp dose.Exposure) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}

	if err := e.WriteExposure(f, exp); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// ReadExposure parses a saved exposure configuration.
func ReadExposure(r io.Reader) (dose.Exposure, error) {
	var doc exposureFile

	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return dose.Exposure{}, fmt.Errorf("export: decoding exposure: %w", err)
	}

	return doc.Parameters, nil
}

// LoadExposure reads the configuration from a file.
func LoadExposure(path string) (dose.Exposure, error) {
	f, err := os.Open(path)
	if err != nil {
		return dose.Exposure{}, fmt.Errorf("export: opening %s: %w", path, err)
	}
	defer f.Close()

	return ReadExposure(f)
}
