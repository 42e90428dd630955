package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/devices"
	"github.com/radkit/spekdose/dose"
	"github.com/radkit/spekdose/export"
)

func newESAKCmd() *cobra.Command {
	var (
		exp         dose.Exposure
		filterSpecs []string
		deviceName  string
		configPath  string
		saveConfig  string
		jsonPath    string
		csvPath     string
		reportPath  string
	)

	cmd := &cobra.Command{
		Use:   "esak",
		Short: "Calculate entrance surface air kerma for one exposure",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				loaded, err := export.LoadExposure(configPath)
				if err != nil {
					return err
				}

				exp = loaded
			}

			filters, err := parseFilterSpecs(filterSpecs)
			if err != nil {
				return err
			}

			exp.Filters = append(exp.Filters, filters...)

			if deviceName != "" {
				dm, err := devices.NewManager()
				if err != nil {
					return err
				}

				dev, err := dm.Get(deviceName)
				if err != nil {
					return err
				}

				exp.AnodeAngleDeg = dev.AnodeAngleDeg
				exp.Filters = append(dev.Filters, exp.Filters...)
			}

			calc, err := dose.New(engine())
			if err != nil {
				return err
			}

			res, err := calc.Calculate(exp)
			if err != nil {
				return err
			}

			exporter := export.New()

			if err := exporter.WriteReport(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if saveConfig != "" {
				if err := exporter.SaveExposure(saveConfig, res.Exposure); err != nil {
					return err
				}
			}

			writers := []struct {
				path  string
				write func(*os.File) error
			}{
				{jsonPath, func(f *os.File) error { return exporter.WriteResultsJSON(f, res) }},
				{csvPath, func(f *os.File) error { return exporter.WriteSummaryCSV(f, res) }},
				{reportPath, func(f *os.File) error { return exporter.WriteReport(f, res) }},
			}

			for _, w := range writers {
				if w.path == "" {
					continue
				}

				f, err := os.Create(w.path)
				if err != nil {
					return err
				}

				if err := w.write(f); err != nil {
					f.Close()
					return err
				}

				if err := f.Close(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", w.path)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&exp.KVp, "kvp", 120, "tube potential in kV")
	flags.Float64Var(&exp.MA, "ma", 100, "tube current in mA")
	flags.Float64Var(&exp.TimeS, "time", 0.1, "exposure time in s")
	flags.Float64Var(&exp.AnodeAngleDeg, "angle", 12, "anode angle in degrees")
	flags.Float64Var(&exp.SSDCM, "ssd", 100, "source-to-skin distance in cm")
	flags.Float64Var(&exp.FieldDiameterCM, "field", 0, "field diameter at the skin in cm (0 disables backscatter)")
	flags.StringVar(&exp.Phantom, "phantom", "", "backscatter phantom")
	flags.StringArrayVar(&filterSpecs, "filter", []string{"Al:2.5"}, "filter as Material:thickness_mm (repeatable)")
	flags.StringVar(&deviceName, "device", "", "device preset from the catalog")
	flags.StringVar(&configPath, "config", "", "load exposure parameters from a saved JSON file")
	flags.StringVar(&saveConfig, "save-config", "", "save the effective exposure parameters to a JSON file")
	flags.StringVar(&jsonPath, "json", "", "write full results JSON to this file")
	flags.StringVar(&csvPath, "csv", "", "write the summary CSV to this file")
	flags.StringVar(&reportPath, "report", "", "write the text report to this file")

	return cmd
}
