package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/spek"
	"github.com/radkit/spekdose/spek/kramers"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spekdose",
		Short:         "X-ray tube spectra and entrance surface dosimetry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDemoCmd(),
		newESAKCmd(),
		newSweepCmd(),
		newBeamsCmd(),
		newDevicesCmd(),
		newServeCmd(),
	)

	return root
}

// engine returns the spectrum engine used by all commands.
func engine() spek.Engine {
	return kramers.New()
}

// parseFilterSpec parses "Material:thickness_mm" filter arguments.
func parseFilterSpec(spec string) (spek.Filter, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return spek.Filter{}, fmt.Errorf("filter %q: want Material:thickness_mm", spec)
	}

	mm, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return spek.Filter{}, fmt.Errorf("filter %q: bad thickness: %w", spec, err)
	}

	return spek.Filter{Material: strings.TrimSpace(parts[0]), ThicknessMM: mm}, nil
}

func parseFilterSpecs(specs []string) ([]spek.Filter, error) {
	filters := make([]spek.Filter, 0, len(specs))

	for _, spec := range specs {
		f, err := parseFilterSpec(spec)
		if err != nil {
			return nil, err
		}

		filters = append(filters, f)
	}

	return filters, nil
}

// parseLayerSpec parses "Material:thickness_cm" tissue arguments.
func parseLayerSpec(spec string) (string, float64, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("layer %q: want Material:thickness_cm", spec)
	}

	cm, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, fmt.Errorf("layer %q: bad thickness: %w", spec, err)
	}

	return strings.TrimSpace(parts[0]), cm, nil
}
