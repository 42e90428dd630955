package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/spek"
	"github.com/radkit/spekdose/viz"
)

func newDemoCmd() *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate an example 100 kV spectrum and print its key metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Running demo (1 mAs, 100 cm)")
			fmt.Fprintln(out)

			s, err := engine().NewSpectrum(spek.Params{KVp: 100, AnodeAngleDeg: 10})
			if err != nil {
				return err
			}

			if err := s.Filter("Al", 6); err != nil {
				return err
			}

			hvl1, err := s.HVL1("Al")
			if err != nil {
				return err
			}

			hvl2, err := s.HVL2("Al")
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "HVL1:    %.2f mm Al\n", hvl1)
			fmt.Fprintf(out, "HVL2:    %.2f mm Al\n", hvl2)
			fmt.Fprintf(out, "Kair:    %.2f uGy\n", s.Kerma(spek.RefDistanceCM))
			fmt.Fprintf(out, "Fluence: %e cm-2\n", s.Fluence(spek.RefDistanceCM))

			if plotPath == "" {
				return nil
			}

			f, err := os.Create(plotPath)
			if err != nil {
				return err
			}

			k, phi := s.FluenceSpectrum(spek.RefDistanceCM)

			if err := viz.RenderSpectrumPNG(f, k, phi, "An example x-ray spectrum"); err != nil {
				f.Close()
				return err
			}

			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nSpectrum plot written to %s\n", plotPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "write the spectrum chart to this PNG file")

	return cmd
}
