package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/beams"
)

func newBeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "beams",
		Short: "Benchmark the engine against the BIPM reference beam qualities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := beams.Analyze(engine())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Quality\tkV\tHVL1\tReference\tDeviation")

			for _, d := range a.Deviations {
				fmt.Fprintf(w, "%s\t%.0f\t%.3f mm %s\t%.3f mm %s\t%+.2f%%\n",
					d.Quality.Name, d.Quality.KVp,
					d.HVL1MM, d.Quality.HVLMaterial,
					d.Quality.HVL1Ref, d.Quality.HVLMaterial,
					d.DeviationPC)
			}

			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nMean deviation: %.1f%% +/- %.1f%%\n", a.MeanPC, a.StdPC)

			return nil
		},
	}
}
