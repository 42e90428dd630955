package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/imaging"
	"github.com/radkit/spekdose/viz"
)

func newSweepCmd() *cobra.Command {
	var (
		cfg             imaging.Config
		backgroundSpecs []string
		signalSpecs     []string
		pngPath         string
		kermaPNGPath    string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the tube potential and rank image quality against dose",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			if cfg.Background, err = parseLayers(backgroundSpecs); err != nil {
				return err
			}

			if cfg.Signal, err = parseLayers(signalSpecs); err != nil {
				return err
			}

			res, err := imaging.Run(engine(), cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "kV\tContrast\tCNR\tKerma [uGy]\tCNRD")

			for _, p := range res.Points {
				fmt.Fprintf(w, "%.0f\t%.4f\t%.3f\t%.3f\t%.4f\n",
					p.KV, p.Contrast, p.CNR, p.KermaUGy, p.CNRD)
			}

			if err := w.Flush(); err != nil {
				return err
			}

			best := res.Optimum()
			fmt.Fprintf(cmd.OutOrStdout(), "\nOptimal potential: %.0f kV (CNRD %.4f)\n", best.KV, best.CNRD)

			if pngPath != "" {
				if err := writePNG(pngPath, func(f *os.File) error {
					return viz.RenderSweepPNG(f, res)
				}); err != nil {
					return err
				}
			}

			if kermaPNGPath != "" {
				if err := writePNG(kermaPNGPath, func(f *os.File) error {
					return viz.RenderKermaPNG(f, res)
				}); err != nil {
					return err
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&backgroundSpecs, "background", []string{"Soft Tissue:15"},
		"background tissue layer as Material:thickness_cm (repeatable)")
	flags.StringArrayVar(&signalSpecs, "signal", []string{"Soft Tissue:14", "Bone:1"},
		"signal path layer as Material:thickness_cm (repeatable)")
	flags.Float64Var(&cfg.KVStart, "start", 50, "first tube potential in kV")
	flags.Float64Var(&cfg.KVEnd, "end", 150, "last tube potential in kV")
	flags.Float64Var(&cfg.KVStep, "step", 5, "potential step in kV")
	flags.Float64Var(&cfg.SDDCM, "sdd", 150, "source-to-detector distance in cm")
	flags.StringVar(&pngPath, "plot", "", "write the contrast/CNR/CNRD chart to this PNG file")
	flags.StringVar(&kermaPNGPath, "plot-kerma", "", "write the kerma-vs-potential chart to this PNG file")

	return cmd
}

func writePNG(path string, render func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := render(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func parseLayers(specs []string) ([]imaging.Layer, error) {
	layers := make([]imaging.Layer, 0, len(specs))

	for _, spec := range specs {
		mat, cm, err := parseLayerSpec(spec)
		if err != nil {
			return nil, err
		}

		layers = append(layers, imaging.Layer{Material: mat, ThicknessCM: cm})
	}

	return layers, nil
}
