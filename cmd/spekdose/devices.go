package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/devices"
)

func newDevicesCmd() *cobra.Command {
	var (
		catalogPath string
		summary     bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the x-ray device catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			dm, err := devices.NewManager()
			if err != nil {
				return err
			}

			if catalogPath != "" {
				if err := dm.LoadFile(catalogPath); err != nil {
					return err
				}
			}

			if summary {
				fmt.Fprint(cmd.OutOrStdout(), dm.Summary())

				return nil
			}

			for _, name := range dm.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "merge a site device catalog from this YAML file")
	cmd.Flags().BoolVar(&summary, "summary", false, "print full device parameters")

	return cmd
}
