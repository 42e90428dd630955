package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/radkit/spekdose/devices"
	"github.com/radkit/spekdose/web"
)

// envAddr names the environment variable holding the listen address.
const envAddr = "SPEKDOSE_ADDR"

func newServeCmd() *cobra.Command {
	var (
		addr        string
		catalogPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web calculator",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A .env file in the working directory is optional.
			_ = godotenv.Load()

			if !cmd.Flags().Changed("addr") {
				if env := os.Getenv(envAddr); env != "" {
					addr = env
				}
			}

			dm, err := devices.NewManager()
			if err != nil {
				return err
			}

			if catalogPath != "" {
				if err := dm.LoadFile(catalogPath); err != nil {
					return err
				}
			}

			srv, err := web.NewServer(engine(), dm, log.Default())
			if err != nil {
				return err
			}

			return srv.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (overrides "+envAddr+")")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "merge a site device catalog from this YAML file")

	return cmd
}
