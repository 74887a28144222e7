package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/dashpanel/internal/fetch"
	"github.com/John-Robertt/dashpanel/internal/seed"
)

func newSeedCmd(load loadFunc) *cobra.Command {
	var fetchTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "seed <file|url>",
		Short: "Load panels from a YAML fixture into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			panels, err := seed.Load(ctx, args[0], seed.Options{
				Fetch: fetch.Options{Timeout: fetchTimeout},
			})
			if err != nil {
				return err
			}

			st, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := seed.Apply(ctx, st, panels, logger); err != nil {
				return err
			}
			logger.Info("seed complete", "source", args[0], "panels", len(panels))
			return nil
		},
	}
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 15*time.Second, "timeout for each remote fetch")
	return cmd
}
