package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/sunface/internal/config"
	"github.com/five82/sunface/internal/control"
	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/weather"
)

func newListenCmd(opts *rootOptions) *cobra.Command {
	var noRefresh bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print settings changes and answer weather refresh requests",
		Long: `Print every settings record as it arrives until interrupted.

Each new weather record asks the weather service to refresh, as the
primary device does. Pass --no-refresh to only watch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var refresher weather.Refresher
			if !noRefresh {
				cfg, err := config.Load(opts.configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				client, err := weather.NewClient(cfg.WeatherAPI)
				if err != nil {
					return err
				}
				refresher = client
			}

			s, err := opts.open(cmd.Context(), refresher)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			err = s.controller.Listen(cmd.Context(), func(rec datalayer.Record) {
				fmt.Fprintln(out, control.Describe(rec))
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not forward refresh requests to the weather service")
	return cmd
}
