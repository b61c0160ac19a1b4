package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/sunface/internal/weather"
)

func newWeatherCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Share weather with the displays",
	}
	cmd.AddCommand(newWeatherPushCmd(opts))
	return cmd
}

func newWeatherPushCmd(opts *rootOptions) *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Fetch the current weather and publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if api == "" {
				api = s.cfg.WeatherAPI
			}
			client, err := weather.NewClient(api)
			if err != nil {
				return err
			}
			snap, err := s.controller.PushWeather(cmd.Context(), client)
			if err != nil {
				return err
			}
			art := "no art"
			if snap.HasIcon() {
				art = fmt.Sprintf("%d byte icon", len(snap.Icon))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s condition %d (%s)\n", snap.Summary(), snap.ConditionID, art)
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", "", "weather service host:port or URL (default: weather_api from config)")
	return cmd
}
