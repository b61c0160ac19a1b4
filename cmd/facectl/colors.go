package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/sunface/internal/control"
	"github.com/five82/sunface/internal/palette"
)

func newColorsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Show or change the face colours",
	}
	cmd.AddCommand(newColorsShowCmd(opts))
	cmd.AddCommand(newColorsSetCmd(opts))
	cmd.AddCommand(newColorsWatchCmd(opts))
	return cmd
}

func newColorsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the colours the displays last agreed on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := s.controller.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func newColorsSetCmd(opts *rootOptions) *cobra.Command {
	var background, dateTime string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Publish new face colours",
		Long: `Publish a colour configuration to every display.

Colours are #RRGGBB or #RGB. A colour left out keeps its current value.`,
		Example: `  facectl colors set --background "#000080" --datetime "#FFFF00"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if background == "" && dateTime == "" {
				return errors.New("set at least one of --background or --datetime")
			}
			s, err := opts.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := s.controller.Current(cmd.Context())
			if err != nil {
				return err
			}
			if cfg, err = overrideColors(cfg, background, dateTime); err != nil {
				return err
			}
			if err := s.controller.SetColors(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	cmd.Flags().StringVar(&background, "background", "", "background colour")
	cmd.Flags().StringVar(&dateTime, "datetime", "", "date and time text colour")
	return cmd
}

func overrideColors(cfg palette.ColorConfiguration, background, dateTime string) (palette.ColorConfiguration, error) {
	var err error
	if background != "" {
		if cfg.Background, err = palette.ParseHex(background); err != nil {
			return cfg, fmt.Errorf("--background: %w", err)
		}
	}
	if dateTime != "" {
		if cfg.DateTime, err = palette.ParseHex(dateTime); err != nil {
			return cfg, fmt.Errorf("--datetime: %w", err)
		}
	}
	return cfg, nil
}

func newColorsWatchCmd(opts *rootOptions) *cobra.Command {
	var debounce = control.DefaultDebounce
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Publish the colours in a TOML file whenever it changes",
		Long: `Follow a TOML file with background and date_time keys and publish its
colours each time it is saved. A display's face.toml works as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			base, err := s.controller.Current(cmd.Context())
			if err != nil {
				return err
			}
			err = control.WatchColors(cmd.Context(), args[0], control.WatchOptions{
				Base:     base,
				Debounce: debounce,
				Apply:    s.controller.SetColors,
				Logger:   s.logger,
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "quiet period before a changed file is read")
	return cmd
}
