package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/wavepulse/internal/app"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// launcher builds and runs the application for an optional source.
type launcher func(config app.Config, source *domain.MediaSource) error

// playOptions collects the flags shared by the root and play commands.
type playOptions struct {
	configPath string
	theme      string
	title      string
	mock       bool
	fps        int
}

func newRootCommand(run launcher) *cobra.Command {
	opts := &playOptions{}

	rootCmd := &cobra.Command{
		Use:           "wavepulse",
		Short:         "Real-time audio visualizer",
		Long:          `WavePulse plays an audio file and draws ripples that pulse with its low, mid and high bands.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return run(config, nil)
		},
	}
	setupFlags(rootCmd, opts)

	rootCmd.AddCommand(playCommand(run, opts), versionCommand())
	return rootCmd
}

func playCommand(run launcher, opts *playOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play [file.wav]",
		Short: "Play and visualize an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving %s: %w", args[0], err)
			}
			if !config.Audio.Mock {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("cannot open %s: %w", args[0], err)
				}
			}

			source := &domain.MediaSource{
				URL:       "file://" + filepath.ToSlash(path),
				Title:     opts.title,
				ShowTitle: true,
			}
			return run(config, source)
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}

func setupFlags(cmd *cobra.Command, opts *playOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&opts.theme, "theme", "", "Background theme: dark, light")
	flags.StringVar(&opts.title, "title", "", "Title to display instead of the file tags")
	flags.BoolVar(&opts.mock, "mock", false, "Use a synthetic demo signal instead of the sound card")
	flags.IntVar(&opts.fps, "fps", 0, "Target frame rate")
}

// resolve loads the config file and lets explicitly set flags win over it.
func (o *playOptions) resolve(cmd *cobra.Command) (app.Config, error) {
	config, err := app.LoadConfig(o.configPath)
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("theme") {
		config.Theme = o.theme
	}
	if flags.Changed("mock") {
		config.Audio.Mock = o.mock
	}
	if flags.Changed("fps") {
		config.FPS = o.fps
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid flags: %w", err)
	}
	return config, nil
}

// launch runs the application until its window closes.
func launch(config app.Config, source *domain.MediaSource) error {
	application, err := app.NewApplication(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	if source != nil {
		if err := application.Start(context.Background(), *source); err != nil {
			return fmt.Errorf("failed to start %s: %w", source.URL, err)
		}
	}

	return application.Run()
}
