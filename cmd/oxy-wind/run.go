package main

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-wind/config"
	"github.com/Carmen-Shannon/oxy-wind/engine"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/Carmen-Shannon/oxy-wind/engine/window"
	"github.com/spf13/cobra"
)

func rendererOptions(cfg config.Config, logger *slog.Logger) []renderer.RendererBuilderOption {
	mode := renderer.PresentModeVSync
	if cfg.Render.PresentMode == config.PresentUncapped {
		mode = renderer.PresentModeUncapped
	}
	opts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithTextureManagerOptions(cfg.TextureOptions()...),
		renderer.WithLogger(logger),
	}
	if cfg.Render.System != "" {
		opts = append(opts, renderer.WithRenderSystemName(cfg.Render.System))
	}
	return opts
}

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and render the foliage patch",
		Long: "Open a window and render the foliage patch.\n\n" +
			"Drag with the left button to orbit, scroll to zoom, up/down to change the wind\n" +
			"strength, space to pause the wind, R or F5 to reload shaders, escape to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := slog.Default()

			win, err := window.NewWindow(
				window.WithTitle(cfg.Render.Title),
				window.WithSize(cfg.Render.Width, cfg.Render.Height),
			)
			if err != nil {
				return err
			}
			defer func() { _ = win.Close() }()

			r, err := renderer.NewRenderer(win, rendererOptions(cfg, logger)...)
			if err != nil {
				return err
			}
			defer r.Release()

			wd, err := buildWorld(cfg, r, logger)
			if err != nil {
				return err
			}
			defer wd.hlms.Release()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := wd.watchShaders(ctx, cfg, logger); err != nil {
				return err
			}

			e, err := engine.NewEngine(
				engine.WithScene(wd.scene),
				engine.WithHlms(wd.hlms),
				engine.WithWind(wd.wind),
				engine.WithWindow(win),
				engine.WithRenderer(r),
				engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
				engine.WithProfiling(cfg.Render.Profiling),
				engine.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			return e.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file (default: built-in defaults)")
	return cmd
}
