package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/config"
	"github.com/Carmen-Shannon/oxy-wind/engine"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/spf13/cobra"
)

// floats of the base pass block preceding the wind block
const basePassFloats = 20

func renderSystemName(cfg config.Config) string {
	if cfg.Render.System != "" {
		return cfg.Render.System
	}
	return renderer.DefaultRenderSystemName(runtime.GOOS)
}

func newSimulateCmd() *cobra.Command {
	var (
		configPath string
		frames     int
		dt         float32
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run frames headless and print the per-pass wind block and the recorded commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frames < 0 || dt < 0 {
				return fmt.Errorf("--frames and --dt must not be negative")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := slog.Default()

			rs := renderer.NewHeadless(renderSystemName(cfg), cfg.TextureOptions()...)
			defer rs.Release()
			wd, err := buildWorld(cfg, rs, logger)
			if err != nil {
				return err
			}
			defer wd.hlms.Release()

			e, err := engine.NewEngine(
				engine.WithScene(wd.scene),
				engine.WithHlms(wd.hlms),
				engine.WithWind(wd.wind),
				engine.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			if err := e.Setup(); err != nil {
				return err
			}
			defer func() {
				if err := e.Shutdown(); err != nil {
					logger.Warn("shutdown", "error", err)
				}
			}()
			rs.TextureManager().WaitForStreamingCompletion()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "render system: %s\n", rs.Name())
			for i := range frames {
				frame, err := e.Step(dt)
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				printFrame(out, i, frame)
			}
			uploads, releases := rs.Uploader().Stats()
			fmt.Fprintf(out, "textures: %d resident, %d uploads, %d releases\n", rs.Uploader().Live(), uploads, releases)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file (default: built-in defaults)")
	cmd.Flags().IntVar(&frames, "frames", 3, "number of frames to simulate")
	cmd.Flags().Float32Var(&dt, "dt", 1.0/60, "seconds advanced per frame")
	return cmd
}

func printFrame(w io.Writer, i int, frame engine.Frame) {
	floats := common.BytesToFloat32s(frame.PassBuffer)
	fmt.Fprintf(w, "frame %d: %d objects, pass buffer %d bytes\n", i, frame.Objects, len(frame.PassBuffer))
	if len(floats) >= basePassFloats+10 {
		wb := floats[basePassFloats:]
		fmt.Fprintf(w, "  fog_params    %g %g %g %g\n", wb[0], wb[1], wb[2], wb[3])
		fmt.Fprintf(w, "  fog_colour    %g %g %g %g\n", wb[4], wb[5], wb[6], wb[7])
		fmt.Fprintf(w, "  wind_strength %g\n", wb[8])
		fmt.Fprintf(w, "  global_time   %g\n", wb[9])
	}
	for _, c := range frame.Commands {
		fmt.Fprintf(w, "  %s\n", c)
	}
}
