package main

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/spf13/cobra"
)

func newPathsCmd() *cobra.Command {
	var (
		renderSystem string
		strict       bool
	)
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the shader folders used for a render system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if renderSystem == "" {
				renderSystem = renderer.DefaultRenderSystemName(runtime.GOOS)
			}
			var p wind.Paths
			if strict {
				var err error
				if p, err = wind.ResolveDefaultPaths(renderSystem); err != nil {
					return err
				}
			} else {
				p = wind.DefaultPaths(renderSystem)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "render system: %s\n", renderSystem)
			fmt.Fprintf(out, "syntax:        %s\n", p.Syntax)
			fmt.Fprintf(out, "data:          %s\n", p.DataFolder)
			for _, lib := range p.Libraries {
				fmt.Fprintf(out, "library:       %s\n", lib)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&renderSystem, "render-system", "", "render system name (default: the platform's)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unknown render systems instead of using GLSL")
	return cmd
}
