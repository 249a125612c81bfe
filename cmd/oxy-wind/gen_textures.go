package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind/windtex"
	"github.com/spf13/cobra"
)

func newGenTexturesCmd() *cobra.Command {
	var (
		out        string
		size       int
		seed       uint64
		noiseName  string
		factorName string
	)
	cmd := &cobra.Command{
		Use:   "gen-textures",
		Short: "Write the noise volume and wind-factor map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < 2 {
				return fmt.Errorf("--size must be at least 2, got %d", size)
			}
			files, err := windtex.GenerateFiles(out, noiseName, factorName, size, seed)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "media/textures", "output directory")
	cmd.Flags().IntVar(&size, "size", 32, "noise volume edge and wind-factor map size in texels")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "noise seed")
	cmd.Flags().StringVar(&noiseName, "noise-name", wind.DefaultNoiseTexture, "noise volume file name")
	cmd.Flags().StringVar(&factorName, "factor-name", wind.DefaultWindFactorTexture, "wind-factor map file name")
	return cmd
}
