package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-wind/config"
	"github.com/Carmen-Shannon/oxy-wind/engine/camera"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/loader"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/scene"
)

// world is the material system and scene built from a configuration.
type world struct {
	renderSystem string
	wind         wind.Wind
	hlms         hlms.Hlms
	scene        scene.Scene
}

func shaderRoot(cfg config.Config) fs.FS {
	if cfg.Shaders.Root == "" {
		return media.FS
	}
	return os.DirFS(cfg.Shaders.Root)
}

// buildWorld creates the wind material system and a foliage scene on rs.
func buildWorld(cfg config.Config, rs hlms.RenderSystem, logger *slog.Logger) (*world, error) {
	w := wind.New(append(cfg.WindOptions(), wind.WithLogger(logger))...)
	h, err := wind.NewHlms(shaderRoot(cfg), rs.Name(), w, hlms.WithRenderSystem(rs), hlms.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	f := cfg.Foliage
	cam := camera.NewCamera(
		camera.WithTarget(0, f.Height/2, 0),
		camera.WithRadius(f.Area*0.75),
		camera.WithAngles(0.6, 0.35),
		camera.WithAspect(float32(cfg.Render.Width)/float32(cfg.Render.Height)),
	)
	objects, err := foliageObjects(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []scene.SceneBuilderOption{
		scene.WithRenderSystem(rs),
		scene.WithCamera(cam),
		scene.WithObjects(objects...),
	}
	if cfg.Fog.Mode == config.FogLinear {
		opts = append(opts, scene.WithLinearFog(cfg.Fog.Start, cfg.Fog.End, cfg.FogColour()))
	}
	return &world{renderSystem: rs.Name(), wind: w, hlms: h, scene: scene.NewScene(opts...)}, nil
}

func foliageMaterialOptions() []material.MaterialBuilderOption {
	return []material.MaterialBuilderOption{
		material.WithBaseColor([4]float32{0.25, 0.55, 0.2, 1}),
		material.WithRoughness(0.8),
	}
}

// foliageObjects returns the configured foliage mesh, or a generated grass patch when no
// mesh file is set.
func foliageObjects(cfg config.Config, logger *slog.Logger) ([]game_object.GameObject, error) {
	f := cfg.Foliage
	if f.Mesh == "" {
		return []game_object.GameObject{game_object.NewGameObject(
			game_object.WithName("foliage"),
			game_object.WithModel(model.Foliage(f.Blades, f.Area, f.Height, f.Rows, f.Seed)),
			game_object.WithMaterial(material.NewMaterial(append(foliageMaterialOptions(), material.WithName("foliage"))...)),
		)}, nil
	}
	l := loader.NewLoader(os.DirFS(filepath.Dir(f.Mesh)),
		loader.WithLogger(logger),
		loader.WithMaterialOptions(foliageMaterialOptions()...),
	)
	return l.Objects(filepath.Base(f.Mesh))
}

// watchShaders clears the shader cache when a piece under the configured root changes.
func (wd *world) watchShaders(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if !cfg.Shaders.Watch {
		return nil
	}
	root := os.DirFS(cfg.Shaders.Root)
	p := wind.DefaultPaths(wd.renderSystem)
	var dirs []string
	for _, rel := range append([]string{p.DataFolder}, p.Libraries...) {
		resolved, err := media.Resolve(root, rel)
		if err != nil {
			logger.Warn("shader folder not watched", "dir", rel, "error", err)
			continue
		}
		dirs = append(dirs, filepath.Join(cfg.Shaders.Root, filepath.FromSlash(resolved)))
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no shader folders under %s", cfg.Shaders.Root)
	}
	return wd.hlms.WatchLibraries(ctx, dirs...)
}
