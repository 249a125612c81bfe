package wind

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
)

// Render system names recognised by the path resolver.
const (
	RenderSystemD3D11   = "Direct3D11 Rendering Subsystem"
	RenderSystemMetal   = "Metal Rendering Subsystem"
	RenderSystemGL3Plus = "OpenGL 3+ Rendering Subsystem"
)

// Shader syntax folder names.
const (
	SyntaxHLSL  = "HLSL"
	SyntaxMetal = "Metal"
	SyntaxGLSL  = "GLSL"
)

// ErrUnsupportedBackend is returned by ResolveDefaultPaths for an unknown render system name.
var ErrUnsupportedBackend = errors.New("wind: unsupported render system")

var syntaxByRenderSystem = map[string]string{
	RenderSystemD3D11:   SyntaxHLSL,
	RenderSystemMetal:   SyntaxMetal,
	RenderSystemGL3Plus: SyntaxGLSL,
}

// Paths are the media folders the wind material system loads its shaders from, relative to
// the media root.
type Paths struct {
	// Syntax is the shader syntax folder name chosen for the render system.
	Syntax string

	// DataFolder holds the templates.
	DataFolder string

	// Libraries are the piece folders, lowest precedence first.
	Libraries []string
}

func pathsFor(syntax string) Paths {
	return Paths{
		Syntax: syntax,
		// lower-case "pbs" is the folder name the media has always been addressed by
		DataFolder: "Hlms/pbs/" + syntax,
		Libraries: []string{
			"Hlms/Common/" + syntax,
			"Hlms/Common/Any",
			"Hlms/Pbs/Any",
			"Hlms/Pbs/Any/Main",
			"Hlms/Wind/Any",
		},
	}
}

// ResolveDefaultPaths returns the media folders for a render system.
//
// Parameters:
//   - renderSystemName: the render system name, for example RenderSystemGL3Plus
//
// Returns:
//   - Paths: the folders
//   - error: ErrUnsupportedBackend for an unknown name
func ResolveDefaultPaths(renderSystemName string) (Paths, error) {
	syntax, ok := syntaxByRenderSystem[renderSystemName]
	if !ok {
		return Paths{}, fmt.Errorf("%w: %q", ErrUnsupportedBackend, renderSystemName)
	}
	return pathsFor(syntax), nil
}

// DefaultPaths is ResolveDefaultPaths that falls back to the GLSL folders and logs a
// warning for an unknown render system name.
//
// Parameters:
//   - renderSystemName: the render system name
//
// Returns:
//   - Paths: the folders
func DefaultPaths(renderSystemName string) Paths {
	p, err := ResolveDefaultPaths(renderSystemName)
	if err != nil {
		slog.Warn("wind: unknown render system, using GLSL shader folders", "render_system", renderSystemName)
		return pathsFor(SyntaxGLSL)
	}
	return p
}

// Open resolves the folders against a media root such as media.FS or os.DirFS.
//
// Parameters:
//   - root: the media root
//
// Returns:
//   - fs.FS: the data folder
//   - []fs.FS: the library folders in order
//   - error: an error if a folder does not exist
func (p Paths) Open(root fs.FS) (fs.FS, []fs.FS, error) {
	data, err := media.Sub(root, p.DataFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("wind: data folder: %w", err)
	}
	libs := make([]fs.FS, 0, len(p.Libraries))
	for _, dir := range p.Libraries {
		lib, err := media.Sub(root, dir)
		if err != nil {
			return nil, nil, fmt.Errorf("wind: library folder: %w", err)
		}
		libs = append(libs, lib)
	}
	return data, libs, nil
}
