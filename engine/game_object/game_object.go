package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
)

type gameObject struct {
	id      uint64
	name    string
	enabled atomic.Bool
	mat     material.Material
	model   model.Model
	skinned bool
	v1Mesh  bool

	mu       sync.Mutex
	position [3]float32
	scale    [3]float32
	world    model.Model // nil until requested, reset when the transform changes
}

// GameObject defines the interface for a scene entity drawn through the material system.
// Every GameObject is an hlms.Renderable: its material selects the shader permutation and
// its mesh flags select the skinned and v1 variants.
type GameObject interface {
	hlms.Renderable

	// ID returns the object's identifier within its scene. 0 means unassigned.
	ID() uint64

	// Name returns the object's name.
	Name() string

	// Enabled reports whether the object is drawn.
	Enabled() bool

	// Model returns the mesh the object is drawn with, or nil when the object has no geometry.
	Model() model.Model

	// WorldModel returns the mesh transformed by the object's position and scale, or nil.
	// The same Model is returned until the transform changes.
	WorldModel() model.Model

	// Position returns the world position.
	//
	// Returns:
	//   - x, y, z: the position components
	Position() (x, y, z float32)

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - sx, sy, sz: the scale components
	Scale() (sx, sy, sz float32)

	// SetID sets the object's identifier. Scenes call this when the object is added.
	//
	// Parameters:
	//   - id: the identifier
	SetID(id uint64)

	// SetEnabled sets whether the object is drawn.
	//
	// Parameters:
	//   - enabled: true to draw the object, false to skip it
	SetEnabled(enabled bool)

	// SetPosition sets the world position.
	//
	// Parameters:
	//   - x, y, z: the position components
	SetPosition(x, y, z float32)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - sx, sy, sz: the scale components
	SetScale(sx, sy, sz float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the provided options.
// Objects are enabled, unscaled and drawn with the default material unless configured otherwise.
//
// Parameters:
//   - options: variadic list of GameObjectBuilderOption functions
//
// Returns:
//   - GameObject: a new GameObject instance
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: [3]float32{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.mat == nil {
		obj.mat = material.NewMaterial(material.WithName(obj.name))
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	return g.model
}

func (g *gameObject) WorldModel() model.Model {
	if g.model == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.world == nil {
		g.world = g.model.Transformed(g.position, g.scale)
	}
	return g.world
}

func (g *gameObject) Material() material.Material {
	return g.mat
}

func (g *gameObject) Skinned() bool {
	return g.skinned
}

func (g *gameObject) V1Mesh() bool {
	return g.v1Mesh
}

func (g *gameObject) Position() (x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	g.position = [3]float32{x, y, z}
	g.world = nil
	g.mu.Unlock()
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	g.scale = [3]float32{sx, sy, sz}
	g.world = nil
	g.mu.Unlock()
}
