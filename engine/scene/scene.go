// Package scene holds the objects, camera and fog state a frame is rendered from.
// A Scene is the hlms.SceneContext handed to the material system and its extensions.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/camera"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/chewxy/math32"
)

// FogMode selects how fog distances are reported to shaders.
type FogMode uint8

const (
	// FogNone disables fog: the start distance is 0 and the end distance is effectively infinite.
	FogNone FogMode = iota
	// FogLinear blends linearly between the start and end distances.
	FogLinear
)

func (m FogMode) String() string {
	switch m {
	case FogNone:
		return "none"
	case FogLinear:
		return "linear"
	default:
		return fmt.Sprintf("FogMode(%d)", uint8(m))
	}
}

// ErrNoRenderSystem is returned by RecordDraws when the scene has no render system.
var ErrNoRenderSystem = errors.New("scene: no render system")

type scene struct {
	mu           sync.RWMutex
	fogMode      FogMode
	fogStart     float32
	fogEnd       float32
	fogColour    common.ColourValue
	renderSystem hlms.RenderSystem
	camera       camera.Camera
	registry     map[uint64]game_object.GameObject
	nextID       uint64
}

// Scene is the set of objects drawn each frame together with the camera and fog settings.
type Scene interface {
	hlms.SceneContext

	// FogMode returns the active fog mode.
	FogMode() FogMode

	// SetFog replaces the fog settings.
	//
	// Parameters:
	//   - mode: the fog mode
	//   - start: the distance at which linear fog begins
	//   - end: the distance at which linear fog reaches full density
	//   - colour: the fog colour
	SetFog(mode FogMode, start, end float32, colour common.ColourValue)

	// SetRenderSystem sets the render system the scene is drawn with.
	SetRenderSystem(rs hlms.RenderSystem)

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Add registers an object, assigning a new ID when the object has none.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Remove unregisters the object with the given ID.
	//
	// Returns:
	//   - bool: true if an object was removed
	Remove(id uint64) bool

	// Get returns the object with the given ID.
	Get(id uint64) (game_object.GameObject, bool)

	// Count returns the number of registered objects.
	Count() int

	// Renderables returns the enabled objects queued for the camera: opaque objects front
	// to back, then transparent objects back to front.
	//
	// Returns:
	//   - []hlms.QueuedRenderable: the draw queue
	Renderables() []hlms.QueuedRenderable

	// PassContext builds the pass description for the scene camera.
	//
	// Parameters:
	//   - casterPass: true for a shadow caster pass
	//
	// Returns:
	//   - *hlms.PassContext: the pass context
	PassContext(casterPass bool) *hlms.PassContext

	// RecordDraws generates shaders as needed and records the binding commands of every queued
	// renderable into cb, followed by a command.Draw for objects that have a model. The last cache hash is carried between draws so pipelines are only
	// re-bound when the permutation changes.
	//
	// Parameters:
	//   - h: the material system
	//   - casterPass: true for a shadow caster pass
	//   - cb: the command buffer to record into
	//
	// Returns:
	//   - int: the number of draws recorded
	//   - error: ErrNoRenderSystem or a shader generation error
	RecordDraws(h hlms.Hlms, casterPass bool, cb *command.Buffer) (int, error)
}

var _ Scene = &scene{}

// NewScene creates a new Scene with fog disabled and a default orbit camera.
//
// Parameters:
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		fogColour: common.White,
		registry:  make(map[uint64]game_object.GameObject),
		nextID:    1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.camera == nil {
		s.camera = camera.NewCamera()
	}
	return s
}

func (s *scene) FogMode() FogMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fogMode
}

func (s *scene) FogStart() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fogMode == FogNone {
		return 0
	}
	return s.fogStart
}

func (s *scene) FogEnd() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fogMode == FogNone {
		return math.MaxFloat32
	}
	return s.fogEnd
}

func (s *scene) FogColour() common.ColourValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fogColour
}

func (s *scene) SetFog(mode FogMode, start, end float32, colour common.ColourValue) {
	s.mu.Lock()
	s.fogMode, s.fogStart, s.fogEnd, s.fogColour = mode, start, end, colour
	s.mu.Unlock()
}

func (s *scene) RenderSystem() hlms.RenderSystem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderSystem
}

func (s *scene) SetRenderSystem(rs hlms.RenderSystem) {
	s.mu.Lock()
	s.renderSystem = rs
	s.mu.Unlock()
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(obj)
	return obj.ID()
}

func (s *scene) addLocked(obj game_object.GameObject) {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.registry[obj.ID()] = obj
}

func (s *scene) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return false
	}
	delete(s.registry, id)
	return true
}

func (s *scene) Get(id uint64) (game_object.GameObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.registry[id]
	return obj, ok
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Renderables() []hlms.QueuedRenderable {
	eye := s.camera.Position()

	s.mu.RLock()
	var opaque, transparent []hlms.QueuedRenderable
	for _, obj := range s.registry {
		if !obj.Enabled() {
			continue
		}
		x, y, z := obj.Position()
		dx, dy, dz := x-eye[0], y-eye[1], z-eye[2]
		q := hlms.QueuedRenderable{Renderable: obj, Depth: math32.Sqrt(dx*dx + dy*dy + dz*dz)}
		if obj.Material().Transparent() {
			transparent = append(transparent, q)
		} else {
			opaque = append(opaque, q)
		}
	}
	s.mu.RUnlock()

	// ties break on ID so the queue is stable between frames
	id := func(q hlms.QueuedRenderable) uint64 { return q.Renderable.(game_object.GameObject).ID() }
	sort.Slice(opaque, func(i, j int) bool {
		if opaque[i].Depth != opaque[j].Depth {
			return opaque[i].Depth < opaque[j].Depth
		}
		return id(opaque[i]) < id(opaque[j])
	})
	sort.Slice(transparent, func(i, j int) bool {
		if transparent[i].Depth != transparent[j].Depth {
			return transparent[i].Depth > transparent[j].Depth
		}
		return id(transparent[i]) < id(transparent[j])
	})
	return append(opaque, transparent...)
}

func (s *scene) PassContext(casterPass bool) *hlms.PassContext {
	return &hlms.PassContext{
		Scene:          s,
		CasterPass:     casterPass,
		ViewProj:       s.camera.ViewProjectionMatrix(),
		CameraPosition: s.camera.Position(),
	}
}

func (s *scene) RecordDraws(h hlms.Hlms, casterPass bool, cb *command.Buffer) (int, error) {
	if s.RenderSystem() == nil {
		return 0, ErrNoRenderSystem
	}
	var lastHash uint32
	n := 0
	for _, q := range s.Renderables() {
		cache, err := h.CreateShaderCacheEntry(q.Renderable)
		if err != nil {
			return n, fmt.Errorf("scene: object %d: %w", q.Renderable.(game_object.GameObject).ID(), err)
		}
		prev := lastHash
		if n == 0 {
			// nothing is bound before the first draw, whatever its hash
			prev = ^cache.Hash
		}
		lastHash = h.FillBuffersFor(cache, q, casterPass, prev, cb, q.Renderable.V1Mesh())
		obj := q.Renderable.(game_object.GameObject)
		if mesh := obj.WorldModel(); mesh != nil {
			cb.Add(command.Draw{ID: obj.ID(), Mesh: mesh})
		}
		n++
	}
	return n, nil
}
