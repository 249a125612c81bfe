// Package hlms implements the high level material system: it selects shader permutations
// for renderables, generates their WGSL from template folders, fills the per-pass
// parameter buffer and records per-draw binding commands.
//
// The base PBS behaviour lives here. Effects such as wind are added as Extensions and
// PassListeners, which run after the base step of each hook in registration order.
package hlms

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
)

// Type identifies a material system instance.
type Type int

const (
	// TypePbs is the physically based material system.
	TypePbs Type = iota
	// TypeUnlit is the unlit material system.
	TypeUnlit
	// TypeUser0 is the first slot for custom material systems.
	TypeUser0
	// TypeUser1 is the second slot for custom material systems.
	TypeUser1
	// TypeUser2 is the third slot for custom material systems.
	TypeUser2
)

func (t Type) String() string {
	switch t {
	case TypePbs:
		return "pbs"
	case TypeUnlit:
		return "unlit"
	case TypeUser0:
		return "user0"
	case TypeUser1:
		return "user1"
	case TypeUser2:
		return "user2"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

const (
	// FirstExtensionSlot is the first texture slot available to extensions. The base PBS
	// textures own slots 0 to FirstExtensionSlot-1.
	FirstExtensionSlot uint32 = 14

	// MaxTextureSlots is the number of texture slots per stage. Samplers are bound at
	// slot + shader.SamplerBindingOffset.
	MaxTextureSlots uint32 = shader.SamplerBindingOffset

	// PassBufferSlot is the constant buffer slot of the per-pass buffer.
	PassBufferSlot uint32 = 0

	// MaterialBufferSlot is the constant buffer slot of the per-material block.
	MaterialBufferSlot uint32 = 1
)

// Template file names looked up in the data folder.
const (
	VertexTemplate = "VertexShader_vs.wgsl"
	PixelTemplate  = "PixelShader_ps.wgsl"
)

var (
	// ErrPassBufferMismatch is returned when a pass listener writes a different number of
	// floats than its PassBufferSize reported.
	ErrPassBufferMismatch = errors.New("hlms: pass buffer size mismatch")

	// ErrTooManyTextureSlots is returned when extensions reserve more slots than exist past
	// FirstExtensionSlot.
	ErrTooManyTextureSlots = errors.New("hlms: extensions reserve too many texture slots")
)

// Cache is a generated shader permutation.
type Cache struct {
	// Hash identifies the permutation. It is the hash of Properties.
	Hash uint32

	Properties *shader.PropertySet
	Registers  *shader.TextureRegisters

	Vertex shader.Shader
	Pixel  shader.Shader
}

// hlms is the implementation of the Hlms interface.
type hlms struct {
	typ        Type
	typeName   string
	dataFolder fs.FS
	libraries  []fs.FS

	extensions   []Extension
	listeners    []PassListener
	structs      map[string]shader.Struct
	renderSystem RenderSystem
	textureGroup int
	logger       *slog.Logger

	mu           sync.Mutex
	library      *shader.Library
	libraryStale bool
	cache        map[uint32]*Cache
	retired      map[uint32]*Cache // cleared permutations, kept until regenerated
	textures     map[string]*materialTextures
}

// Hlms is a material system instance with its ordered extensions and pass listeners.
type Hlms interface {
	// Type returns the slot the instance is registered under.
	Type() Type

	// TypeName returns the human readable name of the instance.
	TypeName() string

	// Extensions returns the registered extensions in call order.
	Extensions() []Extension

	// ReservedTextureSlots returns the total number of slots reserved by extensions.
	ReservedTextureSlots() uint32

	// Setup runs Setup on every extension that implements Lifecycle, in order. When one
	// fails, the extensions already set up are shut down in reverse order.
	//
	// Parameters:
	//   - ctx: the scene the extensions acquire resources from
	//
	// Returns:
	//   - error: the first setup error
	Setup(ctx SceneContext) error

	// Shutdown runs Shutdown on every extension that implements Lifecycle, in reverse order.
	//
	// Parameters:
	//   - ctx: the scene the extensions release resources to
	//
	// Returns:
	//   - error: the shutdown errors joined together
	Shutdown(ctx SceneContext) error

	// CalculateHashForPreCreate computes the shader properties of a renderable: the base PBS
	// properties first, then every extension.
	//
	// Parameters:
	//   - r: the renderable
	//
	// Returns:
	//   - *shader.PropertySet: the final property set
	//   - uint32: the permutation hash of the property set
	CalculateHashForPreCreate(r Renderable) (*shader.PropertySet, uint32)

	// CreateShaderCacheEntry returns the generated permutation for a renderable, generating
	// it from the data folder templates and the library pieces on first use.
	//
	// Parameters:
	//   - r: the renderable
	//
	// Returns:
	//   - *Cache: the cached permutation
	//   - error: a template, library or pre-processor error
	CreateShaderCacheEntry(r Renderable) (*Cache, error)

	// ClearShaderCache drops every generated permutation. The piece library is reloaded on
	// the next CreateShaderCacheEntry. Cleared permutations stay reachable through Cache
	// until they are regenerated, so commands recorded before the clear still execute.
	ClearShaderCache()

	// CacheLen returns the number of generated permutations.
	CacheLen() int

	// Cache returns the generated permutation with the given hash.
	//
	// Parameters:
	//   - hash: the permutation hash carried by command.SetPipeline
	//
	// Returns:
	//   - *Cache: the permutation, or the cleared one when it has not been regenerated yet
	//   - bool: false if no permutation with that hash was ever generated
	Cache(hash uint32) (*Cache, bool)

	// PassBufferSize returns the size in bytes of the per-pass buffer for a pass.
	//
	// Parameters:
	//   - ctx: the pass
	//
	// Returns:
	//   - uint32: the base block size plus every listener's size
	PassBufferSize(ctx *PassContext) uint32

	// PreparePassBuffer builds the per-pass buffer: the base block followed by each pass
	// listener's block in registration order.
	//
	// Parameters:
	//   - ctx: the pass
	//
	// Returns:
	//   - []byte: the little-endian buffer contents
	//   - error: ErrPassBufferMismatch if a listener consumed a different number of floats
	//     than it reported
	PreparePassBuffer(ctx *PassContext) ([]byte, error)

	// FillBuffersFor records the draw commands of a renderable: every extension binder
	// first, then the base PBS routine.
	//
	// Parameters:
	//   - cache: the permutation of the draw
	//   - queued: the renderable being drawn
	//   - casterPass: true for shadow caster passes
	//   - lastCacheHash: the cache hash returned for the previous draw
	//   - cb: the command buffer to record into
	//   - isV1: true if the renderable uses a v1 mesh
	//
	// Returns:
	//   - uint32: the cache hash to pass as lastCacheHash to the next draw
	FillBuffersFor(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer, isV1 bool) uint32

	// FillBuffersForV1 is FillBuffersFor for v1 meshes.
	FillBuffersForV1(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) uint32

	// FillBuffersForV2 is FillBuffersFor for v2 meshes.
	FillBuffersForV2(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) uint32

	// WatchLibraries clears the shader cache whenever a piece file changes under one of the
	// directories. It returns once the watcher is running; the watcher stops when ctx is done.
	//
	// Parameters:
	//   - ctx: controls the lifetime of the watcher
	//   - dirs: directories to watch, including their subdirectories
	//
	// Returns:
	//   - error: an error if the watcher could not be started
	WatchLibraries(ctx context.Context, dirs ...string) error

	// Release destroys the material textures acquired by the base fill routine.
	Release()
}

var _ Hlms = &hlms{}

// New creates a material system instance. The piece library is loaded from the library
// folders, lowest precedence first.
//
// Parameters:
//   - typ: the slot the instance is registered under
//   - typeName: the human readable name of the instance
//   - dataFolder: the folder holding the VertexTemplate and PixelTemplate files
//   - libraries: the piece library folders in precedence order
//   - options: variadic list of HlmsBuilderOption functions
//
// Returns:
//   - Hlms: the new instance
//   - error: a library load error, or ErrTooManyTextureSlots
func New(typ Type, typeName string, dataFolder fs.FS, libraries []fs.FS, options ...HlmsBuilderOption) (Hlms, error) {
	if dataFolder == nil {
		panic("hlms: nil data folder")
	}
	h := &hlms{
		typ:          typ,
		typeName:     typeName,
		dataFolder:   dataFolder,
		libraries:    libraries,
		structs:      map[string]shader.Struct{},
		textureGroup: shader.DefaultTextureGroup,
		logger:       slog.Default(),
		cache:        make(map[uint32]*Cache),
		retired:      make(map[uint32]*Cache),
		textures:     make(map[string]*materialTextures),
	}
	h.structs[PassParamsStruct] = shader.Struct{Source: GPUPassParamsSource, Type: "PassParams"}
	h.structs[MaterialParamsStruct] = materialParamsStruct()

	for _, opt := range options {
		opt(h)
	}

	var reserved uint32
	for _, ext := range h.extensions {
		reserved += ext.ReservedTextureSlots()
	}
	if FirstExtensionSlot+reserved > MaxTextureSlots {
		return nil, fmt.Errorf("%w: %d reserved, %d available", ErrTooManyTextureSlots, reserved, MaxTextureSlots-FirstExtensionSlot)
	}

	lib, err := shader.LoadLibrary(libraries...)
	if err != nil {
		return nil, fmt.Errorf("hlms: load %s library: %w", typeName, err)
	}
	h.library = lib
	h.logger.Debug("hlms: created", "type", typ, "name", typeName, "pieces", lib.Len(), "extensions", len(h.extensions))
	return h, nil
}

func (h *hlms) addExtension(ext Extension) {
	h.extensions = append(h.extensions, ext)
	if p, ok := ext.(PassListenerProvider); ok {
		if l := p.PassListener(); l != nil {
			h.listeners = append(h.listeners, l)
		}
	}
	if p, ok := ext.(StructProvider); ok {
		for key, s := range p.Structs() {
			h.structs[key] = s
		}
	}
}

func (h *hlms) Type() Type {
	return h.typ
}

func (h *hlms) TypeName() string {
	return h.typeName
}

func (h *hlms) Extensions() []Extension {
	return h.extensions
}

func (h *hlms) ReservedTextureSlots() uint32 {
	var n uint32
	for _, ext := range h.extensions {
		n += ext.ReservedTextureSlots()
	}
	return n
}

func (h *hlms) Setup(ctx SceneContext) error {
	var done []Lifecycle
	for _, ext := range h.extensions {
		lc, ok := ext.(Lifecycle)
		if !ok {
			continue
		}
		if err := lc.Setup(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if serr := done[i].Shutdown(ctx); serr != nil {
					h.logger.Warn("hlms: rollback shutdown failed", "error", serr)
				}
			}
			return fmt.Errorf("hlms: setup %s: %w", ext.Name(), err)
		}
		done = append(done, lc)
	}
	return nil
}

func (h *hlms) Shutdown(ctx SceneContext) error {
	var errs []error
	for i := len(h.extensions) - 1; i >= 0; i-- {
		if lc, ok := h.extensions[i].(Lifecycle); ok {
			if err := lc.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("hlms: shutdown %s: %w", h.extensions[i].Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (h *hlms) CalculateHashForPreCreate(r Renderable) (*shader.PropertySet, uint32) {
	props := shader.NewPropertySet()
	h.basePropertiesFor(r, props)
	for _, ext := range h.extensions {
		ext.CalculateHashForPreCreate(r, props)
	}
	return props, props.Hash()
}

func (h *hlms) CreateShaderCacheEntry(r Renderable) (*Cache, error) {
	props, hash := h.CalculateHashForPreCreate(r)

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.cache[hash]; ok {
		return c, nil
	}
	if h.libraryStale {
		lib, err := shader.LoadLibrary(h.libraries...)
		if err != nil {
			return nil, fmt.Errorf("hlms: reload %s library: %w", h.typeName, err)
		}
		h.library, h.libraryStale = lib, false
	}

	regs := shader.NewTextureRegisters()
	baseRegisters(props, regs)
	for _, ext := range h.extensions {
		ext.PropertiesMergedPreGenerationStep(regs)
	}

	opts := []shader.PreProcessorBuilderOption{
		shader.WithLibrary(h.library),
		shader.WithTextureGroup(h.textureGroup),
	}
	for key, s := range h.structs {
		opts = append(opts, shader.WithStruct(key, s))
	}
	pp := shader.NewPreProcessor(opts...)

	c := &Cache{Hash: hash, Properties: props, Registers: regs}
	var err error
	if c.Vertex, err = h.generate(pp, VertexTemplate, shader.ShaderTypeVertex, c); err != nil {
		return nil, err
	}
	if c.Pixel, err = h.generate(pp, PixelTemplate, shader.ShaderTypeFragment, c); err != nil {
		return nil, err
	}
	h.cache[hash] = c
	delete(h.retired, hash)
	h.logger.Debug("hlms: generated permutation", "name", h.typeName, "hash", fmt.Sprintf("0x%08x", hash), "properties", props.String())
	return c, nil
}

func (h *hlms) generate(pp shader.PreProcessor, template string, stage shader.ShaderType, c *Cache) (shader.Shader, error) {
	src, err := fs.ReadFile(h.dataFolder, template)
	if err != nil {
		return nil, fmt.Errorf("hlms: read template %s: %w", template, err)
	}
	out, err := pp.Process(string(src), c.Properties, c.Registers)
	if err != nil {
		return nil, fmt.Errorf("hlms: generate %s for 0x%08x: %w", template, c.Hash, err)
	}
	decls := append([]shader.Annotation(nil), pp.Declarations()...)
	key := fmt.Sprintf("%s_%08x_%s", h.typeName, c.Hash, stage)
	return shader.NewShader(key, stage, out, decls), nil
}

func (h *hlms) ClearShaderCache() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for hash, c := range h.cache {
		h.retired[hash] = c
	}
	clear(h.cache)
	h.libraryStale = true
}

func (h *hlms) CacheLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache)
}

func (h *hlms) Cache(hash uint32) (*Cache, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.cache[hash]; ok {
		return c, true
	}
	c, ok := h.retired[hash]
	return c, ok
}

func (h *hlms) FillBuffersFor(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer, isV1 bool) uint32 {
	for _, ext := range h.extensions {
		ext.FillBuffersFor(cache, queued, casterPass, lastCacheHash, cb, isV1)
	}
	return h.fillBase(cache, queued, casterPass, lastCacheHash, cb)
}

func (h *hlms) FillBuffersForV1(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) uint32 {
	return h.FillBuffersFor(cache, queued, casterPass, lastCacheHash, cb, true)
}

func (h *hlms) FillBuffersForV2(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) uint32 {
	return h.FillBuffersFor(cache, queued, casterPass, lastCacheHash, cb, false)
}

func (h *hlms) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, mt := range h.textures {
		mt.release(h.renderSystem, h.logger)
		delete(h.textures, name)
	}
}
