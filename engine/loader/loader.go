// Package loader imports static meshes and their metallic-roughness materials from glTF 2.0
// (.gltf and .glb) files.
//
// Node transforms are baked into the vertices, so every returned Mesh is in scene space.
// Skins, animations and morph targets are ignored.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
)

// ErrNoGeometry is returned when a file holds no triangle primitives.
var ErrNoGeometry = errors.New("loader: no triangle geometry")

// maxNodeDepth bounds the node hierarchy walk; deeper graphs are treated as cyclic.
const maxNodeDepth = 64

// Mesh is one triangle primitive of a loaded file with the material it is drawn with.
type Mesh struct {
	Name     string
	Model    model.Model
	Material material.Material
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	fsys          fs.FS
	logger        *slog.Logger
	materialBase  []material.MaterialBuilderOption
	meshCache     map[string][]Mesh
	objectOptions []game_object.GameObjectBuilderOption
}

// Loader loads and caches the meshes of glTF files.
type Loader interface {
	// Load imports a file from the loader's file system. A cached result is returned when
	// the same name was loaded before.
	//
	// Parameters:
	//   - name: the slash-separated path of a .gltf or .glb file
	//
	// Returns:
	//   - []Mesh: one entry per triangle primitive, in node order
	//   - error: a read, parse or accessor error, or ErrNoGeometry
	Load(name string) ([]Mesh, error)

	// LoadReader imports a file from a stream and caches it under name. External buffers
	// are resolved from the root of the loader's file system.
	//
	// Parameters:
	//   - name: the cache key, also used to name materials without a name
	//   - r: the file contents
	//   - isGLB: true for binary GLB data
	//
	// Returns:
	//   - []Mesh: the meshes
	//   - error: as Load
	LoadReader(name string, r io.Reader, isGLB bool) ([]Mesh, error)

	// Get returns the cached meshes of name, or nil.
	Get(name string) []Mesh

	// Objects loads name and wraps every mesh in a game object.
	//
	// Parameters:
	//   - name: the file to load
	//   - options: options applied to every object after its name, model and material
	//
	// Returns:
	//   - []game_object.GameObject: one object per mesh
	//   - error: as Load
	Objects(name string, options ...game_object.GameObjectBuilderOption) ([]game_object.GameObject, error)

	// Clear drops every cached result.
	Clear()
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from fsys.
//
// Parameters:
//   - fsys: the file system files and external buffers are read from
//   - options: a variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(fsys fs.FS, options ...LoaderBuilderOption) Loader {
	l := &loader{
		fsys:      fsys,
		logger:    slog.Default(),
		meshCache: make(map[string][]Mesh),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(name string) ([]Mesh, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	p := newGLTFParser(l.fsys)
	if err := p.Parse(name); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", name, err)
	}
	return l.build(name, p)
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) ([]Mesh, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	p := newGLTFParser(l.fsys)
	if err := p.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", name, err)
	}
	return l.build(name, p)
}

func (l *loader) Get(name string) []Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Objects(name string, options ...game_object.GameObjectBuilderOption) ([]game_object.GameObject, error) {
	meshes, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	objects := make([]game_object.GameObject, 0, len(meshes))
	for _, m := range meshes {
		opts := append([]game_object.GameObjectBuilderOption{
			game_object.WithName(m.Name),
			game_object.WithModel(m.Model),
			game_object.WithMaterial(m.Material),
		}, l.objectOptions...)
		objects = append(objects, game_object.NewGameObject(append(opts, options...)...))
	}
	return objects, nil
}

func (l *loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.meshCache)
}

func (l *loader) build(name string, p gltfParser) ([]Mesh, error) {
	b := &meshBuilder{
		loader:    l,
		parser:    p,
		doc:       p.Document(),
		file:      strings.TrimSuffix(path.Base(name), path.Ext(name)),
		materials: make(map[int]material.Material),
	}
	if err := b.walk(); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", name, err)
	}
	if len(b.meshes) == 0 {
		return nil, fmt.Errorf("loader: %s: %w", name, ErrNoGeometry)
	}

	l.mu.Lock()
	l.meshCache[name] = b.meshes
	l.mu.Unlock()
	l.logger.Debug("loader: loaded", "file", name, "meshes", len(b.meshes))
	return b.meshes, nil
}

// meshBuilder flattens one parsed document.
type meshBuilder struct {
	loader    *loader
	parser    gltfParser
	doc       *gltfDocument
	file      string
	materials map[int]material.Material
	meshes    []Mesh
}

// roots returns the root nodes of the default scene, or every parentless node when the
// document has no scenes.
func (b *meshBuilder) roots() []int {
	if len(b.doc.Scenes) > 0 {
		s := 0
		if b.doc.Scene != nil && *b.doc.Scene >= 0 && *b.doc.Scene < len(b.doc.Scenes) {
			s = *b.doc.Scene
		}
		return b.doc.Scenes[s].Nodes
	}
	child := make(map[int]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (b *meshBuilder) walk() error {
	if len(b.doc.Nodes) == 0 {
		// Mesh-only documents are drawn untransformed.
		for i := range b.doc.Meshes {
			if err := b.addMesh(i, "", common.Identity()); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range b.roots() {
		if err := b.visit(r, common.Identity(), 0); err != nil {
			return err
		}
	}
	return nil
}

func (b *meshBuilder) visit(index int, parent common.Mat4, depth int) error {
	if index < 0 || index >= len(b.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", index, maxNodeDepth)
	}
	n := b.doc.Nodes[index]
	world := parent.Mul(localTransform(n))
	if n.Mesh != nil {
		if err := b.addMesh(*n.Mesh, n.Name, world); err != nil {
			return fmt.Errorf("node %d: %w", index, err)
		}
	}
	for _, c := range n.Children {
		if err := b.visit(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func localTransform(n gltfNode) common.Mat4 {
	if n.Matrix != nil {
		return common.Mat4(*n.Matrix)
	}
	t, q, s := [3]float32{}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		q = *n.Rotation
	}
	if n.Scale != nil {
		s = *n.Scale
	}
	return common.TRS(t, q, s)
}

// mirrored reports whether m flips handedness, which reverses triangle winding.
func mirrored(m common.Mat4) bool {
	det := m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[4]*(m[1]*m[10]-m[2]*m[9]) +
		m[8]*(m[1]*m[6]-m[2]*m[5])
	return det < 0
}

func (b *meshBuilder) addMesh(meshIndex int, nodeName string, world common.Mat4) error {
	if meshIndex < 0 || meshIndex >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	mesh := b.doc.Meshes[meshIndex]
	name := common.Coalesce(nodeName, mesh.Name, fmt.Sprintf("%s/mesh%d", b.file, meshIndex))

	for pi, prim := range mesh.Primitives {
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			b.loader.logger.Warn("loader: skipping non-triangle primitive", "mesh", name, "primitive", pi, "mode", *prim.Mode)
			continue
		}
		m, err := b.primitiveModel(prim, world)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}
		primName := name
		if len(mesh.Primitives) > 1 {
			primName = fmt.Sprintf("%s#%d", name, pi)
		}
		b.meshes = append(b.meshes, Mesh{
			Name:     primName,
			Model:    model.NewModel(model.WithName(primName), model.WithVertices(m.vertices), model.WithIndices(m.indices)),
			Material: b.material(prim.Material),
		})
	}
	return nil
}

type primitiveData struct {
	vertices []model.GPUVertex
	indices  []uint32
}

func (b *meshBuilder) primitiveModel(prim gltfPrimitive, world common.Mat4) (primitiveData, error) {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return primitiveData{}, errors.New("primitive has no POSITION")
	}
	positions, err := b.parser.ReadVec3Accessor(posIndex)
	if err != nil {
		return primitiveData{}, fmt.Errorf("POSITION: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = b.parser.ReadVec3Accessor(idx); err != nil {
			return primitiveData{}, fmt.Errorf("NORMAL: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = b.parser.ReadVec2Accessor(idx); err != nil {
			return primitiveData{}, fmt.Errorf("TEXCOORD_0: %w", err)
		}
	}

	vertices := make([]model.GPUVertex, len(positions))
	for i, p := range positions {
		v := model.GPUVertex{Position: world.TransformPoint(p), Normal: [3]float32{0, 1, 0}}
		if i < len(normals) {
			v.Normal = world.TransformNormal(normals[i])
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = b.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return primitiveData{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return primitiveData{}, fmt.Errorf("index count %d is not a triangle list", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return primitiveData{}, fmt.Errorf("index %d out of range (%d vertices)", i, len(vertices))
		}
	}
	if mirrored(world) {
		for t := 0; t+2 < len(indices); t += 3 {
			indices[t+1], indices[t+2] = indices[t+2], indices[t+1]
		}
	}
	return primitiveData{vertices: vertices, indices: indices}, nil
}

// material returns the material of a primitive, built once per document material.
func (b *meshBuilder) material(index *int) material.Material {
	key := -1
	if index != nil && *index >= 0 && *index < len(b.doc.Materials) {
		key = *index
	}
	if m, ok := b.materials[key]; ok {
		return m
	}

	opts := append([]material.MaterialBuilderOption{}, b.loader.materialBase...)
	if key < 0 {
		opts = append(opts, material.WithName(b.file+"/default"))
	} else {
		gm := b.doc.Materials[key]
		opts = append(opts, material.WithName(common.Coalesce(gm.Name, fmt.Sprintf("%s/material%d", b.file, key))))
		if pbr := gm.PbrMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				opts = append(opts, material.WithBaseColor(*pbr.BaseColorFactor))
			}
			if pbr.MetallicFactor != nil {
				opts = append(opts, material.WithMetallic(*pbr.MetallicFactor))
			}
			if pbr.RoughnessFactor != nil {
				opts = append(opts, material.WithRoughness(*pbr.RoughnessFactor))
			}
			if tex := b.textureName(pbr.BaseColorTexture); tex != "" {
				opts = append(opts, material.WithDiffuseTexture(tex))
			}
			if tex := b.textureName(pbr.MetallicRoughnessTexture); tex != "" {
				opts = append(opts, material.WithMetallicRoughnessTexture(tex))
			}
		}
		if tex := b.textureName(gm.NormalTexture); tex != "" {
			opts = append(opts, material.WithNormalTexture(tex))
		}
		if gm.AlphaMode == gltfAlphaModeBlend {
			opts = append(opts, material.WithTransparent(true))
		}
	}

	m := material.NewMaterial(opts...)
	b.materials[key] = m
	return m
}

// textureName maps a texture reference to the file name the texture manager resolves
// through its resource groups. Embedded images have no file name and are dropped.
func (b *meshBuilder) textureName(info *gltfTextureInfo) string {
	if info == nil || info.Index < 0 || info.Index >= len(b.doc.Textures) {
		return ""
	}
	src := b.doc.Textures[info.Index].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return ""
	}
	img := b.doc.Images[*src]
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		b.loader.logger.Warn("loader: embedded image not supported", "file", b.file, "image", common.Coalesce(img.Name, fmt.Sprint(*src)))
		return ""
	}
	return path.Base(img.URI)
}
