package hlms

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// Base PBS shader properties.
const (
	PropertyDiffuseMap           = "diffuse_map"
	PropertyNormalMap            = "normal_map"
	PropertyMetallicRoughnessMap = "metallic_roughness_map"
	PropertySkeleton             = "hlms_skeleton"
	PropertyV1Mesh               = "hlms_v1_mesh"
	PropertyAlphaBlend           = "hlms_alpha_blend"
)

// Struct keys registered for @oxy:include in every instance.
const (
	PassParamsStruct     = "pass_params"
	MaterialParamsStruct = "material_params"
)

// Pixel stage texture registers of the base PBS textures.
const (
	RegisterDiffuse           = "texDiffuse"
	RegisterNormal            = "texNormal"
	RegisterMetallicRoughness = "texMetallicRoughness"
)

// baseTexture pairs a texture property with its register and the material field it reads.
type baseTexture struct {
	property string
	register string
	name     func(material.Material) string
	srgb     bool
}

var baseTextures = []baseTexture{
	{property: PropertyDiffuseMap, register: RegisterDiffuse, name: material.Material.DiffuseTexture, srgb: true},
	{property: PropertyNormalMap, register: RegisterNormal, name: material.Material.NormalTexture},
	{property: PropertyMetallicRoughnessMap, register: RegisterMetallicRoughness, name: material.Material.MetallicRoughnessTexture},
}

var defaultMaterial = material.NewMaterial(material.WithName("default"))

func materialOf(r Renderable) material.Material {
	if r == nil {
		return defaultMaterial
	}
	if m := r.Material(); m != nil {
		return m
	}
	return defaultMaterial
}

func materialParamsStruct() shader.Struct {
	return shader.Struct{Source: material.GPUMaterialParamsSource, Type: "MaterialParams"}
}

func setFlag(props *shader.PropertySet, name string, on bool) {
	if on {
		props.Set(name, 1)
	}
}

func (h *hlms) basePropertiesFor(r Renderable, props *shader.PropertySet) {
	m := materialOf(r)
	for _, bt := range baseTextures {
		setFlag(props, bt.property, bt.name(m) != "")
	}
	setFlag(props, PropertyAlphaBlend, m.Transparent())
	if r != nil {
		setFlag(props, PropertySkeleton, r.Skinned())
		setFlag(props, PropertyV1Mesh, r.V1Mesh())
	}
}

// baseRegisters assigns pixel stage slots from 0 to the base textures a permutation uses.
func baseRegisters(props *shader.PropertySet, regs *shader.TextureRegisters) {
	var slot uint32
	for _, bt := range baseTextures {
		if props.Get(bt.property) != 0 {
			regs.Set(shader.ShaderTypeFragment, bt.register, slot)
			slot++
		}
	}
}

type materialBinding struct {
	register string
	texture  texture.Handle
}

// materialTextures holds the textures and the sampler acquired for one material.
type materialTextures struct {
	bindings []materialBinding
	sampler  sampler.Handle
}

func (mt *materialTextures) release(rs RenderSystem, logger *slog.Logger) {
	if rs == nil {
		return
	}
	for _, b := range mt.bindings {
		if err := rs.TextureManager().Destroy(b.texture); err != nil {
			logger.Warn("hlms: destroy material texture", "texture", b.texture, "error", err)
		}
	}
	if !mt.sampler.IsNull() {
		if err := rs.SamplerPool().Destroy(mt.sampler); err != nil {
			logger.Warn("hlms: destroy material sampler", "sampler", mt.sampler, "error", err)
		}
	}
}

// texturesFor returns the texture bindings of a material, acquiring the textures and
// scheduling them resident on first use.
func (h *hlms) texturesFor(m material.Material) *materialTextures {
	if h.renderSystem == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if mt, ok := h.textures[m.Name()]; ok {
		return mt
	}

	mt := &materialTextures{}
	tm := h.renderSystem.TextureManager()
	for _, bt := range baseTextures {
		name := bt.name(m)
		if name == "" {
			continue
		}
		var flags texture.Flags
		if bt.srgb {
			flags |= texture.PrefersLoadingFromFileAsSRGB
		}
		th, err := tm.CreateOrRetrieve(name, texture.Discard, flags, texture.Type2D, texture.AutodetectResourceGroup)
		if err != nil {
			h.logger.Warn("hlms: material texture unavailable", "material", m.Name(), "texture", name, "error", err)
			continue
		}
		if err := tm.ScheduleTransitionTo(th, texture.Resident); err != nil {
			h.logger.Warn("hlms: schedule material texture", "material", m.Name(), "texture", name, "error", err)
		}
		mt.bindings = append(mt.bindings, materialBinding{register: bt.register, texture: th})
	}
	if len(mt.bindings) > 0 {
		mt.sampler = h.renderSystem.SamplerPool().Get(sampler.DefaultBlock())
	}
	h.textures[m.Name()] = mt
	return mt
}

// fillBase is the base PBS per-draw routine. The pipeline is only re-bound when the
// permutation changes; the material block is bound on every draw.
func (h *hlms) fillBase(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) uint32 {
	if lastCacheHash != cache.Hash {
		cb.Add(command.SetPipeline{Hash: cache.Hash})
	}

	m := materialOf(queued.Renderable)
	if !casterPass {
		if mt := h.texturesFor(m); mt != nil {
			for _, b := range mt.bindings {
				if slot, ok := cache.Registers.Slot(shader.ShaderTypeFragment, b.register); ok {
					cb.Add(command.TextureBind{Slot: slot, Texture: b.texture, Sampler: mt.sampler})
				}
			}
		}
	}

	params := m.Params()
	cb.Add(command.ConstBufferBind{Slot: MaterialBufferSlot, Data: params.Marshal()})
	return cache.Hash
}
