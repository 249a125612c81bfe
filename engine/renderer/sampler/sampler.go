// Package sampler implements interned, reference-counted sampler blocks.
//
// A Block is an immutable description of how a texture is addressed and filtered.
// Identical blocks requested through a Pool share one Handle; the Pool counts
// references and frees the entry when the last reference is destroyed.
package sampler

import (
	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// AddressMode determines how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	// AddressWrap repeats the texture.
	AddressWrap AddressMode = iota

	// AddressMirror repeats the texture, mirroring every other repetition.
	AddressMirror

	// AddressClamp clamps coordinates to the edge texel.
	AddressClamp

	// AddressBorder returns the border colour outside the texture.
	AddressBorder
)

// FilterOptions selects the filtering used for a min, mag or mip lookup.
type FilterOptions int

const (
	// FilterNone disables filtering. For mag/min this is point sampling; for mip it disables mipmapping.
	FilterNone FilterOptions = iota

	// FilterPoint samples the nearest texel.
	FilterPoint

	// FilterLinear blends neighbouring texels.
	FilterLinear

	// FilterAnisotropic uses anisotropic filtering up to Block.MaxAnisotropy.
	FilterAnisotropic
)

// BorderColour selects the colour returned by AddressBorder lookups.
type BorderColour int

const (
	// BorderTransparent is transparent black.
	BorderTransparent BorderColour = iota
	// BorderOpaqueBlack is opaque black.
	BorderOpaqueBlack
	// BorderOpaqueWhite is opaque white.
	BorderOpaqueWhite
)

// Block describes a sampler configuration. Blocks are comparable and are used as
// interning keys by the Pool, so two blocks with equal fields always share a Handle.
type Block struct {
	// U, V, W are the addressing modes per texture axis.
	U, V, W AddressMode
	// MinFilter, MagFilter, MipFilter select filtering for minification, magnification and mip selection.
	MinFilter, MagFilter, MipFilter FilterOptions
	// MaxAnisotropy is the maximum anisotropy level. 0 and 1 both disable anisotropic filtering.
	MaxAnisotropy uint16
	// Compare is the comparison function for comparison samplers. Undefined for regular samplers.
	Compare wgpu.CompareFunction
	// MinLod and MaxLod clamp the level of detail.
	MinLod, MaxLod float32
	// Border is the colour returned for AddressBorder lookups.
	Border BorderColour
}

// DefaultBlock returns the block used when nothing is specified: trilinear, wrap on all axes,
// no anisotropy, LOD clamped to [0, 32].
//
// Returns:
//   - Block: the default sampler block
func DefaultBlock() Block {
	return Block{
		U:         AddressWrap,
		V:         AddressWrap,
		W:         AddressWrap,
		MinFilter: FilterLinear,
		MagFilter: FilterLinear,
		MipFilter: FilterLinear,
		MaxLod:    32,
	}
}

// Descriptor converts the block into a WebGPU sampler descriptor.
// WebGPU has no anisotropic filter mode; anisotropic filtering is expressed as linear
// filtering with MaxAnisotropy greater than one. WebGPU also requires min, mag and mip
// filters to all be linear when MaxAnisotropy > 1, so anisotropy is dropped for blocks
// that mix point and anisotropic filters.
//
// Parameters:
//   - label: debug label for the GPU sampler
//
// Returns:
//   - *wgpu.SamplerDescriptor: the descriptor ready for Device.CreateSampler
func (b Block) Descriptor(label string) *wgpu.SamplerDescriptor {
	mag := b.MagFilter.filterMode()
	minify := b.MinFilter.filterMode()
	mip := b.MipFilter.mipmapFilterMode()

	anisotropy := common.Coalesce(b.MaxAnisotropy, 1)
	anisotropic := b.MagFilter == FilterAnisotropic || b.MinFilter == FilterAnisotropic
	if !anisotropic || mag != wgpu.FilterModeLinear || minify != wgpu.FilterModeLinear || mip != wgpu.MipmapFilterModeLinear {
		anisotropy = 1
	}

	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  b.U.addressMode(),
		AddressModeV:  b.V.addressMode(),
		AddressModeW:  b.W.addressMode(),
		MagFilter:     mag,
		MinFilter:     minify,
		MipmapFilter:  mip,
		LodMinClamp:   b.MinLod,
		LodMaxClamp:   common.Coalesce(b.MaxLod, 32.0),
		Compare:       b.Compare,
		MaxAnisotropy: anisotropy,
	}
}

func (a AddressMode) addressMode() wgpu.AddressMode {
	switch a {
	case AddressMirror:
		return wgpu.AddressModeMirrorRepeat
	case AddressClamp, AddressBorder:
		// WebGPU core has no border addressing; clamp-to-edge is the closest match.
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

func (f FilterOptions) filterMode() wgpu.FilterMode {
	switch f {
	case FilterLinear, FilterAnisotropic:
		return wgpu.FilterModeLinear
	default:
		return wgpu.FilterModeNearest
	}
}

func (f FilterOptions) mipmapFilterMode() wgpu.MipmapFilterMode {
	switch f {
	case FilterLinear, FilterAnisotropic:
		return wgpu.MipmapFilterModeLinear
	default:
		return wgpu.MipmapFilterModeNearest
	}
}
