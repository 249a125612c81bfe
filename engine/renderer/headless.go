package renderer

import (
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// Headless is a render system without a device. Textures are decoded and kept in memory,
// so residency, fallbacks and sampler sharing behave as they do on the GPU.
type Headless struct {
	name     string
	textures texture.Manager
	samplers *sampler.Pool
	uploader *texture.MemoryUploader
}

var _ hlms.RenderSystem = &Headless{}

// NewHeadless creates a headless render system.
//
// Parameters:
//   - name: the render system name reported to the material system
//   - options: texture manager options; the uploader is always the in-memory one
//
// Returns:
//   - *Headless: the render system
func NewHeadless(name string, options ...texture.ManagerBuilderOption) *Headless {
	up := texture.NewMemoryUploader()
	return &Headless{
		name:     name,
		textures: texture.NewManager(append(options, texture.WithUploader(up))...),
		samplers: sampler.NewPool(),
		uploader: up,
	}
}

func (h *Headless) Name() string {
	return h.name
}

func (h *Headless) TextureManager() texture.Manager {
	return h.textures
}

func (h *Headless) SamplerPool() *sampler.Pool {
	return h.samplers
}

// Uploader returns the in-memory uploader holding the resident textures.
func (h *Headless) Uploader() *texture.MemoryUploader {
	return h.uploader
}

// Release stops texture streaming and frees every texture.
func (h *Headless) Release() {
	h.textures.Release()
}
