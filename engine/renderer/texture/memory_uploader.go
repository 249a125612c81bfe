package texture

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/common"
)

// MemoryTexture is the GPUTexture produced by MemoryUploader.
type MemoryTexture struct {
	ID      int
	Staging common.TextureStagingData
}

// MemoryUploader is an Uploader that keeps "uploaded" textures in memory. It backs
// headless runs and tests.
type MemoryUploader struct {
	mu       sync.Mutex
	nextID   int
	live     map[int]*MemoryTexture
	uploads  int
	releases int
}

var _ Uploader = &MemoryUploader{}

// NewMemoryUploader creates an empty MemoryUploader.
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{live: make(map[int]*MemoryTexture)}
}

// Upload copies the staging data into a new MemoryTexture.
func (u *MemoryUploader) Upload(staging common.TextureStagingData) (GPUTexture, error) {
	if !staging.Valid() {
		return nil, fmt.Errorf("texture: upload %q: %d bytes for %dx%dx%d", staging.Name,
			len(staging.Pixels), staging.Width, staging.Height, staging.Depth)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextID++
	u.uploads++
	tex := &MemoryTexture{ID: u.nextID, Staging: staging}
	tex.Staging.Pixels = append([]byte(nil), staging.Pixels...)
	u.live[tex.ID] = tex
	return tex, nil
}

// Release forgets a texture returned by Upload.
func (u *MemoryUploader) Release(tex GPUTexture) {
	mt, ok := tex.(*MemoryTexture)
	if !ok {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.live[mt.ID]; ok {
		delete(u.live, mt.ID)
		u.releases++
	}
}

// Live returns the number of textures uploaded and not yet released.
func (u *MemoryUploader) Live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.live)
}

// Stats returns the total number of uploads and releases.
func (u *MemoryUploader) Stats() (uploads, releases int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads, u.releases
}
