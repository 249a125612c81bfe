// Package texture implements the engine's texture manager: named, reference-counted
// textures addressed through weak handles, with residency transitions streamed in the
// background and uploaded to the GPU through a pluggable Uploader.
package texture

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/common"
)

var (
	// ErrInvalidHandle is returned for null handles, handles not issued by the manager,
	// and handles whose texture has been destroyed.
	ErrInvalidHandle = errors.New("texture: invalid handle")

	// ErrTypeMismatch is returned when a texture is retrieved or decoded with a different
	// dimensionality than it was registered with.
	ErrTypeMismatch = errors.New("texture: type mismatch")

	// ErrResourceNotFound is returned when no resource group contains the requested file.
	ErrResourceNotFound = errors.New("texture: resource not found")

	// ErrUnsupportedFormat is returned when a file cannot be decoded.
	ErrUnsupportedFormat = errors.New("texture: unsupported format")

	// ErrNotResident is returned when the GPU texture is requested before the texture is Resident.
	ErrNotResident = errors.New("texture: not resident")

	// ErrManagerReleased is returned by every operation after Release.
	ErrManagerReleased = errors.New("texture: manager released")
)

// Type is the dimensionality of a texture.
type Type int

const (
	// Type2D is a planar texture.
	Type2D Type = iota

	// Type3D is a volume texture.
	Type3D
)

func (t Type) String() string {
	switch t {
	case Type2D:
		return "2D"
	case Type3D:
		return "3D"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t Type) dimension() common.TextureDimension {
	if t == Type3D {
		return common.Dimension3D
	}
	return common.Dimension2D
}

// PageOutStrategy controls what the manager keeps in system memory once a texture has
// been uploaded, and therefore where it reloads from when it becomes Resident again.
type PageOutStrategy int

const (
	// Discard keeps nothing. The texture is reloaded from its file.
	Discard PageOutStrategy = iota

	// SaveToSystemRAM keeps an lz4-compressed copy of the pixels and reloads from it.
	SaveToSystemRAM

	// AlwaysKeepSystemRAMCopy keeps the decoded pixels uncompressed.
	AlwaysKeepSystemRAMCopy
)

func (s PageOutStrategy) String() string {
	switch s {
	case Discard:
		return "Discard"
	case SaveToSystemRAM:
		return "SaveToSystemRAM"
	case AlwaysKeepSystemRAMCopy:
		return "AlwaysKeepSystemRAMCopy"
	default:
		return fmt.Sprintf("PageOutStrategy(%d)", int(s))
	}
}

// Flags are texture creation flags.
type Flags uint32

const (
	// PrefersLoadingFromFileAsSRGB interprets 8-bit colour data loaded from file as sRGB.
	PrefersLoadingFromFileAsSRGB Flags = 1 << iota

	// AutomaticBatching is accepted for compatibility and has no effect.
	AutomaticBatching
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Residency is where a texture's pixel data currently lives.
type Residency int

const (
	// OnStorage means the data is only on disk (or in a compressed page-out copy).
	OnStorage Residency = iota

	// SystemRAM means decoded pixels are held in CPU memory but not on the GPU.
	SystemRAM

	// Resident means the texture is uploaded and usable by the GPU.
	Resident
)

func (r Residency) String() string {
	switch r {
	case OnStorage:
		return "OnStorage"
	case SystemRAM:
		return "SystemRAM"
	case Resident:
		return "Resident"
	default:
		return fmt.Sprintf("Residency(%d)", int(r))
	}
}

// Handle is a weak reference to a texture owned by a Manager. The zero value is the
// null handle. Holding a Handle does not keep the texture alive; references are counted
// by CreateOrRetrieve and Destroy.
type Handle struct {
	id  uint32
	gen uint32
}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool {
	return h.id == 0
}

// ID returns the slot identifier of the handle, 0 for the null handle.
func (h Handle) ID() uint32 {
	return h.id
}

func (h Handle) String() string {
	if h.IsNull() {
		return "texture(null)"
	}
	return fmt.Sprintf("texture(%d#%d)", h.id, h.gen)
}

// Info is a snapshot of a texture's registration and residency state.
type Info struct {
	Name      string
	Group     string
	Type      Type
	Strategy  PageOutStrategy
	Flags     Flags
	Residency Residency
	Width     uint32
	Height    uint32
	Depth     uint32
	RefCount  int
	// Pending reports whether a residency transition is scheduled or running.
	Pending bool
	// LoadError is the error from the most recent load attempt, if any.
	LoadError error
	// Fallback reports whether the GPU texture is a placeholder substituted for a failed load.
	Fallback bool
}

// GPUTexture is an opaque GPU-side texture produced by an Uploader.
type GPUTexture any

// Uploader moves decoded pixel data to the GPU and releases it again.
// Implementations must be safe for use from the manager's streaming workers.
type Uploader interface {
	// Upload creates a GPU texture from staging data.
	//
	// Parameters:
	//   - staging: the decoded pixels and dimensions
	//
	// Returns:
	//   - GPUTexture: the created texture
	//   - error: an error if the texture could not be created
	Upload(staging common.TextureStagingData) (GPUTexture, error)

	// Release frees a texture returned by Upload.
	//
	// Parameters:
	//   - tex: the texture to free
	Release(tex GPUTexture)
}

// Manager defines the texture manager interface.
//
// Usage pattern:
//  1. CreateOrRetrieve registers a named texture (or adds a reference to an existing one)
//  2. ScheduleTransitionTo(h, Resident) queues the load; the call returns immediately
//  3. GPUTexture(h) returns the uploaded texture once the transition has completed
//  4. Destroy(h) drops the reference; the texture is freed when the last one goes
type Manager interface {
	// CreateOrRetrieve returns a handle to the texture called name, registering it if needed.
	// Each call adds one reference that must be balanced by Destroy.
	//
	// Parameters:
	//   - name: the resource name, resolved through the manager's resource groups
	//   - strategy: the page-out strategy for a newly registered texture
	//   - flags: creation flags for a newly registered texture
	//   - typ: the texture dimensionality
	//   - group: the resource group to search, or AutodetectResourceGroup
	//
	// Returns:
	//   - Handle: the texture handle
	//   - error: ErrTypeMismatch if name is registered with another type
	CreateOrRetrieve(name string, strategy PageOutStrategy, flags Flags, typ Type, group string) (Handle, error)

	// ScheduleTransitionTo requests that the texture reach the target residency.
	// The transition runs on the streaming workers; the call does not wait for it.
	//
	// Parameters:
	//   - h: the texture handle
	//   - target: the desired residency
	//
	// Returns:
	//   - error: ErrInvalidHandle if h is null or stale
	ScheduleTransitionTo(h Handle, target Residency) error

	// Residency returns the current residency of a texture.
	//
	// Parameters:
	//   - h: the texture handle
	//
	// Returns:
	//   - Residency: the current residency
	//   - error: ErrInvalidHandle if h is null or stale
	Residency(h Handle) (Residency, error)

	// Info returns a snapshot of a texture's state.
	//
	// Parameters:
	//   - h: the texture handle
	//
	// Returns:
	//   - Info: the snapshot
	//   - error: ErrInvalidHandle if h is null or stale
	Info(h Handle) (Info, error)

	// LoadError returns the error from the most recent load attempt, or nil.
	//
	// Parameters:
	//   - h: the texture handle
	//
	// Returns:
	//   - error: the load error, or ErrInvalidHandle if h is null or stale
	LoadError(h Handle) error

	// GPUTexture returns the uploaded texture behind h.
	//
	// Parameters:
	//   - h: the texture handle
	//
	// Returns:
	//   - GPUTexture: the uploaded texture
	//   - error: ErrInvalidHandle if h is invalid, or an error if the texture is not Resident
	GPUTexture(h Handle) (GPUTexture, error)

	// Destroy removes one reference. The texture is freed when the count reaches zero.
	//
	// Parameters:
	//   - h: the texture handle
	//
	// Returns:
	//   - error: ErrInvalidHandle if h is null or stale
	Destroy(h Handle) error

	// Len returns the number of registered textures.
	Len() int

	// WaitForStreamingCompletion blocks until every scheduled transition has finished.
	WaitForStreamingCompletion()

	// Release frees every texture and rejects further calls.
	Release()
}
