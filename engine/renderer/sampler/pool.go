package sampler

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidHandle is returned when a Handle is null, was never issued by the Pool,
// or refers to a block that has already been fully released.
var ErrInvalidHandle = errors.New("sampler: invalid handle")

// Handle is a weak reference to an interned Block. The zero value is the null handle.
// A Handle does not keep its block alive; the Pool's reference count does.
type Handle struct {
	id  uint32
	gen uint32
}

// IsNull reports whether h is the null handle.
//
// Returns:
//   - bool: true if h is the zero value
func (h Handle) IsNull() bool {
	return h.id == 0
}

// ID returns the slot identifier of the handle, 0 for the null handle.
// Backends use it as a cache key for realised GPU samplers.
//
// Returns:
//   - uint32: the slot identifier
func (h Handle) ID() uint32 {
	return h.id
}

func (h Handle) String() string {
	if h.IsNull() {
		return "sampler(null)"
	}
	return fmt.Sprintf("sampler(%d#%d)", h.id, h.gen)
}

type poolEntry struct {
	block Block
	gen   uint32
	refs  int
}

// Pool interns sampler blocks. Identical blocks share one entry and one Handle; every
// Get adds a reference and every Destroy removes one.
type Pool struct {
	mu      sync.Mutex
	entries []poolEntry // index 0 is unused so the zero Handle stays null
	lookup  map[Block]uint32
	free    []uint32

	onRelease func(Handle)
}

// NewPool creates an empty sampler Pool.
//
// Returns:
//   - *Pool: the new pool
func NewPool() *Pool {
	return &Pool{
		entries: make([]poolEntry, 1),
		lookup:  make(map[Block]uint32),
	}
}

// OnRelease registers a callback invoked (outside the pool lock) whenever a block's last
// reference is destroyed. Backends use this to free realised GPU samplers.
//
// Parameters:
//   - fn: the callback, or nil to clear it
func (p *Pool) OnRelease(fn func(Handle)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRelease = fn
}

// Get returns the handle for an interned copy of block, creating the entry if needed.
// Each call adds one reference that must be balanced by Destroy.
//
// Parameters:
//   - block: the sampler configuration
//
// Returns:
//   - Handle: the shared handle for this configuration
func (p *Pool) Get(block Block) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.lookup[block]; ok {
		e := &p.entries[id]
		e.refs++
		return Handle{id: id, gen: e.gen}
	}

	var id uint32
	if n := len(p.free); n > 0 {
		id = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		p.entries = append(p.entries, poolEntry{})
		id = uint32(len(p.entries) - 1)
	}
	e := &p.entries[id]
	e.block = block
	e.gen++
	e.refs = 1
	p.lookup[block] = id
	return Handle{id: id, gen: e.gen}
}

// Destroy removes one reference from the block behind h. The entry is freed when its
// reference count reaches zero, after which h and every copy of it become invalid.
//
// Parameters:
//   - h: the handle to release
//
// Returns:
//   - error: ErrInvalidHandle if h is null or stale
func (p *Pool) Destroy(h Handle) error {
	p.mu.Lock()
	e, err := p.entry(h)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	e.refs--
	if e.refs > 0 {
		p.mu.Unlock()
		return nil
	}
	delete(p.lookup, e.block)
	e.block = Block{}
	p.free = append(p.free, h.id)
	cb := p.onRelease
	p.mu.Unlock()

	if cb != nil {
		cb(h)
	}
	return nil
}

// Block returns the configuration behind h.
//
// Parameters:
//   - h: the handle to look up
//
// Returns:
//   - Block: the interned configuration
//   - bool: false if h is null or stale
func (p *Pool) Block(h Handle) (Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, err := p.entry(h)
	if err != nil {
		return Block{}, false
	}
	return e.block, true
}

// RefCount returns the number of live references to the block behind h, or 0 if h is invalid.
//
// Parameters:
//   - h: the handle to inspect
//
// Returns:
//   - int: the reference count
func (p *Pool) RefCount(h Handle) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, err := p.entry(h)
	if err != nil {
		return 0
	}
	return e.refs
}

// Len returns the number of distinct live blocks.
//
// Returns:
//   - int: the number of interned blocks
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lookup)
}

// entry must be called with p.mu held.
func (p *Pool) entry(h Handle) (*poolEntry, error) {
	if h.IsNull() || int(h.id) >= len(p.entries) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	e := &p.entries[h.id]
	if e.gen != h.gen || e.refs == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return e, nil
}
