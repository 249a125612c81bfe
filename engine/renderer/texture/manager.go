package texture

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-wind/common"
)

type managerEntry struct {
	name     string
	group    string
	typ      Type
	strategy PageOutStrategy
	flags    Flags

	gen  uint32
	refs int

	residency Residency
	target    Residency
	busy      bool

	gpu      GPUTexture
	ram      *ramCopy
	width    uint32
	height   uint32
	depth    uint32
	loadErr  error
	fallback bool
}

// transitionJob is the state a streaming worker reads without holding the manager lock.
type transitionJob struct {
	name     string
	group    string
	typ      Type
	strategy PageOutStrategy
	flags    Flags
	from     Residency
	target   Residency
	gpu      GPUTexture
	ram      *ramCopy
}

type transitionResult struct {
	residency Residency
	gpu       GPUTexture
	ram       *ramCopy
	data      common.TextureStagingData
	hasData   bool
	err       error
	fallback  bool
}

type manager struct {
	mu      sync.Mutex
	entries []managerEntry // index 0 is unused so the zero Handle stays null
	byName  map[string]uint32
	free    []uint32

	groups            *ResourceGroups
	uploader          Uploader
	workers           int
	fallbackOnMissing bool
	logger            *slog.Logger

	pool      worker.DynamicWorkerPool
	streaming sync.WaitGroup
	taskID    atomic.Int64
	released  bool
}

var _ Manager = &manager{}

// NewManager creates a texture manager. Without options it searches no directories,
// uploads into a MemoryUploader and streams on runtime.NumCPU() workers.
//
// Parameters:
//   - options: a variadic list of ManagerBuilderOption functions to configure the manager
//
// Returns:
//   - Manager: the new manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &manager{
		entries: make([]managerEntry, 1),
		byName:  make(map[string]uint32),
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.groups == nil {
		m.groups = NewResourceGroups()
	}
	if m.uploader == nil {
		m.uploader = NewMemoryUploader()
	}
	m.workers = max(m.workers, 1)
	m.pool = worker.NewDynamicWorkerPool(m.workers, 256, 1*time.Second)
	return m
}

func (m *manager) CreateOrRetrieve(name string, strategy PageOutStrategy, flags Flags, typ Type, group string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return Handle{}, ErrManagerReleased
	}

	if id, ok := m.byName[name]; ok {
		e := &m.entries[id]
		if e.typ != typ {
			return Handle{}, fmt.Errorf("%w: %q is registered as %s, requested %s", ErrTypeMismatch, name, e.typ, typ)
		}
		e.refs++
		return Handle{id: id, gen: e.gen}, nil
	}

	var id uint32
	if n := len(m.free); n > 0 {
		id = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.entries = append(m.entries, managerEntry{})
		id = uint32(len(m.entries) - 1)
	}
	gen := m.entries[id].gen + 1
	m.entries[id] = managerEntry{
		name:     name,
		group:    common.Coalesce(group, AutodetectResourceGroup),
		typ:      typ,
		strategy: strategy,
		flags:    flags,
		gen:      gen,
		refs:     1,
	}
	m.byName[name] = id
	return Handle{id: id, gen: gen}, nil
}

func (m *manager) ScheduleTransitionTo(h Handle, target Residency) error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return ErrManagerReleased
	}
	e, err := m.entry(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	e.target = target
	if e.busy || e.residency == target {
		m.mu.Unlock()
		return nil
	}
	e.busy = true
	m.streaming.Add(1)
	m.mu.Unlock()

	m.pool.SubmitTask(worker.Task{
		ID: int(m.taskID.Add(1)),
		Do: func() (any, error) {
			defer m.streaming.Done()
			m.stream(h.id)
			return nil, nil
		},
	})
	return nil
}

func (m *manager) Residency(h Handle) (Residency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(h)
	if err != nil {
		return OnStorage, err
	}
	return e.residency, nil
}

func (m *manager) Info(h Handle) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(h)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:      e.name,
		Group:     e.group,
		Type:      e.typ,
		Strategy:  e.strategy,
		Flags:     e.flags,
		Residency: e.residency,
		Width:     e.width,
		Height:    e.height,
		Depth:     e.depth,
		RefCount:  e.refs,
		Pending:   e.busy,
		LoadError: e.loadErr,
		Fallback:  e.fallback,
	}, nil
}

func (m *manager) LoadError(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(h)
	if err != nil {
		return err
	}
	return e.loadErr
}

func (m *manager) GPUTexture(h Handle) (GPUTexture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entry(h)
	if err != nil {
		return nil, err
	}
	if e.residency != Resident {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotResident, e.name, e.residency)
	}
	return e.gpu, nil
}

func (m *manager) Destroy(h Handle) error {
	m.mu.Lock()
	e, err := m.entry(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	e.refs--
	if e.refs > 0 {
		m.mu.Unlock()
		return nil
	}

	delete(m.byName, e.name)
	if e.busy {
		// the streaming worker frees the slot once its transition finishes
		m.mu.Unlock()
		return nil
	}
	gpu := m.freeSlot(h.id)
	m.mu.Unlock()

	if gpu != nil {
		m.uploader.Release(gpu)
	}
	return nil
}

func (m *manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName)
}

func (m *manager) WaitForStreamingCompletion() {
	m.streaming.Wait()
}

func (m *manager) Release() {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	m.released = true
	m.mu.Unlock()

	m.streaming.Wait()

	m.mu.Lock()
	var gpus []GPUTexture
	for id := range m.entries {
		if m.entries[id].gpu != nil {
			gpus = append(gpus, m.entries[id].gpu)
		}
		m.entries[id] = managerEntry{gen: m.entries[id].gen}
	}
	m.byName = make(map[string]uint32)
	m.free = nil
	m.entries = m.entries[:1]
	m.mu.Unlock()

	for _, gpu := range gpus {
		m.uploader.Release(gpu)
	}
}

// stream runs on a worker and keeps transitioning the entry until it reaches its latest
// target, the transition fails, or the texture is destroyed.
func (m *manager) stream(id uint32) {
	for {
		m.mu.Lock()
		e := &m.entries[id]
		if e.refs == 0 {
			gpu := m.freeSlot(id)
			m.mu.Unlock()
			if gpu != nil {
				m.uploader.Release(gpu)
			}
			return
		}
		if e.residency == e.target {
			e.busy = false
			m.mu.Unlock()
			return
		}
		job := transitionJob{
			name:     e.name,
			group:    e.group,
			typ:      e.typ,
			strategy: e.strategy,
			flags:    e.flags,
			from:     e.residency,
			target:   e.target,
			gpu:      e.gpu,
			ram:      e.ram,
		}
		m.mu.Unlock()

		res := m.transition(job)

		m.mu.Lock()
		e = &m.entries[id]
		e.residency = res.residency
		e.gpu = res.gpu
		e.ram = res.ram
		e.loadErr = res.err
		e.fallback = res.fallback
		if res.hasData {
			e.width, e.height, e.depth = res.data.Width, res.data.Height, max(res.data.Depth, 1)
		}
		if res.err != nil && !res.fallback && e.target == job.target {
			// stop retrying until someone schedules again
			e.target = e.residency
		}
		m.mu.Unlock()
	}
}

func (m *manager) transition(job transitionJob) transitionResult {
	switch job.target {
	case Resident:
		return m.makeResident(job)
	case SystemRAM:
		return m.makeSystemRAM(job)
	default:
		return m.pageOut(job)
	}
}

func (m *manager) makeResident(job transitionJob) transitionResult {
	data, err := m.source(job)
	if err != nil {
		if !m.fallbackOnMissing {
			m.logger.Warn("texture load failed", "name", job.name, "group", job.group, "error", err)
			return transitionResult{residency: job.from, gpu: job.gpu, ram: job.ram, err: err}
		}
		m.logger.Warn("texture load failed, using fallback", "name", job.name, "group", job.group, "error", err)
		data = fallbackStaging(job.name, job.typ)
		gpu, upErr := m.uploader.Upload(data)
		if upErr != nil {
			return transitionResult{residency: job.from, ram: job.ram, err: upErr}
		}
		return transitionResult{residency: Resident, gpu: gpu, data: data, hasData: true, err: err, fallback: true}
	}

	gpu, err := m.uploader.Upload(data)
	if err != nil {
		m.logger.Warn("texture upload failed", "name", job.name, "error", err)
		return transitionResult{residency: job.from, ram: job.ram, err: err}
	}

	ram, err := m.keepCopy(job, data)
	if err != nil {
		m.logger.Warn("texture page-out copy failed", "name", job.name, "error", err)
	}
	m.logger.Debug("texture resident", "name", job.name, "type", job.typ.String(),
		"width", data.Width, "height", data.Height, "depth", data.Depth, "srgb", data.SRGB)
	return transitionResult{residency: Resident, gpu: gpu, ram: ram, data: data, hasData: true}
}

func (m *manager) makeSystemRAM(job transitionJob) transitionResult {
	data, err := m.source(job)
	if err != nil {
		m.logger.Warn("texture load failed", "name", job.name, "group", job.group, "error", err)
		return transitionResult{residency: job.from, gpu: job.gpu, ram: job.ram, err: err}
	}
	ram, err := newRAMCopy(data, false)
	if err != nil {
		return transitionResult{residency: job.from, gpu: job.gpu, ram: job.ram, err: err}
	}
	if job.gpu != nil {
		m.uploader.Release(job.gpu)
	}
	return transitionResult{residency: SystemRAM, ram: ram, data: data, hasData: true}
}

func (m *manager) pageOut(job transitionJob) transitionResult {
	if job.gpu != nil {
		m.uploader.Release(job.gpu)
	}
	res := transitionResult{residency: OnStorage}
	switch {
	case job.ram == nil, job.strategy == Discard:
		return res
	case job.strategy == SaveToSystemRAM && job.ram.compressed,
		job.strategy == AlwaysKeepSystemRAMCopy && !job.ram.compressed:
		res.ram = job.ram
		return res
	}
	data, err := job.ram.staging()
	if err != nil {
		res.err = err
		return res
	}
	res.ram, res.err = m.keepCopy(job, data)
	return res
}

// source returns the texture's pixels from its system RAM copy when one exists,
// otherwise from its file.
func (m *manager) source(job transitionJob) (common.TextureStagingData, error) {
	if job.ram != nil {
		return job.ram.staging()
	}
	path, err := m.groups.Resolve(job.name, job.group)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	data, err := DecodeFile(path, job.typ, job.flags.Has(PrefersLoadingFromFileAsSRGB))
	if err != nil {
		return common.TextureStagingData{}, err
	}
	data.Name = job.name
	return data, nil
}

// keepCopy builds the copy retained after leaving SystemRAM, as required by the strategy.
func (m *manager) keepCopy(job transitionJob, data common.TextureStagingData) (*ramCopy, error) {
	switch job.strategy {
	case SaveToSystemRAM:
		if job.ram != nil && job.ram.compressed {
			return job.ram, nil
		}
		return newRAMCopy(data, true)
	case AlwaysKeepSystemRAMCopy:
		if job.ram != nil && !job.ram.compressed {
			return job.ram, nil
		}
		return newRAMCopy(data, false)
	default:
		return nil, nil
	}
}

// entry must be called with m.mu held.
func (m *manager) entry(h Handle) (*managerEntry, error) {
	if h.IsNull() || int(h.id) >= len(m.entries) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	e := &m.entries[h.id]
	if e.gen != h.gen || e.refs == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return e, nil
}

// freeSlot must be called with m.mu held. It returns the GPU texture the caller must release.
func (m *manager) freeSlot(id uint32) GPUTexture {
	e := &m.entries[id]
	gpu := e.gpu
	*e = managerEntry{gen: e.gen}
	m.free = append(m.free, id)
	return gpu
}
