package material

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// Binding indices of the atlas material bind group (group 1 of the tile sprite pipeline).
const (
	BindingParams    = 0
	BindingInstances = 1
	BindingTexture   = 2
	BindingSampler   = 3
)

// DefaultMaxInstances is the per-atlas instance capacity used when WithMaxInstances is not given.
const DefaultMaxInstances uint32 = 65536

// atlasMaterial is the implementation of the AtlasMaterial interface.
type atlasMaterial struct {
	mu *sync.Mutex

	name        string
	pipelineKey string

	params       GPUAtlasParams
	paramsDirty  bool
	maxInstances uint32

	// reserved is the monotonic instance allocator: the next free instance id.
	reserved uint32
	// visible is the number of instances the next draw renders.
	visible uint32

	// instanceData is the CPU-side source of truth for the instance storage buffer.
	instanceData []GPUSpriteInstance

	// Sparse dirty tracking. dirtyBitset dedups dirtyIndices in O(1).
	dirtyIndices []uint32
	dirtyBitset  []uint64

	stagedWriteData []bind_group_provider.BufferWrite
	stagingInstance []byte
	stagingParams   []byte

	texture           common.TextureStagingData
	sampler           common.SamplerStagingData
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// AtlasMaterial is one shared quad material bound to a single atlas texture, plus the
// per-instance storage buffer that differentiates every sprite drawn from it.
//
// All instances share the same quad; each instance only carries a world transform and the
// atlas pixel offset of its sprite cell. The shader converts the pixel offset into UVs using
// the tile and atlas sizes uploaded once in GPUAtlasParams.
//
// Instance ids are handed out by a monotonic allocator (NextFreeInstance). Ids are never
// reclaimed individually; ResetInstances rewinds the allocator when a whole batch is rebuilt.
type AtlasMaterial interface {
	// Name returns the material name, normally the atlas file name.
	//
	// Returns:
	//   - string: the material name
	Name() string

	// PipelineKey returns the key of the render pipeline this material draws with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// ReserveInstance marks instance slot id as in use, advancing the allocator past it.
	// No geometry is allocated. Ids at or beyond MaxInstances are rejected.
	//
	// Parameters:
	//   - id: the instance id to reserve
	//
	// Returns:
	//   - bool: false if id is out of capacity
	ReserveInstance(id uint32) bool

	// SetUVAt writes the atlas pixel offset of one instance and marks it dirty for upload.
	// Writes at ids at or beyond MaxInstances are ignored.
	//
	// Parameters:
	//   - id: the instance id
	//   - offset: the sprite cell offset in atlas pixels
	SetUVAt(id uint32, offset [2]float32)

	// SetUVsAt is the bulk form of SetUVAt. ids and offsets are paired up to the shorter slice.
	//
	// Parameters:
	//   - ids: instance ids
	//   - offsets: sprite cell offsets in atlas pixels
	SetUVsAt(ids []uint32, offsets [][2]float32)

	// SetInstanceTransform writes the world position and rotation of one instance.
	//
	// Parameters:
	//   - id: the instance id
	//   - position: world position, Z is the depth key
	//   - rotateDeg: rotation in degrees
	SetInstanceTransform(id uint32, position [3]float32, rotateDeg int32)

	// Instance returns a copy of the CPU-side data of one instance.
	//
	// Parameters:
	//   - id: the instance id
	//
	// Returns:
	//   - GPUSpriteInstance: the instance data (zero value when id is out of range)
	Instance(id uint32) GPUSpriteInstance

	// NextFreeInstance returns the number of reserved instances, which is the next free id.
	//
	// Returns:
	//   - uint32: the next free instance id
	NextFreeInstance() uint32

	// ResetInstances rewinds the allocator to zero and hides every instance. Instance data is
	// left in place and is overwritten by the next batch.
	ResetInstances()

	// SetVisibleCount sets how many instances the next draw renders, clamped to the reserved count.
	//
	// Parameters:
	//   - count: the number of visible instances
	SetVisibleCount(count uint32)

	// VisibleCount returns the number of instances the next draw renders.
	//
	// Returns:
	//   - uint32: the visible instance count
	VisibleCount() uint32

	// MaxInstances returns the capacity of the instance buffer.
	//
	// Returns:
	//   - uint32: the instance capacity
	MaxInstances() uint32

	// Params returns the atlas uniform parameters.
	//
	// Returns:
	//   - GPUAtlasParams: the uniform parameters
	Params() GPUAtlasParams

	// Texture returns the decoded atlas pixels to upload to the GPU.
	//
	// Returns:
	//   - common.TextureStagingData: the atlas pixels
	Texture() common.TextureStagingData

	// Sampler returns the sampler configuration for the atlas texture.
	//
	// Returns:
	//   - common.SamplerStagingData: the sampler configuration
	Sampler() common.SamplerStagingData

	// BufferSizes returns the byte sizes of the material's buffers keyed by binding, for
	// Renderer.InitBindGroup.
	//
	// Returns:
	//   - map[int]uint64: buffer sizes keyed by binding index
	BufferSizes() map[int]uint64

	// Invalidate marks the uniform and every reserved instance dirty so the next Flush
	// re-uploads them. Called after GPU resources are (re)created.
	Invalidate()

	// Flush converts pending CPU-side changes into staged buffer writes, coalescing adjacent
	// dirty instances into single writes.
	//
	// Returns:
	//   - uint32: the number of instances staged
	Flush() uint32

	// StagedWriteData drains and returns the staged buffer writes.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// BindGroupProvider returns the provider holding the material's GPU resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Release releases the material's GPU resources and drops the CPU-side buffers.
	Release()
}

var _ AtlasMaterial = &atlasMaterial{}

// NewAtlasMaterial creates a new AtlasMaterial configured with the provided options.
//
// Parameters:
//   - name: the material name, normally the atlas file name
//   - options: variadic list of AtlasMaterialBuilderOption functions to configure the material
//
// Returns:
//   - AtlasMaterial: the new material
func NewAtlasMaterial(name string, options ...AtlasMaterialBuilderOption) AtlasMaterial {
	m := &atlasMaterial{
		mu:           &sync.Mutex{},
		name:         name,
		pipelineKey:  DefaultPipelineKey,
		maxInstances: DefaultMaxInstances,
		sampler:      common.PixelArtSampler(),
		paramsDirty:  true,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.params.QuadSize == [2]float32{} {
		m.params.QuadSize = m.params.TileSize
	}
	if m.params.AtlasSize == [2]float32{} {
		m.params.AtlasSize = [2]float32{float32(m.texture.Width), float32(m.texture.Height)}
	}

	m.instanceData = make([]GPUSpriteInstance, m.maxInstances)
	m.dirtyIndices = make([]uint32, 0, 256)
	m.dirtyBitset = make([]uint64, (m.maxInstances+63)/64)
	m.stagedWriteData = make([]bind_group_provider.BufferWrite, 0, 4)
	m.initStagingPool()
	m.bindGroupProvider = bind_group_provider.NewBindGroupProvider("atlas_" + name)
	return m
}

// initStagingPool allocates the reusable staging byte slices sized to maxInstances.
func (m *atlasMaterial) initStagingPool() {
	m.stagingInstance = make([]byte, int(m.maxInstances)*(&GPUSpriteInstance{}).Size())
	m.stagingParams = make([]byte, (&GPUAtlasParams{}).Size())
}

func (m *atlasMaterial) Name() string {
	return m.name
}

func (m *atlasMaterial) PipelineKey() string {
	return m.pipelineKey
}

func (m *atlasMaterial) ReserveInstance(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= m.maxInstances {
		return false
	}
	if id >= m.reserved {
		m.reserved = id + 1
	}
	return true
}

func (m *atlasMaterial) SetUVAt(id uint32, offset [2]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setUV(id, offset)
}

func (m *atlasMaterial) SetUVsAt(ids []uint32, offsets [][2]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(len(ids), len(offsets))
	for i := 0; i < n; i++ {
		m.setUV(ids[i], offsets[i])
	}
}

// setUV writes one offset. Caller must hold m.mu.
func (m *atlasMaterial) setUV(id uint32, offset [2]float32) {
	if id >= m.maxInstances {
		return
	}
	if m.instanceData[id].UVOffset == offset {
		return
	}
	m.instanceData[id].UVOffset = offset
	m.enqueueDirty(id)
}

func (m *atlasMaterial) SetInstanceTransform(id uint32, position [3]float32, rotateDeg int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= m.maxInstances {
		return
	}
	inst := &m.instanceData[id]
	rotation := float32(rotateDeg)
	if inst.Position == position && inst.Rotation == rotation {
		return
	}
	inst.Position = position
	inst.Rotation = rotation
	m.enqueueDirty(id)
}

func (m *atlasMaterial) Instance(id uint32) GPUSpriteInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= m.maxInstances {
		return GPUSpriteInstance{}
	}
	return m.instanceData[id]
}

func (m *atlasMaterial) NextFreeInstance() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserved
}

func (m *atlasMaterial) ResetInstances() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserved = 0
	m.visible = 0
}

func (m *atlasMaterial) SetVisibleCount(count uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = min(count, m.reserved)
}

func (m *atlasMaterial) VisibleCount() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *atlasMaterial) MaxInstances() uint32 {
	return m.maxInstances
}

func (m *atlasMaterial) Params() GPUAtlasParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

func (m *atlasMaterial) Texture() common.TextureStagingData {
	return m.texture
}

func (m *atlasMaterial) Sampler() common.SamplerStagingData {
	return m.sampler
}

func (m *atlasMaterial) BufferSizes() map[int]uint64 {
	return map[int]uint64{
		BindingParams:    uint64((&GPUAtlasParams{}).Size()),
		BindingInstances: uint64(m.maxInstances) * uint64((&GPUSpriteInstance{}).Size()),
	}
}

func (m *atlasMaterial) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paramsDirty = true
	for id := uint32(0); id < m.reserved; id++ {
		m.enqueueDirty(id)
	}
}

func (m *atlasMaterial) Flush() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paramsDirty {
		copy(m.stagingParams, m.params.Marshal())
		m.stagedWriteData = append(m.stagedWriteData, bind_group_provider.BufferWrite{
			Provider: m.bindGroupProvider,
			Binding:  BindingParams,
			Offset:   0,
			Data:     m.stagingParams,
		})
		m.paramsDirty = false
	}

	if len(m.dirtyIndices) == 0 {
		return 0
	}

	slices.Sort(m.dirtyIndices)

	instSize := uint64((&GPUSpriteInstance{}).Size())
	count := uint32(len(m.dirtyIndices))

	runStart := m.dirtyIndices[0]
	runEnd := runStart + 1 // exclusive
	for i := 1; i < len(m.dirtyIndices); i++ {
		idx := m.dirtyIndices[i]
		if idx == runEnd {
			runEnd++
			continue
		}
		m.flushRange(runStart, runEnd, instSize)
		runStart = idx
		runEnd = idx + 1
	}
	m.flushRange(runStart, runEnd, instSize)

	m.dirtyIndices = m.dirtyIndices[:0]
	for i := range m.dirtyBitset {
		m.dirtyBitset[i] = 0
	}
	return count
}

func (m *atlasMaterial) StagedWriteData() []bind_group_provider.BufferWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.stagedWriteData
	m.stagedWriteData = make([]bind_group_provider.BufferWrite, 0, cap(w))
	return w
}

func (m *atlasMaterial) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *atlasMaterial) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bindGroupProvider != nil {
		m.bindGroupProvider.Release()
	}
	m.reserved = 0
	m.visible = 0
	m.stagedWriteData = m.stagedWriteData[:0]
	m.dirtyIndices = m.dirtyIndices[:0]
	for i := range m.dirtyBitset {
		m.dirtyBitset[i] = 0
	}
	m.texture = common.TextureStagingData{}
}

// enqueueDirty adds an instance index to the dirty queue if not already present.
// Caller must hold m.mu.
func (m *atlasMaterial) enqueueDirty(index uint32) {
	word := index / 64
	bit := uint64(1) << (index % 64)
	if m.dirtyBitset[word]&bit != 0 {
		return
	}
	m.dirtyBitset[word] |= bit
	m.dirtyIndices = append(m.dirtyIndices, index)
}

// flushRange stages the contiguous dirty run [start, end) as a single buffer write.
// Caller must hold m.mu.
func (m *atlasMaterial) flushRange(start, end uint32, instSize uint64) {
	offset := uint64(start) * instSize
	raw := common.SliceToBytes(m.instanceData[start:end])
	buf := m.stagingInstance[offset : offset+uint64(len(raw))]
	copy(buf, raw)

	m.stagedWriteData = append(m.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: m.bindGroupProvider,
		Binding:  BindingInstances,
		Offset:   offset,
		Data:     buf,
	})
}

// BindGroupLayoutDescriptor returns the layout of the atlas material bind group.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor for group 1 of the tile sprite pipeline
func BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Atlas Material Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    BindingParams,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&GPUAtlasParams{}).Size()),
				},
			},
			{
				Binding:    BindingInstances,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: uint64((&GPUSpriteInstance{}).Size()),
				},
			},
			{
				Binding:    BindingTexture,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    BindingSampler,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	}
}
