package engine

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lumen3d/assetio/common"
)

// wgpuEngineBackendImpl is the implementation of the wgpuEngineBackend interface.
type wgpuEngineBackendImpl struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// wgpuEngineBackend is an engineBackend implementation on top of WebGPU.
type wgpuEngineBackend interface {
	engineBackend
}

var _ wgpuEngineBackend = &wgpuEngineBackendImpl{}

// newWGPUEngineBackend creates a WebGPU engine backend. When the config carries
// an application-owned device and queue they are shared; otherwise a headless
// adapter and device are acquired.
func newWGPUEngineBackend(cfg *engineConfig) wgpuEngineBackend {
	b := &wgpuEngineBackendImpl{}

	if cfg.device != nil && cfg.queue != nil {
		b.device = cfg.device
		b.queue = cfg.queue
		return b
	}

	b.instance = wgpu.CreateInstance(nil)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Asset Engine Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	return b
}

func (b *wgpuEngineBackendImpl) CreateVertexBuffer(desc VertexBufferDescriptor) (VertexBuffer, error) {
	vb := &wgpuVertexBuffer{
		label:       desc.Label,
		vertexCount: desc.VertexCount,
		attributes:  append([]VertexAttributeLayout(nil), desc.Attributes...),
		queue:       b.queue,
	}

	for slot, attr := range desc.Attributes {
		if attr.ByteLength <= 0 {
			vb.Release()
			return nil, fmt.Errorf("vertex buffer %q slot %d has non-positive byte length", desc.Label, slot)
		}
		if src, ok := desc.SharedSlots[slot]; ok {
			source, ok := src.Buffer.(*wgpuVertexBuffer)
			if !ok || src.Slot < 0 || src.Slot >= len(source.buffers) {
				vb.Release()
				return nil, fmt.Errorf("vertex buffer %q slot %d shares an invalid source slot", desc.Label, slot)
			}
			vb.buffers = append(vb.buffers, source.buffers[src.Slot])
			vb.owned = append(vb.owned, false)
			continue
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("%s Slot %d", desc.Label, slot),
			Size:             uint64(attr.ByteLength),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			vb.Release()
			return nil, fmt.Errorf("failed to create vertex buffer %q slot %d: %w", desc.Label, slot, err)
		}
		vb.buffers = append(vb.buffers, buf)
		vb.owned = append(vb.owned, true)
	}

	return vb, nil
}

func (b *wgpuEngineBackendImpl) CreateIndexBuffer(desc IndexBufferDescriptor) (IndexBuffer, error) {
	size := uint64(desc.IndexCount) * uint64(indexFormatSize(desc.Format))

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             size,
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer %q: %w", desc.Label, err)
	}

	return &wgpuIndexBuffer{
		label:      desc.Label,
		indexCount: desc.IndexCount,
		format:     desc.Format,
		byteSize:   size,
		buffer:     buf,
		queue:      b.queue,
	}, nil
}

func (b *wgpuEngineBackendImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	format := wgpu.TextureFormatRGBA8Unorm
	if desc.SRGB {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}

	tex := &wgpuTexture{
		label:     desc.Label,
		width:     desc.Width,
		height:    desc.Height,
		format:    format,
		mipLevels: common.Coalesce(desc.MipLevels, 1),
		device:    b.device,
		queue:     b.queue,
	}

	// A zero-sized descriptor means the dimensions are unknown until the
	// first pixel push, so GPU allocation waits until then.
	if desc.Width > 0 && desc.Height > 0 {
		if err := tex.allocate(desc.Width, desc.Height); err != nil {
			return nil, err
		}
	}

	return tex, nil
}

func (b *wgpuEngineBackendImpl) CreateMaterial(def MaterialDefinition) (Material, error) {
	return &wgpuMaterial{
		def:    def,
		device: b.device,
	}, nil
}

// --- GPU Object Implementations ---

// wgpuVertexBuffer holds one WebGPU buffer per attribute slot. A slot may
// alias another vertex buffer's allocation; only owned slots are released.
type wgpuVertexBuffer struct {
	label       string
	vertexCount int
	attributes  []VertexAttributeLayout
	buffers     []*wgpu.Buffer
	owned       []bool
	queue       *wgpu.Queue
}

var _ VertexBuffer = &wgpuVertexBuffer{}

func (v *wgpuVertexBuffer) Label() string {
	return v.label
}

func (v *wgpuVertexBuffer) VertexCount() int {
	return v.vertexCount
}

func (v *wgpuVertexBuffer) Attributes() []VertexAttributeLayout {
	return v.attributes
}

func (v *wgpuVertexBuffer) SetBufferAt(slot int, data []byte) error {
	if slot < 0 || slot >= len(v.buffers) {
		return fmt.Errorf("vertex buffer %q: slot %d out of range", v.label, slot)
	}
	if len(data) > v.attributes[slot].ByteLength {
		return fmt.Errorf("vertex buffer %q slot %d: %d bytes exceeds slot size %d", v.label, slot, len(data), v.attributes[slot].ByteLength)
	}
	v.queue.WriteBuffer(v.buffers[slot], 0, data)
	return nil
}

func (v *wgpuVertexBuffer) Release() {
	for i, buf := range v.buffers {
		if buf != nil && v.owned[i] {
			buf.Release()
		}
	}
	v.buffers = nil
	v.owned = nil
}

// wgpuIndexBuffer wraps a WebGPU index buffer.
type wgpuIndexBuffer struct {
	label      string
	indexCount int
	format     wgpu.IndexFormat
	byteSize   uint64
	buffer     *wgpu.Buffer
	queue      *wgpu.Queue
}

var _ IndexBuffer = &wgpuIndexBuffer{}

func (i *wgpuIndexBuffer) Label() string {
	return i.label
}

func (i *wgpuIndexBuffer) IndexCount() int {
	return i.indexCount
}

func (i *wgpuIndexBuffer) Format() wgpu.IndexFormat {
	return i.format
}

func (i *wgpuIndexBuffer) SetBuffer(data []byte) error {
	if uint64(len(data)) > i.byteSize {
		return fmt.Errorf("index buffer %q: %d bytes exceeds buffer size %d", i.label, len(data), i.byteSize)
	}
	i.queue.WriteBuffer(i.buffer, 0, data)
	return nil
}

func (i *wgpuIndexBuffer) Release() {
	if i.buffer != nil {
		i.buffer.Release()
		i.buffer = nil
	}
}

// wgpuTexture wraps a WebGPU 2D texture. The GPU allocation may be deferred:
// a texture created with zero dimensions allocates on the first SetImage,
// taking its size from the pushed region.
type wgpuTexture struct {
	label     string
	width     uint32
	height    uint32
	format    wgpu.TextureFormat
	mipLevels uint32
	device    *wgpu.Device
	queue     *wgpu.Queue
	texture   *wgpu.Texture
}

var _ Texture = &wgpuTexture{}

// allocate creates the GPU texture at the given dimensions.
func (t *wgpuTexture) allocate(width, height uint32) error {
	tex, err := t.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     t.label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        t.format,
		MipLevelCount: t.mipLevels,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture %q: %w", t.label, err)
	}
	t.texture = tex
	t.width = width
	t.height = height
	return nil
}

func (t *wgpuTexture) Label() string {
	return t.label
}

func (t *wgpuTexture) Width() uint32 {
	return t.width
}

func (t *wgpuTexture) Height() uint32 {
	return t.height
}

func (t *wgpuTexture) SetImage(level, xoffset, yoffset uint32, staging common.TextureStagingData) error {
	if t.texture == nil {
		if err := t.allocate(xoffset+staging.Width, yoffset+staging.Height); err != nil {
			return err
		}
	}
	if xoffset+staging.Width > t.width || yoffset+staging.Height > t.height {
		return fmt.Errorf("texture %q: region %dx%d at (%d, %d) exceeds texture bounds %dx%d",
			t.label, staging.Width, staging.Height, xoffset, yoffset, t.width, t.height)
	}

	t.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: level,
			Origin:   wgpu.Origin3D{X: xoffset, Y: yoffset},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)

	return nil
}

func (t *wgpuTexture) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// wgpuMaterial is a compiled material template.
type wgpuMaterial struct {
	def    MaterialDefinition
	device *wgpu.Device
}

var _ Material = &wgpuMaterial{}

func (m *wgpuMaterial) Label() string {
	return m.def.Label
}

func (m *wgpuMaterial) Definition() MaterialDefinition {
	return m.def
}

func (m *wgpuMaterial) CreateInstance() (MaterialInstance, error) {
	return &wgpuMaterialInstance{
		parent:   m,
		colors:   make(map[string][4]float32),
		floats:   make(map[string]float32),
		textures: make(map[string]Texture),
		samplers: make(map[string]*wgpu.Sampler),
	}, nil
}

func (m *wgpuMaterial) Release() {
	m.device = nil
}

// wgpuMaterialInstance is a per-bundle parameter set bound to a wgpuMaterial.
type wgpuMaterialInstance struct {
	parent   *wgpuMaterial
	colors   map[string][4]float32
	floats   map[string]float32
	textures map[string]Texture
	samplers map[string]*wgpu.Sampler
}

var _ MaterialInstance = &wgpuMaterialInstance{}

func (i *wgpuMaterialInstance) Material() Material {
	return i.parent
}

func (i *wgpuMaterialInstance) SetColorParameter(name string, value [4]float32) {
	i.colors[name] = value
}

func (i *wgpuMaterialInstance) ColorParameter(name string) ([4]float32, bool) {
	v, ok := i.colors[name]
	return v, ok
}

func (i *wgpuMaterialInstance) SetFloatParameter(name string, value float32) {
	i.floats[name] = value
}

func (i *wgpuMaterialInstance) FloatParameter(name string) (float32, bool) {
	v, ok := i.floats[name]
	return v, ok
}

func (i *wgpuMaterialInstance) SetTextureParameter(name string, tex Texture, sampler common.SamplerStagingData) error {
	slotDeclared := false
	for _, slot := range i.parent.def.TextureSlots {
		if slot == name {
			slotDeclared = true
			break
		}
	}
	if !slotDeclared {
		return fmt.Errorf("material %q declares no texture slot %q", i.parent.def.Label, name)
	}

	samp, err := i.parent.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         i.parent.def.Label + " " + name + " Sampler",
		AddressModeU:  common.Coalesce(sampler.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(sampler.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(sampler.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(sampler.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(sampler.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(sampler.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(sampler.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(sampler.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(sampler.MaxAnisotropy, 1),
		Compare:       sampler.Compare,
	})
	if err != nil {
		return fmt.Errorf("failed to create sampler for slot %q: %w", name, err)
	}

	if old := i.samplers[name]; old != nil {
		old.Release()
	}
	i.samplers[name] = samp
	i.textures[name] = tex
	return nil
}

func (i *wgpuMaterialInstance) TextureParameter(name string) Texture {
	return i.textures[name]
}

func (i *wgpuMaterialInstance) Release() {
	for _, s := range i.samplers {
		if s != nil {
			s.Release()
		}
	}
	i.samplers = nil
	i.textures = nil
}

// --- Helper Functions ---

// indexFormatSize returns the byte size of one index in the given format.
func indexFormatSize(format wgpu.IndexFormat) int {
	if format == wgpu.IndexFormatUint16 {
		return 2
	}
	return 4
}
