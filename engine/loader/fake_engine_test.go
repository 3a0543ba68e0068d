package loader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lumen3d/assetio/common"
	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/light"
)

// fakeEngine records every object it creates so tests can assert exact
// creation counts and that teardown released everything.
type fakeEngine struct {
	nextID   uint64
	entities map[uint64]*fakeEntity

	vertexBuffers []*fakeVertexBuffer
	indexBuffers  []*fakeIndexBuffer
	textures      []*fakeTexture
	materials     []*fakeMaterial

	// failVertexBufferAt makes the nth CreateVertexBuffer call fail (0-based).
	// A negative value disables the failure.
	failVertexBufferAt int
}

var _ engine.Engine = &fakeEngine{}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		entities:           make(map[uint64]*fakeEntity),
		failVertexBufferAt: -1,
	}
}

// liveObjectCount counts entities plus unreleased buffers, textures, and
// material instances. Material templates are excluded; they belong to the
// loader's cache, not to any asset.
func (e *fakeEngine) liveObjectCount() int {
	count := len(e.entities)
	for _, vb := range e.vertexBuffers {
		if !vb.released {
			count++
		}
	}
	for _, ib := range e.indexBuffers {
		if !ib.released {
			count++
		}
	}
	for _, tex := range e.textures {
		if !tex.released {
			count++
		}
	}
	for _, mat := range e.materials {
		for _, inst := range mat.instances {
			if !inst.released {
				count++
			}
		}
	}
	return count
}

func (e *fakeEngine) CreateEntity(name string) engine.Entity {
	e.nextID++
	ent := &fakeEntity{id: e.nextID, name: name, transform: mgl32.Ident4()}
	e.entities[ent.ID()] = ent
	return ent
}

func (e *fakeEngine) DestroyEntity(ent engine.Entity) {
	if ent == nil {
		return
	}
	delete(e.entities, ent.ID())
}

func (e *fakeEngine) EntityCount() int {
	return len(e.entities)
}

func (e *fakeEngine) CreateVertexBuffer(desc engine.VertexBufferDescriptor) (engine.VertexBuffer, error) {
	if e.failVertexBufferAt == len(e.vertexBuffers) {
		return nil, errors.New("vertex buffer creation refused")
	}
	vb := &fakeVertexBuffer{desc: desc, slots: make([]*fakeSlotBuffer, len(desc.Attributes))}
	for slot := range vb.slots {
		if src, ok := desc.SharedSlots[slot]; ok {
			source, ok := src.Buffer.(*fakeVertexBuffer)
			if !ok || src.Slot < 0 || src.Slot >= len(source.slots) {
				return nil, fmt.Errorf("slot %d shares an invalid source slot", slot)
			}
			vb.slots[slot] = source.slots[src.Slot]
			continue
		}
		vb.slots[slot] = &fakeSlotBuffer{}
	}
	e.vertexBuffers = append(e.vertexBuffers, vb)
	return vb, nil
}

func (e *fakeEngine) CreateIndexBuffer(desc engine.IndexBufferDescriptor) (engine.IndexBuffer, error) {
	ib := &fakeIndexBuffer{desc: desc}
	e.indexBuffers = append(e.indexBuffers, ib)
	return ib, nil
}

func (e *fakeEngine) CreateTexture(desc engine.TextureDescriptor) (engine.Texture, error) {
	tex := &fakeTexture{desc: desc}
	e.textures = append(e.textures, tex)
	return tex, nil
}

func (e *fakeEngine) CreateMaterial(def engine.MaterialDefinition) (engine.Material, error) {
	mat := &fakeMaterial{def: def}
	e.materials = append(e.materials, mat)
	return mat, nil
}

type fakeEntity struct {
	id        uint64
	name      string
	transform mgl32.Mat4
	parent    engine.Entity
	drawables []engine.Drawable
	light     light.Light
}

var _ engine.Entity = &fakeEntity{}

func (f *fakeEntity) ID() uint64                      { return f.id }
func (f *fakeEntity) Name() string                    { return f.name }
func (f *fakeEntity) Transform() mgl32.Mat4           { return f.transform }
func (f *fakeEntity) SetTransform(m mgl32.Mat4)       { f.transform = m }
func (f *fakeEntity) Parent() engine.Entity           { return f.parent }
func (f *fakeEntity) SetParent(p engine.Entity)       { f.parent = p }
func (f *fakeEntity) Drawables() []engine.Drawable    { return f.drawables }
func (f *fakeEntity) AttachDrawable(d engine.Drawable) { f.drawables = append(f.drawables, d) }
func (f *fakeEntity) Light() light.Light              { return f.light }
func (f *fakeEntity) SetLight(l light.Light)          { f.light = l }

// fakeSlotBuffer stands in for one GPU slot allocation. Buffers sharing a
// slot hold the same cell, so writes through either are visible to both.
type fakeSlotBuffer struct {
	data []byte
}

type fakeVertexBuffer struct {
	desc     engine.VertexBufferDescriptor
	slots    []*fakeSlotBuffer
	released bool
}

var _ engine.VertexBuffer = &fakeVertexBuffer{}

func (f *fakeVertexBuffer) Label() string                              { return f.desc.Label }
func (f *fakeVertexBuffer) VertexCount() int                           { return f.desc.VertexCount }
func (f *fakeVertexBuffer) Attributes() []engine.VertexAttributeLayout { return f.desc.Attributes }
func (f *fakeVertexBuffer) Release()                                   { f.released = true }

func (f *fakeVertexBuffer) SetBufferAt(slot int, data []byte) error {
	if slot < 0 || slot >= len(f.slots) {
		return fmt.Errorf("slot %d out of range", slot)
	}
	f.slots[slot].data = data
	return nil
}

type fakeIndexBuffer struct {
	desc     engine.IndexBufferDescriptor
	data     []byte
	released bool
}

var _ engine.IndexBuffer = &fakeIndexBuffer{}

func (f *fakeIndexBuffer) Label() string            { return f.desc.Label }
func (f *fakeIndexBuffer) IndexCount() int          { return f.desc.IndexCount }
func (f *fakeIndexBuffer) Format() wgpu.IndexFormat { return f.desc.Format }
func (f *fakeIndexBuffer) SetBuffer(data []byte) error {
	f.data = data
	return nil
}
func (f *fakeIndexBuffer) Release() { f.released = true }

type fakeTexture struct {
	desc     engine.TextureDescriptor
	images   []common.TextureStagingData
	released bool
}

var _ engine.Texture = &fakeTexture{}

func (f *fakeTexture) Label() string  { return f.desc.Label }
func (f *fakeTexture) Width() uint32  { return f.desc.Width }
func (f *fakeTexture) Height() uint32 { return f.desc.Height }
func (f *fakeTexture) Release()       { f.released = true }

func (f *fakeTexture) SetImage(level, xoffset, yoffset uint32, staging common.TextureStagingData) error {
	f.images = append(f.images, staging)
	return nil
}

type fakeMaterial struct {
	def       engine.MaterialDefinition
	instances []*fakeMaterialInstance
	released  bool
}

var _ engine.Material = &fakeMaterial{}

func (f *fakeMaterial) Label() string                        { return f.def.Label }
func (f *fakeMaterial) Definition() engine.MaterialDefinition { return f.def }
func (f *fakeMaterial) Release()                             { f.released = true }

func (f *fakeMaterial) CreateInstance() (engine.MaterialInstance, error) {
	inst := &fakeMaterialInstance{
		parent:   f,
		colors:   make(map[string][4]float32),
		floats:   make(map[string]float32),
		textures: make(map[string]engine.Texture),
	}
	f.instances = append(f.instances, inst)
	return inst, nil
}

type fakeMaterialInstance struct {
	parent   *fakeMaterial
	colors   map[string][4]float32
	floats   map[string]float32
	textures map[string]engine.Texture
	released bool
}

var _ engine.MaterialInstance = &fakeMaterialInstance{}

func (f *fakeMaterialInstance) Material() engine.Material { return f.parent }
func (f *fakeMaterialInstance) Release()                  { f.released = true }

func (f *fakeMaterialInstance) SetColorParameter(name string, value [4]float32) {
	f.colors[name] = value
}

func (f *fakeMaterialInstance) ColorParameter(name string) ([4]float32, bool) {
	v, ok := f.colors[name]
	return v, ok
}

func (f *fakeMaterialInstance) SetFloatParameter(name string, value float32) {
	f.floats[name] = value
}

func (f *fakeMaterialInstance) FloatParameter(name string) (float32, bool) {
	v, ok := f.floats[name]
	return v, ok
}

func (f *fakeMaterialInstance) SetTextureParameter(name string, tex engine.Texture, sampler common.SamplerStagingData) error {
	for _, slot := range f.parent.def.TextureSlots {
		if slot == name {
			f.textures[name] = tex
			return nil
		}
	}
	return fmt.Errorf("material %q declares no texture slot %q", f.parent.def.Label, name)
}

func (f *fakeMaterialInstance) TextureParameter(name string) engine.Texture {
	return f.textures[name]
}
