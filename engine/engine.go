package engine

import (
	"sync"
)

// EngineBackendType identifies the GPU backend an Engine is built on.
type EngineBackendType int

const (
	// BackendTypeWGPU selects the WebGPU engine backend.
	BackendTypeWGPU EngineBackendType = iota
)

// engineImpl is the implementation of the Engine interface.
type engineImpl struct {
	mu sync.Mutex

	entities map[uint64]Entity

	backend engineBackend
}

// Engine defines the narrow rendering-engine contract the asset pipeline builds
// against: creation and destruction of entities, vertex buffers, index buffers,
// textures, and material templates/instances, plus per-instance parameter set.
// Nothing else about the engine's object system is visible to the pipeline.
//
// The engine handle is treated as externally synchronized: the pipeline never
// calls it concurrently from more than one goroutine and assumes the consuming
// application does not either.
type Engine interface {
	// CreateEntity creates a new entity with an identity transform and no parent.
	//
	// Parameters:
	//   - name: a debug name for the entity
	//
	// Returns:
	//   - Entity: the new entity
	CreateEntity(name string) Entity

	// DestroyEntity destroys an entity created by this engine. Attached
	// drawables are not released; their owning bundle releases them.
	//
	// Parameters:
	//   - e: the entity to destroy
	DestroyEntity(e Entity)

	// EntityCount returns the number of live entities created by this engine.
	//
	// Returns:
	//   - int: the live entity count
	EntityCount() int

	// CreateVertexBuffer creates a vertex buffer with one data stream per
	// attribute slot in the descriptor.
	//
	// Parameters:
	//   - desc: the buffer layout
	//
	// Returns:
	//   - VertexBuffer: the new buffer
	//   - error: error if the backend refuses to create the buffer
	CreateVertexBuffer(desc VertexBufferDescriptor) (VertexBuffer, error)

	// CreateIndexBuffer creates an index buffer.
	//
	// Parameters:
	//   - desc: the buffer layout
	//
	// Returns:
	//   - IndexBuffer: the new buffer
	//   - error: error if the backend refuses to create the buffer
	CreateIndexBuffer(desc IndexBufferDescriptor) (IndexBuffer, error)

	// CreateTexture creates a 2D texture.
	//
	// Parameters:
	//   - desc: the texture layout
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: error if the backend refuses to create the texture
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateMaterial compiles a material template from a definition. Templates
	// are the expensive object in the pipeline; callers should cache and reuse
	// them rather than compiling per load.
	//
	// Parameters:
	//   - def: the material definition
	//
	// Returns:
	//   - Material: the compiled template
	//   - error: error if the backend refuses to compile the template
	CreateMaterial(def MaterialDefinition) (Material, error)
}

var _ Engine = &engineImpl{}

// NewEngine creates a new Engine with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of engine backend to use (e.g., BackendTypeWGPU)
//   - options: a variadic list of EngineBuilderOption functions to configure the Engine
//
// Returns:
//   - Engine: a new Engine instance configured with the provided backend and options
func NewEngine(backendType EngineBackendType, options ...EngineBuilderOption) Engine {
	e := &engineImpl{
		entities: make(map[uint64]Entity),
	}

	cfg := &engineConfig{}
	for _, option := range options {
		option(cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		e.backend = newWGPUEngineBackend(cfg)
	}

	return e
}

func (e *engineImpl) CreateEntity(name string) Entity {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := newEntity(name)
	e.entities[ent.ID()] = ent
	return ent
}

func (e *engineImpl) DestroyEntity(ent Entity) {
	if ent == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entities, ent.ID())
}

func (e *engineImpl) EntityCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entities)
}

func (e *engineImpl) CreateVertexBuffer(desc VertexBufferDescriptor) (VertexBuffer, error) {
	return e.backend.CreateVertexBuffer(desc)
}

func (e *engineImpl) CreateIndexBuffer(desc IndexBufferDescriptor) (IndexBuffer, error) {
	return e.backend.CreateIndexBuffer(desc)
}

func (e *engineImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	return e.backend.CreateTexture(desc)
}

func (e *engineImpl) CreateMaterial(def MaterialDefinition) (Material, error) {
	return e.backend.CreateMaterial(def)
}
