package engine

// engineBackend defines the generic interface for GPU object creation.
// Concrete implementations (e.g., wgpuEngineBackend) handle API-specific details.
type engineBackend interface {
	// CreateVertexBuffer creates a vertex buffer with one data stream per
	// attribute slot in the descriptor.
	//
	// Parameters:
	//   - desc: the buffer layout
	//
	// Returns:
	//   - VertexBuffer: the new buffer
	//   - error: error if creation fails
	CreateVertexBuffer(desc VertexBufferDescriptor) (VertexBuffer, error)

	// CreateIndexBuffer creates an index buffer.
	//
	// Parameters:
	//   - desc: the buffer layout
	//
	// Returns:
	//   - IndexBuffer: the new buffer
	//   - error: error if creation fails
	CreateIndexBuffer(desc IndexBufferDescriptor) (IndexBuffer, error)

	// CreateTexture creates a 2D texture.
	//
	// Parameters:
	//   - desc: the texture layout
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: error if creation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateMaterial compiles a material template.
	//
	// Parameters:
	//   - def: the material definition
	//
	// Returns:
	//   - Material: the compiled template
	//   - error: error if compilation fails
	CreateMaterial(def MaterialDefinition) (Material, error)
}
