package asset

import (
	"github.com/lumen3d/assetio/engine"
)

// AssetBuilderOption is a functional option for configuring an Asset via NewAsset.
type AssetBuilderOption func(*assetImpl)

// WithEngine is an option builder that sets the non-owning engine reference
// used to destroy the asset's entities on Release.
//
// Parameters:
//   - eng: the engine that created the asset's objects
//
// Returns:
//   - AssetBuilderOption: a function that applies the engine option
func WithEngine(eng engine.Engine) AssetBuilderOption {
	return func(a *assetImpl) {
		a.engine = eng
	}
}

// WithBaseDir is an option builder that sets the directory accessor URIs are
// resolved against.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - AssetBuilderOption: a function that applies the base directory option
func WithBaseDir(dir string) AssetBuilderOption {
	return func(a *assetImpl) {
		a.baseDir = dir
	}
}

// WithEntities is an option builder that sets the asset's owned entities.
//
// Parameters:
//   - entities: the entities, in creation order
//
// Returns:
//   - AssetBuilderOption: a function that applies the entities option
func WithEntities(entities []engine.Entity) AssetBuilderOption {
	return func(a *assetImpl) {
		a.entities = entities
	}
}

// WithMaterialInstances is an option builder that sets the asset's owned
// material instances.
//
// Parameters:
//   - instances: the material instances
//
// Returns:
//   - AssetBuilderOption: a function that applies the instances option
func WithMaterialInstances(instances []engine.MaterialInstance) AssetBuilderOption {
	return func(a *assetImpl) {
		a.materialInstances = instances
	}
}

// WithVertexBuffers is an option builder that sets the asset's owned vertex buffers.
//
// Parameters:
//   - buffers: the vertex buffers
//
// Returns:
//   - AssetBuilderOption: a function that applies the vertex buffers option
func WithVertexBuffers(buffers []engine.VertexBuffer) AssetBuilderOption {
	return func(a *assetImpl) {
		a.vertexBuffers = buffers
	}
}

// WithIndexBuffers is an option builder that sets the asset's owned index buffers.
//
// Parameters:
//   - buffers: the index buffers
//
// Returns:
//   - AssetBuilderOption: a function that applies the index buffers option
func WithIndexBuffers(buffers []engine.IndexBuffer) AssetBuilderOption {
	return func(a *assetImpl) {
		a.indexBuffers = buffers
	}
}

// WithTextures is an option builder that sets the asset's owned textures.
//
// Parameters:
//   - textures: the textures
//
// Returns:
//   - AssetBuilderOption: a function that applies the textures option
func WithTextures(textures []engine.Texture) AssetBuilderOption {
	return func(a *assetImpl) {
		a.textures = textures
	}
}

// WithBufferAccessors is an option builder that sets the asset's deferred
// buffer-loading instructions.
//
// Parameters:
//   - accessors: the buffer accessors
//
// Returns:
//   - AssetBuilderOption: a function that applies the buffer accessors option
func WithBufferAccessors(accessors []BufferAccessor) AssetBuilderOption {
	return func(a *assetImpl) {
		a.bufferAccessors = accessors
	}
}

// WithPixelAccessors is an option builder that sets the asset's deferred
// image-loading instructions.
//
// Parameters:
//   - accessors: the pixel accessors
//
// Returns:
//   - AssetBuilderOption: a function that applies the pixel accessors option
func WithPixelAccessors(accessors []PixelAccessor) AssetBuilderOption {
	return func(a *assetImpl) {
		a.pixelAccessors = accessors
	}
}

// WithCameraSettings is an option builder that records the document camera's
// projection parameters.
//
// Parameters:
//   - settings: the camera projection parameters
//
// Returns:
//   - AssetBuilderOption: a function that applies the camera option
func WithCameraSettings(settings *CameraSettings) AssetBuilderOption {
	return func(a *assetImpl) {
		a.cameraSettings = settings
	}
}
