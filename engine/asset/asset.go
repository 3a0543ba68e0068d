package asset

import (
	"sync"

	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/camera"
)

// BufferAccessor is a deferred-loading instruction for geometry data the
// pipeline could not resolve from embedded bytes. It is inert value data: the
// caller fetches the named byte range and pushes it into the destination
// buffer at the given slot. Exactly one of VertexBuffer and IndexBuffer is set.
type BufferAccessor struct {
	// URI is the source of the byte range, relative to the bundle's base
	// directory when not absolute.
	URI string

	// VertexBuffer is the destination vertex buffer, or nil.
	VertexBuffer engine.VertexBuffer

	// IndexBuffer is the destination index buffer, or nil.
	IndexBuffer engine.IndexBuffer

	// Slot is the destination attribute slot within VertexBuffer.
	Slot int

	// BufferViewIndex is the originating buffer-view index in the source document.
	BufferViewIndex int

	// ByteOffset is the start of the range within the source buffer.
	ByteOffset uint32

	// ByteSize is the length of the range in bytes.
	ByteSize uint32
}

// PixelAccessor is a deferred-loading instruction for image data. Decoding is
// always the caller's responsibility: the caller decodes the named image to
// RGBA pixels and pushes the region into the destination texture. When the
// image bytes were embedded in the document, Data carries them and URI is empty.
type PixelAccessor struct {
	// URI is the source image location, or empty when Data is set.
	URI string

	// Data carries embedded image bytes still requiring decode, or nil.
	Data []byte

	// MimeType is the image format hint (e.g. "image/png"), when known.
	MimeType string

	// Texture is the destination texture.
	Texture engine.Texture

	// Level is the destination mip level.
	Level uint32

	// XOffset and YOffset are the destination region origin in pixels.
	XOffset, YOffset uint32

	// Width and Height are the destination region size in pixels. Both are
	// zero for an external image whose dimensions are unknown until decode;
	// the destination texture then sizes itself on the first pixel push.
	Width, Height uint32
}

// CameraSettings records the projection parameters of the source document's
// camera for later application via UpdateCamera.
type CameraSettings struct {
	// Projection is the projection model.
	Projection camera.ProjectionType

	// Fov is the vertical field of view in radians (perspective).
	Fov float32

	// Aspect is the aspect ratio (perspective); 0 means unspecified.
	Aspect float32

	// XMag and YMag are the orthographic magnifications.
	XMag, YMag float32

	// Near and Far are the clip plane distances. A Far of 0 on a perspective
	// camera means infinite.
	Near, Far float32
}

// assetImpl is the implementation of the Asset interface.
type assetImpl struct {
	mu sync.Mutex

	engine  engine.Engine
	baseDir string

	entities          []engine.Entity
	materialInstances []engine.MaterialInstance
	vertexBuffers     []engine.VertexBuffer
	indexBuffers      []engine.IndexBuffer
	textures          []engine.Texture

	bufferAccessors []BufferAccessor
	pixelAccessors  []PixelAccessor

	cameraSettings *CameraSettings

	released bool
}

// Asset owns the bundle of engine objects produced by one load call: entities
// (renderables and lights), vertex and index buffers, textures, and material
// instances. It holds a non-owning engine reference used only to destroy its
// own objects.
//
// An asset's resource set is exactly what one load call created; nothing is
// shared with other assets except material templates, which belong to the
// loader's cache and outlive every bundle.
type Asset interface {
	// Entities returns the bundle's entities in creation order.
	//
	// Returns:
	//   - []engine.Entity: a copy of the entity list
	Entities() []engine.Entity

	// MaterialInstances returns the material instances bound to the bundle's
	// drawables.
	//
	// Returns:
	//   - []engine.MaterialInstance: a copy of the instance list
	MaterialInstances() []engine.MaterialInstance

	// BufferAccessors returns the deferred-loading instructions for geometry
	// byte ranges the pipeline did not resolve internally.
	//
	// Returns:
	//   - []BufferAccessor: a copy of the buffer accessor list
	BufferAccessors() []BufferAccessor

	// PixelAccessors returns the deferred-loading instructions for texture
	// images. Decode is always the caller's responsibility.
	//
	// Returns:
	//   - []PixelAccessor: a copy of the pixel accessor list
	PixelAccessors() []PixelAccessor

	// UpdateCamera writes the source document's camera projection parameters
	// into the given camera. It is a no-op when the document carried no camera.
	//
	// Parameters:
	//   - cam: the destination camera object
	UpdateCamera(cam camera.Camera)

	// BaseDir returns the directory accessor URIs are resolved against.
	//
	// Returns:
	//   - string: the base directory, possibly empty
	BaseDir() string

	// Release destroys every engine object the bundle owns: entities, buffers,
	// textures, and material instances. Shared material templates are never
	// touched. Safe to call more than once.
	Release()
}

var _ Asset = &assetImpl{}

// NewAsset creates a new Asset configured with the provided options. Intended
// for use by the loader; applications receive assets from load calls.
//
// Parameters:
//   - options: variadic list of AssetBuilderOption functions to configure the asset
//
// Returns:
//   - Asset: a new Asset instance
func NewAsset(options ...AssetBuilderOption) Asset {
	a := &assetImpl{}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *assetImpl) Entities() []engine.Entity {
	return append([]engine.Entity(nil), a.entities...)
}

func (a *assetImpl) MaterialInstances() []engine.MaterialInstance {
	return append([]engine.MaterialInstance(nil), a.materialInstances...)
}

func (a *assetImpl) BufferAccessors() []BufferAccessor {
	return append([]BufferAccessor(nil), a.bufferAccessors...)
}

func (a *assetImpl) PixelAccessors() []PixelAccessor {
	return append([]PixelAccessor(nil), a.pixelAccessors...)
}

func (a *assetImpl) UpdateCamera(cam camera.Camera) {
	if a.cameraSettings == nil || cam == nil {
		return
	}

	s := a.cameraSettings
	switch s.Projection {
	case camera.ProjectionOrthographic:
		cam.SetOrthographic(s.XMag, s.YMag, s.Near, s.Far)
	default:
		aspect := s.Aspect
		if aspect == 0 {
			aspect = cam.Aspect()
		}
		cam.SetPerspective(s.Fov, aspect, s.Near, s.Far)
	}
}

func (a *assetImpl) BaseDir() string {
	return a.baseDir
}

func (a *assetImpl) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return
	}
	a.released = true

	for _, inst := range a.materialInstances {
		inst.Release()
	}
	for _, vb := range a.vertexBuffers {
		vb.Release()
	}
	for _, ib := range a.indexBuffers {
		ib.Release()
	}
	for _, tex := range a.textures {
		tex.Release()
	}
	if a.engine != nil {
		for _, ent := range a.entities {
			a.engine.DestroyEntity(ent)
		}
	}

	a.materialInstances = nil
	a.vertexBuffers = nil
	a.indexBuffers = nil
	a.textures = nil
	a.entities = nil
	a.bufferAccessors = nil
	a.pixelAccessors = nil
}
