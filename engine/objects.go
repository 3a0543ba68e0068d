package engine

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/assetio/common"
)

// AttributeSemantic identifies the role of a vertex attribute slot.
type AttributeSemantic int

const (
	// AttributePosition is the vertex position stream (float32x3).
	AttributePosition AttributeSemantic = iota
	// AttributeNormal is the vertex normal stream (float32x3).
	AttributeNormal
	// AttributeTangent is the vertex tangent stream (float32x4).
	AttributeTangent
	// AttributeTexCoord0 is the first UV set (float32x2).
	AttributeTexCoord0
	// AttributeColor0 is the first vertex color set.
	AttributeColor0
	// AttributeJoints0 is the skinning joint index stream.
	AttributeJoints0
	// AttributeWeights0 is the skinning joint weight stream.
	AttributeWeights0
)

// VertexAttributeLayout describes one attribute slot of a vertex buffer.
type VertexAttributeLayout struct {
	// Semantic is the role of this attribute slot.
	Semantic AttributeSemantic

	// Format is the GPU vertex format of the attribute data.
	Format wgpu.VertexFormat

	// ByteLength is the total byte size of the slot's data stream.
	ByteLength int
}

// SharedSlot identifies an existing vertex buffer slot whose GPU allocation a
// new buffer reuses. The source buffer must outlive every buffer sharing one
// of its slots.
type SharedSlot struct {
	// Buffer is the vertex buffer that owns the allocation.
	Buffer VertexBuffer

	// Slot is the attribute slot index within Buffer.
	Slot int
}

// VertexBufferDescriptor describes a vertex buffer to be created by an Engine.
// Only the attribute slots listed are allocated.
type VertexBufferDescriptor struct {
	// Label is a debug identifier for the buffer.
	Label string

	// VertexCount is the number of vertices the buffer holds.
	VertexCount int

	// Attributes lists the attribute slots, in slot order.
	Attributes []VertexAttributeLayout

	// SharedSlots maps attribute slot indices onto existing buffer slots whose
	// GPU allocations they reuse. A shared slot is neither allocated nor
	// released by the new buffer; writes through either buffer land in the
	// same allocation.
	SharedSlots map[int]SharedSlot
}

// IndexBufferDescriptor describes an index buffer to be created by an Engine.
type IndexBufferDescriptor struct {
	// Label is a debug identifier for the buffer.
	Label string

	// IndexCount is the number of indices the buffer holds.
	IndexCount int

	// Format is the GPU index format (uint16 or uint32).
	Format wgpu.IndexFormat
}

// TextureDescriptor describes a 2D texture to be created by an Engine.
type TextureDescriptor struct {
	// Label is a debug identifier for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// MipLevels is the number of mip levels to allocate (minimum 1).
	MipLevels uint32

	// SRGB selects an sRGB texture format when true.
	SRGB bool
}

// ShadingModel identifies the lighting model a material template compiles for.
type ShadingModel int

const (
	// ShadingLit is the PBR metallic-roughness lighting model.
	ShadingLit ShadingModel = iota
	// ShadingUnlit bypasses lighting entirely.
	ShadingUnlit
)

// AlphaMode identifies how a material's alpha channel is interpreted.
type AlphaMode int

const (
	// AlphaOpaque ignores the alpha channel.
	AlphaOpaque AlphaMode = iota
	// AlphaMask cuts fragments below an alpha cutoff.
	AlphaMask
	// AlphaBlend alpha-blends fragments against the framebuffer.
	AlphaBlend
)

// MaterialDefinition describes a material template to be compiled by an Engine.
// Two definitions with identical field values describe the same template.
type MaterialDefinition struct {
	// Label is a debug identifier for the template.
	Label string

	// Shading is the lighting model.
	Shading ShadingModel

	// AlphaMode is the alpha interpretation.
	AlphaMode AlphaMode

	// DoubleSided disables backface culling when true.
	DoubleSided bool

	// Skinned enables the vertex skinning path when true.
	Skinned bool

	// TextureSlots names the texture parameters the template samples, in slot order.
	TextureSlots []string
}

// VertexBuffer is a GPU vertex buffer with one data stream per attribute slot.
// Slots are populated asynchronously: embedded document data is pushed during the
// build step, while externally sourced ranges are pushed by the caller when it
// services the bundle's buffer accessors.
type VertexBuffer interface {
	// Label returns the buffer's debug identifier.
	//
	// Returns:
	//   - string: the label
	Label() string

	// VertexCount returns the number of vertices the buffer holds.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Attributes returns the attribute slot layout, in slot order.
	//
	// Returns:
	//   - []VertexAttributeLayout: the slot layout
	Attributes() []VertexAttributeLayout

	// SetBufferAt pushes byte data into the attribute slot at the given index.
	//
	// Parameters:
	//   - slot: the attribute slot index
	//   - data: the raw bytes for the slot's data stream
	//
	// Returns:
	//   - error: error if the slot is out of range or the data does not fit
	SetBufferAt(slot int, data []byte) error

	// Release frees the GPU resources held by this buffer.
	Release()
}

// IndexBuffer is a GPU index buffer.
type IndexBuffer interface {
	// Label returns the buffer's debug identifier.
	//
	// Returns:
	//   - string: the label
	Label() string

	// IndexCount returns the number of indices the buffer holds.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// Format returns the GPU index format.
	//
	// Returns:
	//   - wgpu.IndexFormat: uint16 or uint32
	Format() wgpu.IndexFormat

	// SetBuffer pushes the index data into the buffer.
	//
	// Parameters:
	//   - data: the raw index bytes
	//
	// Returns:
	//   - error: error if the data does not fit
	SetBuffer(data []byte) error

	// Release frees the GPU resources held by this buffer.
	Release()
}

// Texture is a GPU 2D texture. Pixel data is pushed by the caller when it
// services the bundle's pixel accessors.
type Texture interface {
	// Label returns the texture's debug identifier.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Width returns the texture width in pixels.
	//
	// Returns:
	//   - uint32: the width
	Width() uint32

	// Height returns the texture height in pixels.
	//
	// Returns:
	//   - uint32: the height
	Height() uint32

	// SetImage pushes decoded RGBA pixels into a region of a mip level.
	//
	// Parameters:
	//   - level: the destination mip level
	//   - xoffset, yoffset: the region origin in pixels
	//   - staging: the decoded pixel region to write
	//
	// Returns:
	//   - error: error if the region falls outside the texture bounds
	SetImage(level, xoffset, yoffset uint32, staging common.TextureStagingData) error

	// Release frees the GPU resources held by this texture.
	Release()
}

// Material is a compiled, reusable material template. Templates are shared
// across asset bundles via the material cache; per-bundle parameter values live
// on MaterialInstance objects cloned from the template.
type Material interface {
	// Label returns the template's debug identifier.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Definition returns the definition this template was compiled from.
	//
	// Returns:
	//   - MaterialDefinition: the definition
	Definition() MaterialDefinition

	// CreateInstance clones a new parameter-holding instance of this template.
	//
	// Returns:
	//   - MaterialInstance: the new instance
	//   - error: error if the engine refuses to create the instance
	CreateInstance() (MaterialInstance, error)

	// Release frees the template. Instances derived from it must already be
	// released; the template does not track them.
	Release()
}

// MaterialInstance is a per-bundle parameter set bound to a material template.
type MaterialInstance interface {
	// Material returns the template this instance derives from.
	//
	// Returns:
	//   - Material: the parent template
	Material() Material

	// SetColorParameter sets an RGBA color parameter value.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the RGBA value
	SetColorParameter(name string, value [4]float32)

	// ColorParameter retrieves an RGBA color parameter value.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - [4]float32: the value, or zero if unset
	//   - bool: true if the parameter has been set
	ColorParameter(name string) ([4]float32, bool)

	// SetFloatParameter sets a scalar parameter value.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the scalar value
	SetFloatParameter(name string, value float32)

	// FloatParameter retrieves a scalar parameter value.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - float32: the value, or zero if unset
	//   - bool: true if the parameter has been set
	FloatParameter(name string) (float32, bool)

	// SetTextureParameter binds a texture and sampler configuration to a named
	// texture slot declared by the template.
	//
	// Parameters:
	//   - name: the texture slot name
	//   - tex: the texture to bind
	//   - sampler: the sampler configuration for the slot
	//
	// Returns:
	//   - error: error if the template declares no such slot
	SetTextureParameter(name string, tex Texture, sampler common.SamplerStagingData) error

	// TextureParameter retrieves the texture bound to a named slot.
	//
	// Parameters:
	//   - name: the texture slot name
	//
	// Returns:
	//   - Texture: the bound texture, or nil
	TextureParameter(name string) Texture

	// Release frees the GPU resources held by this instance.
	Release()
}

// Drawable binds geometry and a material instance for rendering on an entity.
type Drawable struct {
	// VertexBuffer is the geometry's vertex data.
	VertexBuffer VertexBuffer

	// IndexBuffer is the geometry's index data.
	IndexBuffer IndexBuffer

	// MaterialInstance is the bound per-bundle material parameter set.
	MaterialInstance MaterialInstance

	// Skin is the skinning data for this drawable, or nil for rigid geometry.
	Skin *Skin
}

// Skin captures the joint set deforming a drawable.
type Skin struct {
	// Joints are the skeleton joints, in document joint order.
	Joints []Joint
}

// Joint pairs a skeleton entity with its inverse bind matrix.
type Joint struct {
	// Entity is the entity built for the joint's skeleton node.
	Entity Entity

	// InverseBindMatrix transforms mesh space into the joint's bind space.
	InverseBindMatrix mgl32.Mat4
}
