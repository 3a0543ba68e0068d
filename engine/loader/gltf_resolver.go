// gltf_resolver.go maps glTF document records onto engine-level descriptors:
// attribute semantics, vertex formats, material signatures, and sampler
// configuration. The mappings are pure functions of the validated document so
// the builder can call them without further error handling where noted.
package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen3d/assetio/common"
	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/material_cache"
)

// attributeSemantics maps glTF attribute names onto engine semantics, in
// canonical slot order. Attributes outside this set are skipped with no error;
// the glTF spec allows arbitrary application-specific semantics.
var attributeSemantics = []struct {
	name     string
	semantic engine.AttributeSemantic
}{
	{"POSITION", engine.AttributePosition},
	{"NORMAL", engine.AttributeNormal},
	{"TANGENT", engine.AttributeTangent},
	{"TEXCOORD_0", engine.AttributeTexCoord0},
	{"COLOR_0", engine.AttributeColor0},
	{"JOINTS_0", engine.AttributeJoints0},
	{"WEIGHTS_0", engine.AttributeWeights0},
}

// attributeBinding pairs one recognized primitive attribute with its accessor.
type attributeBinding struct {
	name     string
	semantic engine.AttributeSemantic
	accessor int
}

// primitiveAttributes resolves a primitive's attribute map into canonical slot
// order, dropping unrecognized semantics.
func primitiveAttributes(prim *gltfPrimitive) []attributeBinding {
	var bindings []attributeBinding
	for _, s := range attributeSemantics {
		if accessor, ok := prim.Attributes[s.name]; ok {
			bindings = append(bindings, attributeBinding{name: s.name, semantic: s.semantic, accessor: accessor})
		}
	}
	return bindings
}

// vertexBufferKey produces the dedup key for a primitive's attribute set. Two
// primitives whose recognized attributes reference the same accessors in the
// same slots share one vertex buffer.
func vertexBufferKey(bindings []attributeBinding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = fmt.Sprintf("%s=%d", b.name, b.accessor)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// vertexFormatFor maps an accessor's type onto a GPU vertex format.
// Float accessors pass through; normalized and unnormalized integer vec4
// accessors map to the matching 8 and 16 bit formats. Anything else is a
// build failure rather than a silent conversion.
func vertexFormatFor(acc *gltfAccessor) (wgpu.VertexFormat, error) {
	switch acc.ComponentType {
	case gltfComponentTypeFloat:
		switch acc.Type {
		case gltfAccessorTypeVec2:
			return wgpu.VertexFormatFloat32x2, nil
		case gltfAccessorTypeVec3:
			return wgpu.VertexFormatFloat32x3, nil
		case gltfAccessorTypeVec4:
			return wgpu.VertexFormatFloat32x4, nil
		}
	case gltfComponentTypeUnsignedByte:
		if acc.Type == gltfAccessorTypeVec4 {
			if acc.Normalized {
				return wgpu.VertexFormatUnorm8x4, nil
			}
			return wgpu.VertexFormatUint8x4, nil
		}
	case gltfComponentTypeUnsignedShort:
		if acc.Type == gltfAccessorTypeVec4 {
			if acc.Normalized {
				return wgpu.VertexFormatUnorm16x4, nil
			}
			return wgpu.VertexFormatUint16x4, nil
		}
	}
	return 0, fmt.Errorf("unsupported vertex format: type=%s, componentType=%d, normalized=%t", acc.Type, acc.ComponentType, acc.Normalized)
}

// indexFormatFor maps an index accessor's component type onto a GPU index
// format. Byte indices widen to uint16 since WebGPU has no uint8 index format.
func indexFormatFor(acc *gltfAccessor) (wgpu.IndexFormat, error) {
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte, gltfComponentTypeUnsignedShort:
		return wgpu.IndexFormatUint16, nil
	case gltfComponentTypeUnsignedInt:
		return wgpu.IndexFormatUint32, nil
	default:
		return 0, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
	}
}

// widenByteIndices converts uint8 index data to uint16 in place of a format
// WebGPU cannot consume directly.
func widenByteIndices(data []byte) []byte {
	widened := make([]uint16, len(data))
	for i, b := range data {
		widened[i] = uint16(b)
	}
	return common.SliceToBytes(widened)
}

// materialSignature reduces a document material to its template signature.
// A negative index yields the default material signature: lit, opaque,
// single-sided, untextured.
func materialSignature(doc *gltfDocument, materialIndex int, skinned bool) material_cache.Signature {
	sig := material_cache.Signature{
		Shading:   engine.ShadingLit,
		AlphaMode: engine.AlphaOpaque,
		Skinned:   skinned,
	}
	if materialIndex < 0 {
		return sig
	}

	mat := &doc.Materials[materialIndex]
	sig.DoubleSided = mat.DoubleSided

	if mat.Extensions != nil && mat.Extensions.KHRMaterialsUnlit != nil {
		sig.Shading = engine.ShadingUnlit
	}

	switch mat.AlphaMode {
	case gltfAlphaModeMask:
		sig.AlphaMode = engine.AlphaMask
	case gltfAlphaModeBlend:
		sig.AlphaMode = engine.AlphaBlend
	}

	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		sig.BaseColorTexture = pbr.BaseColorTexture != nil
		sig.MetallicRoughnessTexture = pbr.MetallicRoughnessTexture != nil
	}
	sig.NormalTexture = mat.NormalTexture != nil
	sig.OcclusionTexture = mat.OcclusionTexture != nil
	sig.EmissiveTexture = mat.EmissiveTexture != nil

	return sig
}

// samplerStaging converts a document sampler onto sampler staging data,
// applying the glTF defaults (repeat wrapping, linear filtering) when the
// primitive's texture has no sampler or omits fields.
func samplerStaging(doc *gltfDocument, samplerIndex *int) common.SamplerStagingData {
	staging := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
		LodMaxClamp:  32,
	}
	if samplerIndex == nil {
		return staging
	}

	sampler := &doc.Samplers[*samplerIndex]
	if sampler.MagFilter != nil && *sampler.MagFilter == gltfFilterNearest {
		staging.MagFilter = wgpu.FilterModeNearest
	}
	if sampler.MinFilter != nil {
		switch *sampler.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			staging.MinFilter = wgpu.FilterModeNearest
		}
		switch *sampler.MinFilter {
		case gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest:
			staging.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}
	if sampler.WrapS != nil {
		staging.AddressModeU = wrapMode(*sampler.WrapS)
	}
	if sampler.WrapT != nil {
		staging.AddressModeV = wrapMode(*sampler.WrapT)
	}
	return staging
}

// wrapMode converts a glTF wrap constant onto a GPU address mode.
func wrapMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
