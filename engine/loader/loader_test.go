package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/camera"
	"github.com/lumen3d/assetio/engine/light"
	"github.com/lumen3d/assetio/engine/material_cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBinary builds the binary payload shared by the fixtures: three vec3
// positions followed by three uint16 indices, with two bytes of padding so the
// total length is 4-aligned.
func triangleBinary() []byte {
	var buf bytes.Buffer
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	binary.Write(&buf, binary.LittleEndian, positions)
	binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 2})
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

// triangleJSON builds a single-triangle document with its buffer embedded as
// a data URI.
func triangleJSON() []byte {
	bin := triangleBinary()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	return []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))
}

// triangleGLB wraps the triangle document in a GLB container with the binary
// payload as the BIN chunk.
func triangleGLB() []byte {
	bin := triangleBinary()
	jsonChunk := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": %d}]
	}`, len(bin)))
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(bin)
	binary.Write(&out, binary.LittleEndian, uint32(gltfGLBMagic))
	binary.Write(&out, binary.LittleEndian, uint32(gltfGLBVersion))
	binary.Write(&out, binary.LittleEndian, uint32(total))
	binary.Write(&out, binary.LittleEndian, uint32(len(jsonChunk)))
	binary.Write(&out, binary.LittleEndian, uint32(gltfGLBChunkJSON))
	out.Write(jsonChunk)
	binary.Write(&out, binary.LittleEndian, uint32(len(bin)))
	binary.Write(&out, binary.LittleEndian, uint32(gltfGLBChunkBIN))
	out.Write(bin)
	return out.Bytes()
}

func pngDataURI(w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCreateAssetFromJSONEmbedded(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)

	assert.Len(t, a.Entities(), 1)
	assert.Equal(t, "tri", a.Entities()[0].Name())
	assert.Len(t, a.MaterialInstances(), 1)
	assert.Empty(t, a.BufferAccessors())
	assert.Empty(t, a.PixelAccessors())

	// Embedded data must already be on the buffers.
	require.Len(t, eng.vertexBuffers, 1)
	assert.Len(t, eng.vertexBuffers[0].slots[0].data, 36)
	require.Len(t, eng.indexBuffers, 1)
	assert.Len(t, eng.indexBuffers[0].data, 6)
	assert.Equal(t, wgpu.IndexFormatUint16, eng.indexBuffers[0].Format())

	drawables := a.Entities()[0].Drawables()
	require.Len(t, drawables, 1)
	assert.NotNil(t, drawables[0].VertexBuffer)
	assert.NotNil(t, drawables[0].IndexBuffer)
	assert.NotNil(t, drawables[0].MaterialInstance)
	assert.Nil(t, drawables[0].Skin)
}

func TestCreateAssetFromBinary(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromBinary(triangleGLB())
	require.NoError(t, err)

	assert.Len(t, a.Entities(), 1)
	assert.Empty(t, a.BufferAccessors())
	require.Len(t, eng.vertexBuffers, 1)
	assert.Len(t, eng.vertexBuffers[0].slots[0].data, 36)
}

func TestDefaultMaterialParameters(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)

	inst := a.MaterialInstances()[0]
	baseColor, ok := inst.ColorParameter("baseColorFactor")
	require.True(t, ok)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, baseColor)
	metallic, ok := inst.FloatParameter("metallicFactor")
	require.True(t, ok)
	assert.Equal(t, float32(1), metallic)

	assert.Equal(t, 1, l.MaterialCount())
}

func TestRepeatLoadSharesTemplatesNotObjects(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a1, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)
	a2, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)

	// Same structure, disjoint objects.
	assert.Len(t, a2.Entities(), len(a1.Entities()))
	assert.NotEqual(t, a1.Entities()[0].ID(), a2.Entities()[0].ID())
	assert.NotSame(t, a1.MaterialInstances()[0], a2.MaterialInstances()[0])
	assert.Len(t, eng.vertexBuffers, 2)

	// One shared template behind both instances.
	assert.Equal(t, 1, l.MaterialCount())
	assert.Same(t, a1.MaterialInstances()[0].Material(), a2.MaterialInstances()[0].Material())
}

func TestAccessorDeduplication(t *testing.T) {
	bin := triangleBinary()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	// Two nodes whose primitives reference the same accessors.
	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [{"mesh": 0}, {"mesh": 1}],
		"meshes": [
			{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]},
			{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	assert.Len(t, a.Entities(), 2)
	assert.Len(t, eng.vertexBuffers, 1)
	assert.Len(t, eng.indexBuffers, 1)

	d0 := a.Entities()[0].Drawables()[0]
	d1 := a.Entities()[1].Drawables()[0]
	assert.Same(t, d0.VertexBuffer, d1.VertexBuffer)
	assert.Same(t, d0.IndexBuffer, d1.IndexBuffer)
}

func TestExternalBufferDeferred(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": "mesh.bin", "byteLength": 44}]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng, WithBaseDir("/assets"))

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, "/assets", a.BaseDir())

	accessors := a.BufferAccessors()
	require.Len(t, accessors, 2)

	vertexAcc := accessors[0]
	assert.Equal(t, "mesh.bin", vertexAcc.URI)
	assert.NotNil(t, vertexAcc.VertexBuffer)
	assert.Nil(t, vertexAcc.IndexBuffer)
	assert.Equal(t, uint32(0), vertexAcc.ByteOffset)
	assert.Equal(t, uint32(36), vertexAcc.ByteSize)

	indexAcc := accessors[1]
	assert.Nil(t, indexAcc.VertexBuffer)
	assert.NotNil(t, indexAcc.IndexBuffer)
	assert.Equal(t, uint32(36), indexAcc.ByteOffset)
	assert.Equal(t, uint32(6), indexAcc.ByteSize)

	// Nothing was pushed.
	assert.Nil(t, eng.vertexBuffers[0].slots[0].data)
	assert.Nil(t, eng.indexBuffers[0].data)
}

func TestEmbeddedImageStaged(t *testing.T) {
	bin := triangleBinary()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
		"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
		"textures": [{"source": 0}],
		"images": [{"uri": %q}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, pngDataURI(4, 2), uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	pixels := a.PixelAccessors()
	require.Len(t, pixels, 1)
	assert.Empty(t, pixels[0].URI)
	assert.NotNil(t, pixels[0].Data)
	assert.Equal(t, "image/png", pixels[0].MimeType)
	// Dimensions probed from the embedded bytes size the texture up front.
	assert.Equal(t, uint32(4), pixels[0].Width)
	assert.Equal(t, uint32(2), pixels[0].Height)
	require.Len(t, eng.textures, 1)
	assert.True(t, eng.textures[0].desc.SRGB)

	inst := a.MaterialInstances()[0]
	assert.Same(t, eng.textures[0], inst.TextureParameter(material_cache.SlotBaseColor))
}

func TestExternalImageDeferred(t *testing.T) {
	bin := triangleBinary()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
		"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
		"textures": [{"source": 0}],
		"images": [{"uri": "albedo.png"}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	pixels := a.PixelAccessors()
	require.Len(t, pixels, 1)
	assert.Equal(t, "albedo.png", pixels[0].URI)
	assert.Nil(t, pixels[0].Data)
	// Unknown dimensions: the texture sizes itself on first push.
	assert.Equal(t, uint32(0), pixels[0].Width)
	assert.Equal(t, uint32(0), pixels[0].Height)
}

func TestSkinnedAsset(t *testing.T) {
	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	binary.Write(&buf, binary.LittleEndian, positions) // 36 bytes
	joints := make([]byte, 12)                         // 3 x vec4 u8
	buf.Write(joints)
	weights := []float32{
		1, 0, 0, 0,
		1, 0, 0, 0,
		1, 0, 0, 0,
	}
	binary.Write(&buf, binary.LittleEndian, weights) // 48 bytes
	ibms := make([]float32, 32)                      // 2 identity mat4
	for i := 0; i < 2; i++ {
		ibms[i*16], ibms[i*16+5], ibms[i*16+10], ibms[i*16+15] = 1, 1, 1, 1
	}
	binary.Write(&buf, binary.LittleEndian, ibms) // 128 bytes
	bin := buf.Bytes()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)

	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [
			{"mesh": 0, "skin": 0},
			{"name": "root_joint", "children": [2]},
			{"name": "tip_joint"}
		],
		"skins": [{"joints": [1, 2], "inverseBindMatrices": 3}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0, "JOINTS_0": 1, "WEIGHTS_0": 2}}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5121, "count": 3, "type": "VEC4"},
			{"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC4"},
			{"bufferView": 3, "componentType": 5126, "count": 2, "type": "MAT4"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 12},
			{"buffer": 0, "byteOffset": 48, "byteLength": 48},
			{"buffer": 0, "byteOffset": 96, "byteLength": 128}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	require.Len(t, a.Entities(), 3)
	drawables := a.Entities()[0].Drawables()
	require.Len(t, drawables, 1)
	require.NotNil(t, drawables[0].Skin)
	require.Len(t, drawables[0].Skin.Joints, 2)
	assert.Equal(t, "root_joint", drawables[0].Skin.Joints[0].Entity.Name())
	assert.Equal(t, "tip_joint", drawables[0].Skin.Joints[1].Entity.Name())

	// The skinned template variant was compiled.
	mats := make([]engine.Material, 1)
	require.Equal(t, 1, l.Materials(mats))
	assert.True(t, mats[0].Definition().Skinned)

	// Vertex buffer carries all three attribute slots.
	require.Len(t, eng.vertexBuffers, 1)
	attrs := eng.vertexBuffers[0].Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, engine.AttributePosition, attrs[0].Semantic)
	assert.Equal(t, engine.AttributeJoints0, attrs[1].Semantic)
	assert.Equal(t, wgpu.VertexFormatUint8x4, attrs[1].Format)
	assert.Equal(t, engine.AttributeWeights0, attrs[2].Semantic)
}

func TestByteIndicesWidened(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	buf.Write([]byte{0, 1, 2, 0}) // uint8 indices plus padding
	bin := buf.Bytes()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)

	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5121, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 3}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	require.Len(t, eng.indexBuffers, 1)
	assert.Equal(t, wgpu.IndexFormatUint16, eng.indexBuffers[0].Format())
	require.Len(t, eng.indexBuffers[0].data, 6)
	widened := make([]uint16, 3)
	require.NoError(t, binary.Read(bytes.NewReader(eng.indexBuffers[0].data), binary.LittleEndian, widened))
	assert.Equal(t, []uint16{0, 1, 2}, widened)
}

func TestCameraRecordedAndApplied(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"camera": 0}],
		"cameras": [{"type": "perspective", "perspective": {"yfov": 1.0, "znear": 0.25, "zfar": 100}}]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	cam := camera.NewCamera()
	a.UpdateCamera(cam)
	assert.Equal(t, camera.ProjectionPerspective, cam.Projection())
	assert.InDelta(t, 1.0, cam.Fov(), 1e-6)
	assert.InDelta(t, 0.25, cam.Near(), 1e-6)
	assert.InDelta(t, 100, cam.Far(), 1e-6)
}

func TestPunctualLightAttached(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"extensionsUsed": ["KHR_lights_punctual"],
		"extensions": {"KHR_lights_punctual": {"lights": [
			{"type": "spot", "color": [1, 0.5, 0.25], "intensity": 40, "range": 12,
			 "spot": {"innerConeAngle": 0.2, "outerConeAngle": 0.6}}
		]}},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"extensions": {"KHR_lights_punctual": {"light": 0}}}]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	require.Len(t, a.Entities(), 1)
	lt := a.Entities()[0].Light()
	require.NotNil(t, lt)
	assert.Equal(t, light.LightTypeSpot, lt.Type())
	assert.Equal(t, float32(40), lt.Intensity())
	assert.Equal(t, float32(12), lt.Range())
	assert.InDelta(t, math.Cos(0.2), lt.InnerCone(), 1e-6)
	assert.InDelta(t, math.Cos(0.6), lt.OuterCone(), 1e-6)
}

func TestNodeHierarchyAndTransforms(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [
			{"name": "parent", "translation": [1, 2, 3], "children": [1]},
			{"name": "child", "scale": [2, 2, 2]}
		]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	ents := a.Entities()
	require.Len(t, ents, 2)
	assert.Nil(t, ents[0].Parent())
	assert.Same(t, ents[0], ents[1].Parent())

	parentTransform := ents[0].Transform()
	assert.Equal(t, float32(1), parentTransform.At(0, 3))
	assert.Equal(t, float32(2), parentTransform.At(1, 3))
	assert.Equal(t, float32(3), parentTransform.At(2, 3))
	childTransform := ents[1].Transform()
	assert.Equal(t, float32(2), childTransform.At(0, 0))
}

func TestTruncatedGLBCreatesNothing(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	glb := triangleGLB()
	_, err := l.CreateAssetFromBinary(glb[:len(glb)-10])
	require.Error(t, err)
	assert.Equal(t, 0, eng.liveObjectCount())
}

func TestOutOfRangeReferenceRejected(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"children": [7]}]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
	assert.Equal(t, 0, eng.liveObjectCount())
}

func TestUnsupportedRequiredExtensionRejected(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"extensionsRequired": ["KHR_draco_mesh_compression"]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KHR_draco_mesh_compression")
}

func TestMidBuildFailureTearsDown(t *testing.T) {
	bin := triangleBinary()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	// Two meshes with distinct position accessors so two vertex buffers are needed.
	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [{"mesh": 0}, {"mesh": 1}],
		"meshes": [
			{"primitives": [{"attributes": {"POSITION": 0}}]},
			{"primitives": [{"attributes": {"POSITION": 1}}]}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "byteOffset": 0}
		],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 36}],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	eng.failVertexBufferAt = 1
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.Error(t, err)
	assert.Equal(t, 0, eng.liveObjectCount())
}

func TestDestroyAsset(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)
	require.NotZero(t, eng.liveObjectCount())

	l.DestroyAsset(a)
	assert.Equal(t, 0, eng.liveObjectCount())

	// Second destroy is a no-op, as is destroying nil.
	l.DestroyAsset(a)
	l.DestroyAsset(nil)

	// Templates survive asset destruction.
	assert.Equal(t, 1, l.MaterialCount())
}

func TestDestroyMaterialsRequiresNoLiveAssets(t *testing.T) {
	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(triangleJSON())
	require.NoError(t, err)

	require.Error(t, l.DestroyMaterials())

	l.DestroyAsset(a)
	require.NoError(t, l.DestroyMaterials())
	assert.Equal(t, 0, l.MaterialCount())
}

func TestNodeWithMeshAndCameraRejected(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0, "camera": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"cameras": [{"type": "perspective", "perspective": {"yfov": 1, "znear": 0.1}}],
		"accessors": [{"componentType": 5126, "count": 3, "type": "VEC3"}],
		"buffers": []
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.Error(t, err)
}

func TestMalformedAccessorCountFailsLoad(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	buf.Write(make([]byte, 64)) // zeroed mat4 slot for the bind matrix
	bin := buf.Bytes()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)

	template := `{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [{"mesh": 0, "skin": 0}, {"name": "joint"}],
		"skins": [{"joints": [1], "inverseBindMatrices": 1}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5126, "count": %s, "type": "MAT4"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 64}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`

	for _, count := range []string{"-1", "288230376151711745"} {
		eng := newFakeEngine()
		l := NewLoader(eng)

		_, err := l.CreateAssetFromJSON([]byte(fmt.Sprintf(template, count, uri, len(bin))))
		require.Error(t, err, "count %s", count)
		assert.Equal(t, 0, eng.liveObjectCount())
	}
}

func TestNoScenesBuildsOrphanRoots(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"nodes": [
			{"name": "root", "children": [1]},
			{"name": "leaf"},
			{"name": "stray"}
		]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	ents := a.Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, "root", ents[0].Name())
	assert.Equal(t, "leaf", ents[1].Name())
	assert.Equal(t, "stray", ents[2].Name())

	// Claimed children are reached through their parent, not promoted to roots.
	assert.Nil(t, ents[0].Parent())
	assert.Same(t, ents[0], ents[1].Parent())
	assert.Nil(t, ents[2].Parent())
}

func TestOverlappingAttributeSetsShareAccessorSlots(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}) // positions
	binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}) // normals
	bin := buf.Bytes()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)

	// Both primitives reference position accessor 0, but their attribute sets
	// differ, so they cannot share one vertex buffer outright.
	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [{"mesh": 0}, {"mesh": 1}],
		"meshes": [
			{"primitives": [{"attributes": {"POSITION": 0}}]},
			{"primitives": [{"attributes": {"POSITION": 0, "NORMAL": 1}}]}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 36}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, uri, len(bin)))

	eng := newFakeEngine()
	l := NewLoader(eng)

	a, err := l.CreateAssetFromJSON(doc)
	require.NoError(t, err)

	d0 := a.Entities()[0].Drawables()[0]
	d1 := a.Entities()[1].Drawables()[0]
	assert.NotSame(t, d0.VertexBuffer, d1.VertexBuffer)

	// The position accessor backs one allocation shared by both buffers.
	require.Len(t, eng.vertexBuffers, 2)
	assert.Same(t, eng.vertexBuffers[0].slots[0], eng.vertexBuffers[1].slots[0])
	assert.Len(t, eng.vertexBuffers[0].slots[0].data, 36)

	// The normal accessor got its own allocation with its own data.
	require.Len(t, eng.vertexBuffers[1].slots, 2)
	assert.NotSame(t, eng.vertexBuffers[1].slots[0], eng.vertexBuffers[1].slots[1])
	assert.Len(t, eng.vertexBuffers[1].slots[1].data, 36)
}

func TestExternalInterleavedAttributesRejected(t *testing.T) {
	// Three vec3 positions interleaved at a 20-byte stride in an external
	// buffer. Widening the range to tight-packed bytes would read the wrong
	// vertices, so the load must fail instead of deferring a corrupt range.
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 60, "byteStride": 20}],
		"buffers": [{"uri": "mesh.bin", "byteLength": 60}]
	}`)

	eng := newFakeEngine()
	l := NewLoader(eng)

	_, err := l.CreateAssetFromJSON(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, errExternalStridedView)
	assert.Equal(t, 0, eng.liveObjectCount())
}
