package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/asset"
	"github.com/lumen3d/assetio/engine/camera"
	"github.com/lumen3d/assetio/engine/light"
	"github.com/lumen3d/assetio/engine/material_cache"
)

// Builder errors
var (
	errExternalByteIndices = errors.New("uint8 indices in an external buffer are not supported")
	errExternalStridedView = errors.New("interleaved bufferView resides in an external buffer")
	errExternalImageView   = errors.New("image bufferView resides in an external buffer")
	errExternalBindPose    = errors.New("inverse bind matrices reside in an external buffer")
)

// textureKey dedups textures per source image and color space. The same image
// sampled both as color data and as non-color data (normal, metallic) needs
// two GPU textures since the formats differ.
type textureKey struct {
	image int
	srgb  bool
}

// instanceKey dedups material instances per source material and skinning
// variant. A negative material index is the default material.
type instanceKey struct {
	material int
	skinned  bool
}

// gltfBuilder walks a validated document and creates the engine objects for
// one asset bundle. All created objects are recorded so a failure part way
// through can tear down everything already created; on success the recorded
// lists transfer to the asset.
type gltfBuilder struct {
	eng    engine.Engine
	cache  material_cache.Cache
	parser gltfParser
	doc    *gltfDocument

	entities  []engine.Entity
	instances []engine.MaterialInstance
	vbuffers  []engine.VertexBuffer
	ibuffers  []engine.IndexBuffer
	textures  []engine.Texture

	vbufferByKey      map[string]engine.VertexBuffer
	slotByAccessor    map[int]engine.SharedSlot
	ibufferByAccessor map[int]engine.IndexBuffer
	textureByKey      map[textureKey]engine.Texture
	instanceByKey     map[instanceKey]engine.MaterialInstance
	skinByIndex       map[int]*engine.Skin
	entityByNode      map[int]engine.Entity

	bufferAccessors []asset.BufferAccessor
	pixelAccessors  []asset.PixelAccessor
	cameraSettings  *asset.CameraSettings
}

// newGLTFBuilder creates a builder over a parsed document.
func newGLTFBuilder(eng engine.Engine, cache material_cache.Cache, parser gltfParser) *gltfBuilder {
	return &gltfBuilder{
		eng:               eng,
		cache:             cache,
		parser:            parser,
		doc:               parser.Document(),
		vbufferByKey:      make(map[string]engine.VertexBuffer),
		slotByAccessor:    make(map[int]engine.SharedSlot),
		ibufferByAccessor: make(map[int]engine.IndexBuffer),
		textureByKey:      make(map[textureKey]engine.Texture),
		instanceByKey:     make(map[instanceKey]engine.MaterialInstance),
		skinByIndex:       make(map[int]*engine.Skin),
		entityByNode:      make(map[int]engine.Entity),
	}
}

// build creates all engine objects for the document's default scene. On error
// every object created so far is destroyed and the error returned; the engine
// is left exactly as it was before the call.
func (b *gltfBuilder) build() error {
	if err := b.buildScene(); err != nil {
		b.teardown()
		return err
	}
	return nil
}

// buildScene runs the two traversal passes: the first creates an entity with
// its transform and parent link for every node reachable from the scene
// roots, the second attaches drawables, lights, and camera settings. Two
// passes are needed because skins may reference joint nodes anywhere in the
// hierarchy, including ones not yet visited.
func (b *gltfBuilder) buildScene() error {
	roots := b.sceneRoots()

	var order []int
	for _, root := range roots {
		if err := b.createNodeEntities(root, nil, &order); err != nil {
			return err
		}
	}

	for _, nodeIndex := range order {
		if err := b.populateNode(nodeIndex); err != nil {
			return err
		}
	}

	return nil
}

// sceneRoots returns the root node indices of the scene to build: the default
// scene when declared, otherwise the first scene, otherwise every node no
// other node claims as a child.
func (b *gltfBuilder) sceneRoots() []int {
	if b.doc.Scene != nil {
		return b.doc.Scenes[*b.doc.Scene].Nodes
	}
	if len(b.doc.Scenes) > 0 {
		return b.doc.Scenes[0].Nodes
	}

	claimed := make([]bool, len(b.doc.Nodes))
	for i := range b.doc.Nodes {
		for _, child := range b.doc.Nodes[i].Children {
			claimed[child] = true
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !claimed[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// createNodeEntities recursively creates entities for a node subtree.
func (b *gltfBuilder) createNodeEntities(nodeIndex int, parent engine.Entity, order *[]int) error {
	if _, visited := b.entityByNode[nodeIndex]; visited {
		return fmt.Errorf("node %d appears more than once in the scene hierarchy", nodeIndex)
	}

	node := &b.doc.Nodes[nodeIndex]
	name := node.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", nodeIndex)
	}

	ent := b.eng.CreateEntity(name)
	ent.SetTransform(nodeTransform(node))
	if parent != nil {
		ent.SetParent(parent)
	}

	b.entities = append(b.entities, ent)
	b.entityByNode[nodeIndex] = ent
	*order = append(*order, nodeIndex)

	for _, child := range node.Children {
		if err := b.createNodeEntities(child, ent, order); err != nil {
			return err
		}
	}

	return nil
}

// ensureNodeEntity returns the entity for a node, creating a detached one when
// the node is not part of the scene hierarchy. Skins are allowed to reference
// joint nodes outside the rendered scene.
func (b *gltfBuilder) ensureNodeEntity(nodeIndex int) engine.Entity {
	if ent, ok := b.entityByNode[nodeIndex]; ok {
		return ent
	}

	node := &b.doc.Nodes[nodeIndex]
	name := node.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", nodeIndex)
	}

	ent := b.eng.CreateEntity(name)
	ent.SetTransform(nodeTransform(node))

	b.entities = append(b.entities, ent)
	b.entityByNode[nodeIndex] = ent
	return ent
}

// populateNode attaches the node's mesh drawables, light, and camera settings
// to its entity.
func (b *gltfBuilder) populateNode(nodeIndex int) error {
	node := &b.doc.Nodes[nodeIndex]
	ent := b.entityByNode[nodeIndex]

	if node.Mesh != nil {
		var skin *engine.Skin
		if node.Skin != nil {
			built, err := b.buildSkin(*node.Skin)
			if err != nil {
				return fmt.Errorf("node %d: %w", nodeIndex, err)
			}
			skin = built
		}

		mesh := &b.doc.Meshes[*node.Mesh]
		for j := range mesh.Primitives {
			drawable, err := b.buildPrimitive(*node.Mesh, j, skin)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *node.Mesh, j, err)
			}
			ent.AttachDrawable(drawable)
		}
	}

	if node.Extensions != nil && node.Extensions.KHRLightsPunctual != nil {
		ent.SetLight(b.buildLight(node.Extensions.KHRLightsPunctual.Light))
	}

	if node.Camera != nil && b.cameraSettings == nil {
		b.cameraSettings = cameraSettings(&b.doc.Cameras[*node.Camera])
	}

	return nil
}

// nodeTransform computes a node's local transform. A matrix wins over TRS
// when both are present; glTF stores matrices column-major, matching mgl32.
func nodeTransform(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		var m mgl32.Mat4
		copy(m[:], node.Matrix[:])
		return m
	}

	transform := mgl32.Ident4()
	if node.Translation != nil {
		t := node.Translation
		transform = transform.Mul4(mgl32.Translate3D(t[0], t[1], t[2]))
	}
	if node.Rotation != nil {
		r := node.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		transform = transform.Mul4(q.Normalize().Mat4())
	}
	if node.Scale != nil {
		s := node.Scale
		transform = transform.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return transform
}

// buildPrimitive creates or reuses the vertex buffer, index buffer, and
// material instance for one primitive.
func (b *gltfBuilder) buildPrimitive(meshIndex, primIndex int, skin *engine.Skin) (engine.Drawable, error) {
	prim := &b.doc.Meshes[meshIndex].Primitives[primIndex]

	vb, err := b.buildVertexBuffer(meshIndex, primIndex, prim)
	if err != nil {
		return engine.Drawable{}, err
	}

	var ib engine.IndexBuffer
	if prim.Indices != nil {
		ib, err = b.buildIndexBuffer(*prim.Indices)
		if err != nil {
			return engine.Drawable{}, err
		}
	}

	materialIndex := -1
	if prim.Material != nil {
		materialIndex = *prim.Material
	}
	inst, err := b.buildMaterialInstance(materialIndex, skin != nil)
	if err != nil {
		return engine.Drawable{}, err
	}

	return engine.Drawable{
		VertexBuffer:     vb,
		IndexBuffer:      ib,
		MaterialInstance: inst,
		Skin:             skin,
	}, nil
}

// buildVertexBuffer creates a vertex buffer for the primitive's attribute set,
// or reuses the one already created for an identical set. Slots whose accessor
// already backs a slot of an earlier buffer share that slot's GPU allocation,
// so one accessor never allocates twice even across differing attribute sets.
// Embedded attribute data is pushed immediately; external ranges are recorded
// as deferred buffer accessors.
func (b *gltfBuilder) buildVertexBuffer(meshIndex, primIndex int, prim *gltfPrimitive) (engine.VertexBuffer, error) {
	bindings := primitiveAttributes(prim)
	key := vertexBufferKey(bindings)
	if vb, ok := b.vbufferByKey[key]; ok {
		return vb, nil
	}

	vertexCount := b.doc.Accessors[prim.Attributes["POSITION"]].Count

	layouts := make([]engine.VertexAttributeLayout, len(bindings))
	shared := make(map[int]engine.SharedSlot)
	for i, binding := range bindings {
		acc := &b.doc.Accessors[binding.accessor]
		if acc.Count != vertexCount {
			return nil, fmt.Errorf("attribute %s has %d elements, POSITION has %d", binding.name, acc.Count, vertexCount)
		}
		format, err := vertexFormatFor(acc)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", binding.name, err)
		}
		layouts[i] = engine.VertexAttributeLayout{
			Semantic:   binding.semantic,
			Format:     format,
			ByteLength: acc.Count * accessorElementSize(acc),
		}
		if src, ok := b.slotByAccessor[binding.accessor]; ok {
			shared[i] = src
		}
	}

	vb, err := b.eng.CreateVertexBuffer(engine.VertexBufferDescriptor{
		Label:       fmt.Sprintf("mesh_%d_prim_%d_vertices", meshIndex, primIndex),
		VertexCount: vertexCount,
		Attributes:  layouts,
		SharedSlots: shared,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	b.vbuffers = append(b.vbuffers, vb)
	b.vbufferByKey[key] = vb

	for slot, binding := range bindings {
		if _, ok := shared[slot]; ok {
			// The owning slot already pushed or deferred this accessor's data.
			continue
		}
		b.slotByAccessor[binding.accessor] = engine.SharedSlot{Buffer: vb, Slot: slot}

		acc := &b.doc.Accessors[binding.accessor]
		if acc.BufferView == nil {
			continue
		}
		bv := &b.doc.BufferViews[*acc.BufferView]

		if b.parser.BufferEmbedded(bv.Buffer) {
			data, err := b.parser.ReadAccessorBytes(binding.accessor)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", binding.name, err)
			}
			if err := vb.SetBufferAt(slot, data); err != nil {
				return nil, fmt.Errorf("attribute %s: %w", binding.name, err)
			}
			continue
		}

		if bv.ByteStride != nil && *bv.ByteStride > 0 && *bv.ByteStride != accessorElementSize(acc) {
			return nil, fmt.Errorf("attribute %s: %w", binding.name, errExternalStridedView)
		}

		offset, size := accessorByteRange(b.doc, acc)
		b.bufferAccessors = append(b.bufferAccessors, asset.BufferAccessor{
			URI:             b.doc.Buffers[bv.Buffer].URI,
			VertexBuffer:    vb,
			Slot:            slot,
			BufferViewIndex: *acc.BufferView,
			ByteOffset:      uint32(offset),
			ByteSize:        uint32(size),
		})
	}

	return vb, nil
}

// buildIndexBuffer creates an index buffer for an index accessor, or reuses
// the one already created for it. Byte indices are widened to uint16; widening
// requires the data in memory, so byte indices in external buffers fail.
func (b *gltfBuilder) buildIndexBuffer(accessorIndex int) (engine.IndexBuffer, error) {
	if ib, ok := b.ibufferByAccessor[accessorIndex]; ok {
		return ib, nil
	}

	acc := &b.doc.Accessors[accessorIndex]
	format, err := indexFormatFor(acc)
	if err != nil {
		return nil, err
	}

	ib, err := b.eng.CreateIndexBuffer(engine.IndexBufferDescriptor{
		Label:      fmt.Sprintf("indices_%d", accessorIndex),
		IndexCount: acc.Count,
		Format:     format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer: %w", err)
	}
	b.ibuffers = append(b.ibuffers, ib)
	b.ibufferByAccessor[accessorIndex] = ib

	if acc.BufferView == nil {
		return ib, nil
	}
	bv := &b.doc.BufferViews[*acc.BufferView]

	if b.parser.BufferEmbedded(bv.Buffer) {
		data, err := b.parser.ReadAccessorBytes(accessorIndex)
		if err != nil {
			return nil, err
		}
		if acc.ComponentType == gltfComponentTypeUnsignedByte {
			data = widenByteIndices(data)
		}
		if err := ib.SetBuffer(data); err != nil {
			return nil, err
		}
		return ib, nil
	}

	if acc.ComponentType == gltfComponentTypeUnsignedByte {
		return nil, errExternalByteIndices
	}
	if bv.ByteStride != nil && *bv.ByteStride > 0 && *bv.ByteStride != accessorElementSize(acc) {
		return nil, errExternalStridedView
	}

	offset, size := accessorByteRange(b.doc, acc)
	b.bufferAccessors = append(b.bufferAccessors, asset.BufferAccessor{
		URI:             b.doc.Buffers[bv.Buffer].URI,
		IndexBuffer:     ib,
		BufferViewIndex: *acc.BufferView,
		ByteOffset:      uint32(offset),
		ByteSize:        uint32(size),
	})

	return ib, nil
}

// buildMaterialInstance creates a material instance for a document material,
// or reuses the one already created for the same material and skinning
// variant. The template comes from the shared cache; only the instance belongs
// to this bundle.
func (b *gltfBuilder) buildMaterialInstance(materialIndex int, skinned bool) (engine.MaterialInstance, error) {
	key := instanceKey{material: materialIndex, skinned: skinned}
	if inst, ok := b.instanceByKey[key]; ok {
		return inst, nil
	}

	sig := materialSignature(b.doc, materialIndex, skinned)
	template, err := b.cache.GetOrCreate(sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get material template: %w", err)
	}

	inst, err := template.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("failed to create material instance: %w", err)
	}
	b.instances = append(b.instances, inst)
	b.instanceByKey[key] = inst

	if err := b.applyMaterialParameters(inst, materialIndex, sig); err != nil {
		return nil, err
	}

	return inst, nil
}

// applyMaterialParameters sets the instance's factor parameters and binds its
// textures. Defaults follow the glTF material spec.
func (b *gltfBuilder) applyMaterialParameters(inst engine.MaterialInstance, materialIndex int, sig material_cache.Signature) error {
	inst.SetColorParameter("baseColorFactor", [4]float32{1, 1, 1, 1})
	inst.SetFloatParameter("metallicFactor", 1)
	inst.SetFloatParameter("roughnessFactor", 1)
	inst.SetColorParameter("emissiveFactor", [4]float32{0, 0, 0, 1})

	if materialIndex < 0 {
		return nil
	}
	mat := &b.doc.Materials[materialIndex]

	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			inst.SetColorParameter("baseColorFactor", *pbr.BaseColorFactor)
		}
		if pbr.MetallicFactor != nil {
			inst.SetFloatParameter("metallicFactor", *pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			inst.SetFloatParameter("roughnessFactor", *pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			if err := b.bindTexture(inst, material_cache.SlotBaseColor, pbr.BaseColorTexture.Index, true); err != nil {
				return err
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if err := b.bindTexture(inst, material_cache.SlotMetallicRoughness, pbr.MetallicRoughnessTexture.Index, false); err != nil {
				return err
			}
		}
	}

	if mat.EmissiveFactor != nil {
		e := mat.EmissiveFactor
		inst.SetColorParameter("emissiveFactor", [4]float32{e[0], e[1], e[2], 1})
	}

	if sig.AlphaMode == engine.AlphaMask {
		cutoff := float32(0.5)
		if mat.AlphaCutoff != nil {
			cutoff = *mat.AlphaCutoff
		}
		inst.SetFloatParameter("alphaCutoff", cutoff)
	}

	if mat.NormalTexture != nil {
		inst.SetFloatParameter("normalScale", 1)
		if mat.NormalTexture.Scale != nil {
			inst.SetFloatParameter("normalScale", *mat.NormalTexture.Scale)
		}
		if err := b.bindTexture(inst, material_cache.SlotNormal, mat.NormalTexture.Index, false); err != nil {
			return err
		}
	}

	if mat.OcclusionTexture != nil {
		inst.SetFloatParameter("occlusionStrength", 1)
		if mat.OcclusionTexture.Strength != nil {
			inst.SetFloatParameter("occlusionStrength", *mat.OcclusionTexture.Strength)
		}
		if err := b.bindTexture(inst, material_cache.SlotOcclusion, mat.OcclusionTexture.Index, false); err != nil {
			return err
		}
	}

	if mat.EmissiveTexture != nil {
		if err := b.bindTexture(inst, material_cache.SlotEmissive, mat.EmissiveTexture.Index, true); err != nil {
			return err
		}
	}

	return nil
}

// bindTexture resolves a document texture to a GPU texture and binds it to an
// instance slot with its sampler configuration.
func (b *gltfBuilder) bindTexture(inst engine.MaterialInstance, slot string, textureIndex int, srgb bool) error {
	docTexture := &b.doc.Textures[textureIndex]
	if docTexture.Source == nil {
		return fmt.Errorf("texture %d has no image source", textureIndex)
	}

	tex, err := b.buildTexture(*docTexture.Source, srgb)
	if err != nil {
		return err
	}

	sampler := samplerStaging(b.doc, docTexture.Sampler)
	if err := inst.SetTextureParameter(slot, tex, sampler); err != nil {
		return fmt.Errorf("texture slot %s: %w", slot, err)
	}
	return nil
}

// buildTexture creates a GPU texture for an image, or reuses the one already
// created for the same image and color space. Embedded image bytes are probed
// for dimensions so the texture can be sized now; external images get a
// zero-sized texture the engine allocates on first pixel push. Decoding is
// never done here; the pixel accessor carries the undecoded bytes or URI.
func (b *gltfBuilder) buildTexture(imageIndex int, srgb bool) (engine.Texture, error) {
	key := textureKey{image: imageIndex, srgb: srgb}
	if tex, ok := b.textureByKey[key]; ok {
		return tex, nil
	}

	img := &b.doc.Images[imageIndex]

	data, mimeType, uri, err := b.imageSource(img)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", imageIndex, err)
	}

	var width, height uint32
	if data != nil {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("image %d: failed to probe dimensions: %w", imageIndex, err)
		}
		width = uint32(cfg.Width)
		height = uint32(cfg.Height)
	}

	tex, err := b.eng.CreateTexture(engine.TextureDescriptor{
		Label:     fmt.Sprintf("image_%d", imageIndex),
		Width:     width,
		Height:    height,
		MipLevels: 1,
		SRGB:      srgb,
	})
	if err != nil {
		return nil, fmt.Errorf("image %d: failed to create texture: %w", imageIndex, err)
	}
	b.textures = append(b.textures, tex)
	b.textureByKey[key] = tex

	b.pixelAccessors = append(b.pixelAccessors, asset.PixelAccessor{
		URI:      uri,
		Data:     data,
		MimeType: mimeType,
		Texture:  tex,
		Width:    width,
		Height:   height,
	})

	return tex, nil
}

// imageSource resolves where an image's bytes come from: embedded bytes with
// a MIME hint, or an external URI left for the caller.
func (b *gltfBuilder) imageSource(img *gltfImage) (data []byte, mimeType, uri string, err error) {
	if img.BufferView != nil {
		bv := &b.doc.BufferViews[*img.BufferView]
		if !b.parser.BufferEmbedded(bv.Buffer) {
			return nil, "", "", errExternalImageView
		}
		buf := &b.doc.Buffers[bv.Buffer]
		if bv.ByteOffset+bv.ByteLength > len(buf.Data) {
			return nil, "", "", errors.New("image bufferView exceeds buffer bounds")
		}
		return buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], img.MimeType, "", nil
	}

	if len(img.URI) >= 5 && img.URI[:5] == "data:" {
		decoded, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, "", "", err
		}
		mime := img.MimeType
		if mime == "" {
			mime = dataURIMimeType(img.URI)
		}
		return decoded, mime, "", nil
	}

	return nil, img.MimeType, img.URI, nil
}

// buildSkin resolves a document skin to entity joints paired with their
// inverse bind matrices. Matrices are needed at build time, so a bind pose in
// an external buffer fails the load.
func (b *gltfBuilder) buildSkin(skinIndex int) (*engine.Skin, error) {
	if skin, ok := b.skinByIndex[skinIndex]; ok {
		return skin, nil
	}

	docSkin := &b.doc.Skins[skinIndex]

	matrices := make([]mgl32.Mat4, len(docSkin.Joints))
	for i := range matrices {
		matrices[i] = mgl32.Ident4()
	}
	if docSkin.InverseBindMatrices != nil {
		acc := &b.doc.Accessors[*docSkin.InverseBindMatrices]
		if acc.BufferView != nil && !b.parser.BufferEmbedded(b.doc.BufferViews[*acc.BufferView].Buffer) {
			return nil, fmt.Errorf("skin %d: %w", skinIndex, errExternalBindPose)
		}
		read, err := b.parser.ReadMat4Accessor(*docSkin.InverseBindMatrices)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", skinIndex, err)
		}
		if len(read) < len(docSkin.Joints) {
			return nil, fmt.Errorf("skin %d has %d joints but %d inverse bind matrices", skinIndex, len(docSkin.Joints), len(read))
		}
		matrices = read
	}

	joints := make([]engine.Joint, len(docSkin.Joints))
	for i, nodeIndex := range docSkin.Joints {
		joints[i] = engine.Joint{
			Entity:            b.ensureNodeEntity(nodeIndex),
			InverseBindMatrix: matrices[i],
		}
	}

	skin := &engine.Skin{Joints: joints}
	b.skinByIndex[skinIndex] = skin
	return skin, nil
}

// buildLight converts a punctual light definition into a light object.
func (b *gltfBuilder) buildLight(lightIndex int) light.Light {
	def := &b.doc.Extensions.KHRLightsPunctual.Lights[lightIndex]

	var lightType light.LightType
	switch def.Type {
	case gltfLightTypePoint:
		lightType = light.LightTypePoint
	case gltfLightTypeSpot:
		lightType = light.LightTypeSpot
	default:
		lightType = light.LightTypeDirectional
	}

	opts := []light.LightBuilderOption{}
	if def.Color != nil {
		opts = append(opts, light.WithColor(def.Color[0], def.Color[1], def.Color[2]))
	}
	if def.Intensity != nil {
		opts = append(opts, light.WithIntensity(*def.Intensity))
	}
	if def.Range != nil {
		opts = append(opts, light.WithRange(*def.Range))
	}
	if lightType == light.LightTypeSpot {
		inner := float32(0)
		outer := float32(math.Pi / 4)
		if def.Spot != nil {
			if def.Spot.InnerConeAngle != nil {
				inner = *def.Spot.InnerConeAngle
			}
			if def.Spot.OuterConeAngle != nil {
				outer = *def.Spot.OuterConeAngle
			}
		}
		opts = append(opts, light.WithSpotCone(inner, outer))
	}

	return light.NewLight(lightType, opts...)
}

// cameraSettings converts a document camera into the projection record carried
// by the asset. Validation already guaranteed the parameter block matches the
// declared type.
func cameraSettings(cam *gltfCamera) *asset.CameraSettings {
	if cam.Type == gltfCameraTypeOrthographic {
		o := cam.Orthographic
		return &asset.CameraSettings{
			Projection: camera.ProjectionOrthographic,
			XMag:       o.Xmag,
			YMag:       o.Ymag,
			Near:       o.Znear,
			Far:        o.Zfar,
		}
	}

	p := cam.Perspective
	settings := &asset.CameraSettings{
		Projection: camera.ProjectionPerspective,
		Fov:        p.Yfov,
		Near:       p.Znear,
	}
	if p.AspectRatio != nil {
		settings.Aspect = *p.AspectRatio
	}
	if p.Zfar != nil {
		settings.Far = *p.Zfar
	}
	return settings
}

// teardown destroys every engine object this builder created, in reverse
// dependency order: instances before the buffers and textures they bind,
// entities last.
func (b *gltfBuilder) teardown() {
	for _, inst := range b.instances {
		inst.Release()
	}
	for _, vb := range b.vbuffers {
		vb.Release()
	}
	for _, ib := range b.ibuffers {
		ib.Release()
	}
	for _, tex := range b.textures {
		tex.Release()
	}
	for _, ent := range b.entities {
		b.eng.DestroyEntity(ent)
	}
}
