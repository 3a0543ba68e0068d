package loader

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	errSparseAccessor    = errors.New("sparse accessors are not supported")
	errMorphTargets      = errors.New("morph targets are not supported")
	errNodeMeshAndCamera = errors.New("node references both a mesh and a camera")
)

// supportedExtensions are the extensions the loader understands. A document
// listing anything else in extensionsRequired is rejected; unknown entries in
// extensionsUsed are ignored per the glTF spec.
var supportedExtensions = map[string]bool{
	"KHR_lights_punctual": true,
	"KHR_materials_unlit": true,
}

// validateDocument checks every cross-reference in the document against the
// bounds of the arrays it points into, and rejects features the pipeline does
// not support. Running this up front means the build phase can index freely
// without re-checking, and a malformed document fails before any GPU object
// is created.
func validateDocument(doc *gltfDocument) error {
	for _, ext := range doc.ExtensionsRequired {
		if !supportedExtensions[ext] {
			return fmt.Errorf("required extension %q is not supported", ext)
		}
	}

	if doc.Scene != nil && (*doc.Scene < 0 || *doc.Scene >= len(doc.Scenes)) {
		return fmt.Errorf("scene index %d out of range", *doc.Scene)
	}

	for i, scene := range doc.Scenes {
		for _, n := range scene.Nodes {
			if n < 0 || n >= len(doc.Nodes) {
				return fmt.Errorf("scene %d: root node index %d out of range", i, n)
			}
		}
	}

	lightCount := 0
	if doc.Extensions != nil && doc.Extensions.KHRLightsPunctual != nil {
		lightCount = len(doc.Extensions.KHRLightsPunctual.Lights)
	}

	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		for _, c := range node.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, c)
			}
		}
		if node.Mesh != nil && (*node.Mesh < 0 || *node.Mesh >= len(doc.Meshes)) {
			return fmt.Errorf("node %d: mesh index %d out of range", i, *node.Mesh)
		}
		if node.Skin != nil && (*node.Skin < 0 || *node.Skin >= len(doc.Skins)) {
			return fmt.Errorf("node %d: skin index %d out of range", i, *node.Skin)
		}
		if node.Camera != nil && (*node.Camera < 0 || *node.Camera >= len(doc.Cameras)) {
			return fmt.Errorf("node %d: camera index %d out of range", i, *node.Camera)
		}
		if node.Mesh != nil && node.Camera != nil {
			return fmt.Errorf("node %d: %w", i, errNodeMeshAndCamera)
		}
		if node.Extensions != nil && node.Extensions.KHRLightsPunctual != nil {
			l := node.Extensions.KHRLightsPunctual.Light
			if l < 0 || l >= lightCount {
				return fmt.Errorf("node %d: light index %d out of range", i, l)
			}
		}
	}

	for i := range doc.Meshes {
		mesh := &doc.Meshes[i]
		if len(mesh.Primitives) == 0 {
			return fmt.Errorf("mesh %d has no primitives", i)
		}
		for j := range mesh.Primitives {
			prim := &mesh.Primitives[j]
			if len(prim.Targets) > 0 {
				return fmt.Errorf("mesh %d primitive %d: %w", i, j, errMorphTargets)
			}
			if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
				return fmt.Errorf("mesh %d primitive %d: unsupported mode %d", i, j, *prim.Mode)
			}
			if _, ok := prim.Attributes["POSITION"]; !ok {
				return fmt.Errorf("mesh %d primitive %d has no POSITION attribute", i, j)
			}
			for semantic, accessor := range prim.Attributes {
				if accessor < 0 || accessor >= len(doc.Accessors) {
					return fmt.Errorf("mesh %d primitive %d: accessor index %d for %s out of range", i, j, accessor, semantic)
				}
			}
			if prim.Indices != nil && (*prim.Indices < 0 || *prim.Indices >= len(doc.Accessors)) {
				return fmt.Errorf("mesh %d primitive %d: index accessor %d out of range", i, j, *prim.Indices)
			}
			if prim.Material != nil && (*prim.Material < 0 || *prim.Material >= len(doc.Materials)) {
				return fmt.Errorf("mesh %d primitive %d: material index %d out of range", i, j, *prim.Material)
			}
		}
	}

	for i := range doc.Buffers {
		if doc.Buffers[i].ByteLength < 0 {
			return fmt.Errorf("buffer %d has negative byteLength %d", i, doc.Buffers[i].ByteLength)
		}
	}

	for i := range doc.BufferViews {
		bv := &doc.BufferViews[i]
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return fmt.Errorf("bufferView %d: buffer index %d out of range", i, bv.Buffer)
		}
		if bv.ByteOffset < 0 || bv.ByteLength < 0 {
			return fmt.Errorf("bufferView %d has a negative byte range", i)
		}
		if bv.ByteStride != nil && *bv.ByteStride < 0 {
			return fmt.Errorf("bufferView %d has negative byteStride %d", i, *bv.ByteStride)
		}
		buf := &doc.Buffers[bv.Buffer]
		// Subtraction keeps the comparison overflow-safe for absurd values.
		if bv.ByteOffset > buf.ByteLength-bv.ByteLength {
			return fmt.Errorf("bufferView %d exceeds buffer %d length", i, bv.Buffer)
		}
	}

	for i := range doc.Accessors {
		acc := &doc.Accessors[i]
		if acc.Sparse != nil {
			return fmt.Errorf("accessor %d: %w", i, errSparseAccessor)
		}
		if acc.BufferView != nil && (*acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews)) {
			return fmt.Errorf("accessor %d: bufferView index %d out of range", i, *acc.BufferView)
		}
		if acc.Count <= 0 {
			return fmt.Errorf("accessor %d has invalid count %d", i, acc.Count)
		}
		if acc.ByteOffset < 0 {
			return fmt.Errorf("accessor %d has negative byteOffset %d", i, acc.ByteOffset)
		}
		if err := validateAccessorFit(doc, i); err != nil {
			return err
		}
	}

	for i := range doc.Textures {
		tex := &doc.Textures[i]
		if tex.Source != nil && (*tex.Source < 0 || *tex.Source >= len(doc.Images)) {
			return fmt.Errorf("texture %d: image index %d out of range", i, *tex.Source)
		}
		if tex.Sampler != nil && (*tex.Sampler < 0 || *tex.Sampler >= len(doc.Samplers)) {
			return fmt.Errorf("texture %d: sampler index %d out of range", i, *tex.Sampler)
		}
	}

	for i := range doc.Images {
		img := &doc.Images[i]
		if img.BufferView != nil && (*img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews)) {
			return fmt.Errorf("image %d: bufferView index %d out of range", i, *img.BufferView)
		}
		if img.URI == "" && img.BufferView == nil {
			return fmt.Errorf("image %d has neither a URI nor a bufferView", i)
		}
	}

	for i := range doc.Materials {
		if err := validateMaterial(doc, i); err != nil {
			return err
		}
	}

	for i := range doc.Skins {
		skin := &doc.Skins[i]
		if len(skin.Joints) == 0 {
			return fmt.Errorf("skin %d has no joints", i)
		}
		for _, joint := range skin.Joints {
			if joint < 0 || joint >= len(doc.Nodes) {
				return fmt.Errorf("skin %d: joint node index %d out of range", i, joint)
			}
		}
		if skin.InverseBindMatrices != nil && (*skin.InverseBindMatrices < 0 || *skin.InverseBindMatrices >= len(doc.Accessors)) {
			return fmt.Errorf("skin %d: inverseBindMatrices accessor %d out of range", i, *skin.InverseBindMatrices)
		}
		if skin.Skeleton != nil && (*skin.Skeleton < 0 || *skin.Skeleton >= len(doc.Nodes)) {
			return fmt.Errorf("skin %d: skeleton node index %d out of range", i, *skin.Skeleton)
		}
	}

	for i := range doc.Cameras {
		cam := &doc.Cameras[i]
		switch cam.Type {
		case gltfCameraTypePerspective:
			if cam.Perspective == nil {
				return fmt.Errorf("camera %d is perspective but has no perspective parameters", i)
			}
		case gltfCameraTypeOrthographic:
			if cam.Orthographic == nil {
				return fmt.Errorf("camera %d is orthographic but has no orthographic parameters", i)
			}
		default:
			return fmt.Errorf("camera %d has unknown type %q", i, cam.Type)
		}
	}

	return nil
}

// validateAccessorFit checks that an accessor's elements lie inside its
// bufferView. The arithmetic is ordered so a huge count cannot overflow: the
// element count that fits is derived from the view's length by division and
// the declared count compared against it.
func validateAccessorFit(doc *gltfDocument, index int) error {
	acc := &doc.Accessors[index]
	if acc.BufferView == nil {
		return nil
	}

	elementSize := accessorElementSize(acc)
	if elementSize == 0 {
		// Unknown type or componentType; the build step reports these with a
		// format error.
		return nil
	}

	bv := &doc.BufferViews[*acc.BufferView]
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	avail := bv.ByteLength - acc.ByteOffset - elementSize
	if avail < 0 || acc.Count-1 > avail/stride {
		return fmt.Errorf("accessor %d exceeds bufferView %d bounds", index, *acc.BufferView)
	}
	return nil
}

// validateMaterial bounds-checks every texture reference of one material.
func validateMaterial(doc *gltfDocument, index int) error {
	mat := &doc.Materials[index]

	checkTexture := func(info *gltfTextureInfo, slot string) error {
		if info == nil {
			return nil
		}
		if info.Index < 0 || info.Index >= len(doc.Textures) {
			return fmt.Errorf("material %d: %s index %d out of range", index, slot, info.Index)
		}
		if info.TexCoord != 0 {
			return fmt.Errorf("material %d: %s uses TEXCOORD_%d, only set 0 is supported", index, slot, info.TexCoord)
		}
		return nil
	}

	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		if err := checkTexture(pbr.BaseColorTexture, "baseColorTexture"); err != nil {
			return err
		}
		if err := checkTexture(pbr.MetallicRoughnessTexture, "metallicRoughnessTexture"); err != nil {
			return err
		}
	}
	if mat.NormalTexture != nil {
		if err := checkTexture(&mat.NormalTexture.gltfTextureInfo, "normalTexture"); err != nil {
			return err
		}
	}
	if mat.OcclusionTexture != nil {
		if err := checkTexture(&mat.OcclusionTexture.gltfTextureInfo, "occlusionTexture"); err != nil {
			return err
		}
	}
	if err := checkTexture(mat.EmissiveTexture, "emissiveTexture"); err != nil {
		return err
	}

	if mat.AlphaMode != "" {
		switch mat.AlphaMode {
		case gltfAlphaModeOpaque, gltfAlphaModeMask, gltfAlphaModeBlend:
		default:
			return fmt.Errorf("material %d has unknown alphaMode %q", index, mat.AlphaMode)
		}
	}

	return nil
}
