package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lumen3d/assetio/common"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errDuplicateJSONChunk = errors.New("GLB file has multiple JSON chunks")
	errTruncatedGLB       = errors.New("GLB file truncated")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser defines the interface for parsing in-memory glTF/GLB content.
// It handles JSON deserialization, GLB chunk extraction, data URI decoding,
// structural validation, and typed accessor reads. External URIs are left
// unresolved; their byte ranges surface as deferred accessors on the asset.
// This is internal to the loader package.
type gltfParser interface {
	// ParseJSON parses a glTF document from JSON text.
	//
	// Parameters:
	//   - data: raw JSON content of a .gltf file
	//
	// Returns:
	//   - error: error if parsing or validation fails
	ParseJSON(data []byte) error

	// ParseBinary parses a glTF document from a GLB container.
	//
	// Parameters:
	//   - data: raw content of a .glb file
	//
	// Returns:
	//   - error: error if parsing or validation fails
	ParseBinary(data []byte) error

	// Document returns the parsed glTF document.
	// Returns nil if no parse has succeeded.
	//
	// Returns:
	//   - *gltfDocument: the parsed document or nil
	Document() *gltfDocument

	// BufferEmbedded reports whether a buffer's bytes were resolved during
	// parsing (GLB binary chunk or data: URI). Buffers backed by external
	// URIs return false.
	//
	// Parameters:
	//   - bufferIndex: the index of the buffer
	//
	// Returns:
	//   - bool: true if the buffer's data is available in memory
	BufferEmbedded(bufferIndex int) bool

	// ReadAccessorBytes reads an accessor's elements as tightly packed bytes,
	// collapsing any interleaving stride in the underlying bufferView.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []byte: the packed element data
	//   - error: error if the backing buffer is not embedded or bounds fail
	ReadAccessorBytes(accessorIndex int) ([]byte, error)

	// ReadMat4Accessor reads an accessor as column-major mat4 float data.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []mgl32.Mat4: the matrix data
	//   - error: error if the accessor is not MAT4 FLOAT or reading fails
	ReadMat4Accessor(accessorIndex int) ([]mgl32.Mat4, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) ParseJSON(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := validateDocument(&doc); err != nil {
		return fmt.Errorf("invalid glTF document: %w", err)
	}

	if err := p.resolveBuffers(&doc); err != nil {
		return fmt.Errorf("failed to resolve buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// ParseBinary parses a GLB container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) ParseBinary(data []byte) error {
	if len(data) < gltfGLBHeaderLen {
		return errTruncatedGLB
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint32(data[4:8])
	length := binary.LittleEndian.Uint32(data[8:12])

	if magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if version != gltfGLBVersion {
		return errInvalidGLBVersion
	}
	if int(length) > len(data) {
		return errTruncatedGLB
	}

	var jsonData []byte
	var binData []byte

	offset := gltfGLBHeaderLen
	for offset < int(length) {
		if offset+gltfGLBChunkLen > int(length) {
			return errTruncatedGLB
		}
		chunkLength := binary.LittleEndian.Uint32(data[offset : offset+4])
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += gltfGLBChunkLen

		if offset+int(chunkLength) > int(length) {
			return errTruncatedGLB
		}
		chunkData := data[offset : offset+int(chunkLength)]
		offset += int(chunkLength)

		switch chunkType {
		case gltfGLBChunkJSON:
			if jsonData != nil {
				return errDuplicateJSONChunk
			}
			jsonData = chunkData
		case gltfGLBChunkBIN:
			if binData == nil {
				binData = chunkData
			}
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}

	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := validateDocument(&doc); err != nil {
		return fmt.Errorf("invalid glTF document: %w", err)
	}

	if err := p.resolveBuffers(&doc); err != nil {
		return fmt.Errorf("failed to resolve buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// resolveBuffers fills in buffer data that is available without file or
// network access: the GLB binary chunk and base64 data: URIs. External URIs
// keep Data nil; their ranges are handed back to the caller as deferred
// accessors instead of being fetched here.
func (p *gltfParserImpl) resolveBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && p.glbBinaryChunk != nil {
				buf.Data = p.glbBinaryChunk
				if len(buf.Data) < buf.ByteLength {
					return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
				}
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		if !strings.HasPrefix(buf.URI, "data:") {
			continue
		}

		data, err := decodeDataURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.Data = data

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}

	return nil
}

// decodeDataURI decodes a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	data, err := common.DecodeDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBufferURI, err)
	}
	return data, nil
}

// dataURIMimeType extracts the media type from a data URI header, or returns
// an empty string when none is declared.
func dataURIMimeType(uri string) string {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return ""
	}
	header := uri[5:commaIdx]
	if semiIdx := strings.Index(header, ";"); semiIdx >= 0 {
		header = header[:semiIdx]
	}
	return header
}

// --- Accessor Data Reading ---

func (p *gltfParserImpl) BufferEmbedded(bufferIndex int) bool {
	if p.document == nil || bufferIndex < 0 || bufferIndex >= len(p.document.Buffers) {
		return false
	}
	return p.document.Buffers[bufferIndex].Data != nil
}

func (p *gltfParserImpl) ReadAccessorBytes(accessorIndex int) ([]byte, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &p.document.Accessors[accessorIndex]

	if acc.BufferView == nil {
		return nil, errors.New("accessor has no bufferView")
	}

	bv := &p.document.BufferViews[*acc.BufferView]
	buf := &p.document.Buffers[bv.Buffer]

	if buf.Data == nil {
		return nil, fmt.Errorf("buffer %d is not embedded", bv.Buffer)
	}

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	if componentSize == 0 || componentCount == 0 {
		return nil, fmt.Errorf("accessor %d has unsupported type %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	elementSize := componentSize * componentCount

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	if acc.Count <= 0 {
		return nil, fmt.Errorf("accessor %d has invalid count %d", accessorIndex, acc.Count)
	}

	bufferOffset := bv.ByteOffset + acc.ByteOffset
	last := bufferOffset + (acc.Count-1)*stride + elementSize
	if last < 0 || last > len(buf.Data) {
		return nil, fmt.Errorf("accessor %d exceeds buffer bounds", accessorIndex)
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		srcOffset := bufferOffset + i*stride
		dstOffset := i * elementSize
		copy(result[dstOffset:dstOffset+elementSize], buf.Data[srcOffset:srcOffset+elementSize])
	}

	return result, nil
}

func (p *gltfParserImpl) ReadMat4Accessor(accessorIndex int) ([]mgl32.Mat4, error) {
	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != gltfAccessorTypeMat4 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor is not MAT4 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}

	data, err := p.ReadAccessorBytes(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([]mgl32.Mat4, acc.Count)
	r := bytes.NewReader(data)
	for i := 0; i < acc.Count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &result[i]); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// accessorElementSize returns the byte size of one element of the accessor,
// or 0 when its type or component type is unknown.
func accessorElementSize(acc *gltfAccessor) int {
	return gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
}

// accessorByteRange computes the byte offset and tightly packed byte size of
// an accessor within its backing buffer, for emitting deferred load requests.
func accessorByteRange(doc *gltfDocument, acc *gltfAccessor) (offset, size int) {
	elementSize := accessorElementSize(acc)
	if acc.BufferView == nil {
		return 0, acc.Count * elementSize
	}
	bv := &doc.BufferViews[*acc.BufferView]
	return bv.ByteOffset + acc.ByteOffset, acc.Count * elementSize
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
