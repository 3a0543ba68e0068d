package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lumen3d/assetio/engine"
	"github.com/lumen3d/assetio/engine/asset"
	"github.com/lumen3d/assetio/engine/material_cache"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	engine  engine.Engine
	cache   material_cache.Cache
	baseDir string

	assets map[asset.Asset]struct{}
}

// Loader defines the public-facing interface for converting glTF 2.0 content
// into asset bundles of engine objects. Material templates compiled during
// loading are shared across every asset the loader produces; they belong to
// the loader and outlive individual bundles.
//
// Load calls are serialized internally, so a single Loader may be shared
// across goroutines.
type Loader interface {
	// CreateAssetFromJSON converts glTF JSON text into an asset bundle.
	// Embedded geometry and image bytes are uploaded or staged immediately;
	// externally referenced ranges surface as the asset's buffer and pixel
	// accessors for the caller to service.
	//
	// Parameters:
	//   - data: raw JSON content of a .gltf file
	//
	// Returns:
	//   - asset.Asset: the created bundle
	//   - error: error if parsing, validation, or object creation fails; no
	//     engine objects remain on failure
	CreateAssetFromJSON(data []byte) (asset.Asset, error)

	// CreateAssetFromBinary converts a GLB container into an asset bundle.
	//
	// Parameters:
	//   - data: raw content of a .glb file
	//
	// Returns:
	//   - asset.Asset: the created bundle
	//   - error: error if parsing, validation, or object creation fails; no
	//     engine objects remain on failure
	CreateAssetFromBinary(data []byte) (asset.Asset, error)

	// DestroyAsset releases every engine object owned by an asset created by
	// this loader. Material templates are untouched; they belong to the
	// loader's cache. Destroying an asset twice or one from another loader is
	// a no-op.
	//
	// Parameters:
	//   - a: the asset to destroy
	DestroyAsset(a asset.Asset)

	// MaterialCount returns the number of material templates the loader's
	// cache currently holds.
	//
	// Returns:
	//   - int: the template count
	MaterialCount() int

	// Materials copies the cached material templates into out, in creation
	// order, up to len(out).
	//
	// Parameters:
	//   - out: the destination slice
	//
	// Returns:
	//   - int: the number of templates copied
	Materials(out []engine.Material) int

	// DestroyMaterials releases every cached material template. All assets
	// created by this loader must be destroyed first; instances still bound
	// to a released template are undefined.
	//
	// Returns:
	//   - error: error if any asset created by this loader is still live
	DestroyMaterials() error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader bound to an engine, with options applied.
// A material cache is created internally unless one is supplied; supplying a
// shared cache lets several loaders reuse the same compiled templates.
//
// Parameters:
//   - eng: the engine that will own created objects
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured Loader instance
func NewLoader(eng engine.Engine, options ...LoaderBuilderOption) Loader {
	l := &loader{
		engine: eng,
		assets: make(map[asset.Asset]struct{}),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.cache == nil {
		l.cache = material_cache.NewCache(eng)
	}
	return l
}

func (l *loader) CreateAssetFromJSON(data []byte) (asset.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	parser := newGLTFParser()
	if err := parser.ParseJSON(data); err != nil {
		return nil, fmt.Errorf("failed to parse glTF: %w", err)
	}

	return l.buildAsset(parser)
}

func (l *loader) CreateAssetFromBinary(data []byte) (asset.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	parser := newGLTFParser()
	if err := parser.ParseBinary(data); err != nil {
		return nil, fmt.Errorf("failed to parse GLB: %w", err)
	}

	return l.buildAsset(parser)
}

// buildAsset runs the builder over a parsed document and packages the result.
// Caller holds l.mu.
func (l *loader) buildAsset(parser gltfParser) (asset.Asset, error) {
	builder := newGLTFBuilder(l.engine, l.cache, parser)
	if err := builder.build(); err != nil {
		return nil, fmt.Errorf("failed to build asset: %w", err)
	}

	a := asset.NewAsset(
		asset.WithEngine(l.engine),
		asset.WithBaseDir(l.baseDir),
		asset.WithEntities(builder.entities),
		asset.WithMaterialInstances(builder.instances),
		asset.WithVertexBuffers(builder.vbuffers),
		asset.WithIndexBuffers(builder.ibuffers),
		asset.WithTextures(builder.textures),
		asset.WithBufferAccessors(builder.bufferAccessors),
		asset.WithPixelAccessors(builder.pixelAccessors),
		asset.WithCameraSettings(builder.cameraSettings),
	)

	l.assets[a] = struct{}{}
	return a, nil
}

func (l *loader) DestroyAsset(a asset.Asset) {
	if a == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.assets[a]; !ok {
		return
	}
	delete(l.assets, a)
	a.Release()
}

func (l *loader) MaterialCount() int {
	return l.cache.Count()
}

func (l *loader) Materials(out []engine.Material) int {
	return l.cache.List(out)
}

func (l *loader) DestroyMaterials() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.assets) > 0 {
		return errors.New("cannot destroy materials while assets are live")
	}

	l.cache.Clear()
	return nil
}
