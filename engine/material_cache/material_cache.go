package material_cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lumen3d/assetio/engine"
)

// Signature is the canonical key of a material template: shading model, alpha
// handling, sidedness, skinning, and which texture slots the material samples.
// Two documents whose materials reduce to the same Signature share one compiled
// template.
type Signature struct {
	// Shading is the lighting model.
	Shading engine.ShadingModel

	// AlphaMode is the alpha interpretation.
	AlphaMode engine.AlphaMode

	// DoubleSided disables backface culling when true.
	DoubleSided bool

	// Skinned enables the vertex skinning path when true.
	Skinned bool

	// BaseColorTexture is true when the material samples a base color map.
	BaseColorTexture bool

	// MetallicRoughnessTexture is true when the material samples a metallic-roughness map.
	MetallicRoughnessTexture bool

	// NormalTexture is true when the material samples a normal map.
	NormalTexture bool

	// OcclusionTexture is true when the material samples an occlusion map.
	OcclusionTexture bool

	// EmissiveTexture is true when the material samples an emissive map.
	EmissiveTexture bool
}

// Texture slot names shared between signatures and the builder's per-instance
// parameter binding.
const (
	SlotBaseColor         = "baseColorTexture"
	SlotMetallicRoughness = "metallicRoughnessTexture"
	SlotNormal            = "normalTexture"
	SlotOcclusion         = "occlusionTexture"
	SlotEmissive          = "emissiveTexture"
)

// Definition expands the signature into the material definition handed to the
// engine for template compilation. The label is a canonical encoding of the
// signature, so identical signatures always produce identical labels.
//
// Returns:
//   - engine.MaterialDefinition: the definition for this signature
func (s Signature) Definition() engine.MaterialDefinition {
	parts := []string{"lit"}
	if s.Shading == engine.ShadingUnlit {
		parts[0] = "unlit"
	}

	switch s.AlphaMode {
	case engine.AlphaMask:
		parts = append(parts, "mask")
	case engine.AlphaBlend:
		parts = append(parts, "blend")
	default:
		parts = append(parts, "opaque")
	}

	if s.DoubleSided {
		parts = append(parts, "ds")
	}
	if s.Skinned {
		parts = append(parts, "skin")
	}

	var slots []string
	if s.BaseColorTexture {
		slots = append(slots, SlotBaseColor)
	}
	if s.MetallicRoughnessTexture {
		slots = append(slots, SlotMetallicRoughness)
	}
	if s.NormalTexture {
		slots = append(slots, SlotNormal)
	}
	if s.OcclusionTexture {
		slots = append(slots, SlotOcclusion)
	}
	if s.EmissiveTexture {
		slots = append(slots, SlotEmissive)
	}
	for _, slot := range slots {
		parts = append(parts, strings.TrimSuffix(slot, "Texture"))
	}

	return engine.MaterialDefinition{
		Label:        strings.Join(parts, "_"),
		Shading:      s.Shading,
		AlphaMode:    s.AlphaMode,
		DoubleSided:  s.DoubleSided,
		Skinned:      s.Skinned,
		TextureSlots: slots,
	}
}

// cacheImpl is the implementation of the Cache interface.
type cacheImpl struct {
	mu sync.RWMutex

	engine engine.Engine

	templates map[Signature]engine.Material
	order     []Signature
}

// Cache is a shared material-template cache keyed by canonical signature.
// Template compilation is the most expensive step of the asset pipeline, so
// templates are reused across every load performed against one cache, across
// all asset bundles.
//
// The cache assumes single-writer access: concurrent loads against one cache
// must be externally serialized, and Clear must not be called while any live
// asset bundle holds an instance derived from a cached template. That
// precondition is the caller's to uphold; violating it is a use-after-free of
// the template, not a detected fault.
type Cache interface {
	// GetOrCreate returns the template compiled for the signature, compiling
	// and storing one on first use. Identical signatures always yield the
	// identical template object until Clear is called.
	//
	// Parameters:
	//   - sig: the canonical material signature
	//
	// Returns:
	//   - engine.Material: the shared template for the signature
	//   - error: error if the engine refuses to compile the template
	GetOrCreate(sig Signature) (engine.Material, error)

	// Count returns the number of cached templates.
	//
	// Returns:
	//   - int: the cached template count
	Count() int

	// List copies cached templates into out, in creation order, up to len(out).
	//
	// Parameters:
	//   - out: the destination slice
	//
	// Returns:
	//   - int: the number of templates copied
	List(out []engine.Material) int

	// Clear releases every cached template. See the Cache contract for the
	// liveness precondition.
	Clear()
}

var _ Cache = &cacheImpl{}

// NewCache creates a new material cache compiling against the given engine.
//
// Parameters:
//   - eng: the engine used to compile templates
//
// Returns:
//   - Cache: a new empty cache
func NewCache(eng engine.Engine) Cache {
	return &cacheImpl{
		engine:    eng,
		templates: make(map[Signature]engine.Material),
	}
}

func (c *cacheImpl) GetOrCreate(sig Signature) (engine.Material, error) {
	c.mu.RLock()
	if tmpl, ok := c.templates[sig]; ok {
		c.mu.RUnlock()
		return tmpl, nil
	}
	c.mu.RUnlock()

	tmpl, err := c.engine.CreateMaterial(sig.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to compile material template %q: %w", sig.Definition().Label, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent GetOrCreate may have raced us here; keep the first template
	// so identical signatures stay identical objects.
	if existing, ok := c.templates[sig]; ok {
		tmpl.Release()
		return existing, nil
	}

	c.templates[sig] = tmpl
	c.order = append(c.order, sig)
	return tmpl, nil
}

func (c *cacheImpl) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

func (c *cacheImpl) List(out []engine.Material) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, sig := range c.order {
		if n >= len(out) {
			break
		}
		out[n] = c.templates[sig]
		n++
	}
	return n
}

func (c *cacheImpl) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tmpl := range c.templates {
		tmpl.Release()
	}
	c.templates = make(map[Signature]engine.Material)
	c.order = nil
}
