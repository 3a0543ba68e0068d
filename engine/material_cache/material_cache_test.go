package material_cache

import (
	"testing"

	"github.com/lumen3d/assetio/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine satisfies engine.Engine for cache tests; only CreateMaterial is
// exercised.
type stubEngine struct {
	created int
}

var _ engine.Engine = &stubEngine{}

func (s *stubEngine) CreateEntity(name string) engine.Entity { return nil }
func (s *stubEngine) DestroyEntity(ent engine.Entity)        {}
func (s *stubEngine) EntityCount() int                       { return 0 }

func (s *stubEngine) CreateVertexBuffer(desc engine.VertexBufferDescriptor) (engine.VertexBuffer, error) {
	return nil, nil
}

func (s *stubEngine) CreateIndexBuffer(desc engine.IndexBufferDescriptor) (engine.IndexBuffer, error) {
	return nil, nil
}

func (s *stubEngine) CreateTexture(desc engine.TextureDescriptor) (engine.Texture, error) {
	return nil, nil
}

func (s *stubEngine) CreateMaterial(def engine.MaterialDefinition) (engine.Material, error) {
	s.created++
	return &stubMaterial{def: def}, nil
}

type stubMaterial struct {
	def      engine.MaterialDefinition
	released bool
}

var _ engine.Material = &stubMaterial{}

func (m *stubMaterial) Label() string                         { return m.def.Label }
func (m *stubMaterial) Definition() engine.MaterialDefinition { return m.def }
func (m *stubMaterial) Release()                              { m.released = true }

func (m *stubMaterial) CreateInstance() (engine.MaterialInstance, error) {
	return nil, nil
}

func TestGetOrCreateSharesTemplates(t *testing.T) {
	eng := &stubEngine{}
	cache := NewCache(eng)

	sig := Signature{Shading: engine.ShadingLit, BaseColorTexture: true}
	m1, err := cache.GetOrCreate(sig)
	require.NoError(t, err)
	m2, err := cache.GetOrCreate(sig)
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, 1, eng.created)
	assert.Equal(t, 1, cache.Count())

	other := sig
	other.Skinned = true
	m3, err := cache.GetOrCreate(other)
	require.NoError(t, err)
	assert.NotSame(t, m1, m3)
	assert.Equal(t, 2, cache.Count())
}

func TestClearReleasesAndForgets(t *testing.T) {
	eng := &stubEngine{}
	cache := NewCache(eng)

	sig := Signature{Shading: engine.ShadingUnlit}
	m1, err := cache.GetOrCreate(sig)
	require.NoError(t, err)

	cache.Clear()
	assert.Equal(t, 0, cache.Count())
	assert.True(t, m1.(*stubMaterial).released)

	m2, err := cache.GetOrCreate(sig)
	require.NoError(t, err)
	assert.NotSame(t, m1, m2)
}

func TestListCopiesInOrderAndTruncates(t *testing.T) {
	eng := &stubEngine{}
	cache := NewCache(eng)

	sigs := []Signature{
		{Shading: engine.ShadingLit},
		{Shading: engine.ShadingUnlit},
		{Shading: engine.ShadingLit, Skinned: true},
	}
	created := make([]engine.Material, len(sigs))
	for i, sig := range sigs {
		m, err := cache.GetOrCreate(sig)
		require.NoError(t, err)
		created[i] = m
	}

	out := make([]engine.Material, 3)
	assert.Equal(t, 3, cache.List(out))
	assert.Equal(t, created, out)

	short := make([]engine.Material, 2)
	assert.Equal(t, 2, cache.List(short))
	assert.Equal(t, created[:2], short)
}

func TestDefinitionLabelIsCanonical(t *testing.T) {
	sig := Signature{
		Shading:          engine.ShadingLit,
		AlphaMode:        engine.AlphaMask,
		DoubleSided:      true,
		Skinned:          true,
		BaseColorTexture: true,
		NormalTexture:    true,
	}

	def1 := sig.Definition()
	def2 := sig.Definition()
	assert.Equal(t, def1.Label, def2.Label)
	assert.Equal(t, []string{SlotBaseColor, SlotNormal}, def1.TextureSlots)
	assert.True(t, def1.DoubleSided)
	assert.True(t, def1.Skinned)
	assert.Equal(t, engine.AlphaMask, def1.AlphaMode)

	// Different signatures never share a label.
	other := sig
	other.NormalTexture = false
	assert.NotEqual(t, def1.Label, other.Definition().Label)
}
