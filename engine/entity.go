package engine

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/assetio/engine/light"
)

// entityID is an atomic counter used to assign unique entity identifiers.
var entityID atomic.Uint64

// entityImpl is the implementation of the Entity interface.
type entityImpl struct {
	id        uint64
	name      string
	transform mgl32.Mat4
	parent    Entity
	drawables []Drawable
	attached  light.Light
}

// Entity is a node in the runtime transform hierarchy. Entities are created and
// destroyed by an Engine; drawables and lights are attached to them by the asset
// pipeline according to the source node's payload.
type Entity interface {
	// ID returns the entity's unique identifier.
	//
	// Returns:
	//   - uint64: the entity ID
	ID() uint64

	// Name returns the entity's name, taken from the source node when present.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Transform returns the entity's local transform matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the local transform
	Transform() mgl32.Mat4

	// SetTransform sets the entity's local transform matrix.
	//
	// Parameters:
	//   - m: the local transform
	SetTransform(m mgl32.Mat4)

	// Parent returns the entity's parent, or nil for roots.
	//
	// Returns:
	//   - Entity: the parent or nil
	Parent() Entity

	// SetParent attaches the entity as a child of the given parent.
	//
	// Parameters:
	//   - p: the parent entity, or nil to detach
	SetParent(p Entity)

	// Drawables returns the drawables attached to this entity.
	//
	// Returns:
	//   - []Drawable: the attached drawables
	Drawables() []Drawable

	// AttachDrawable attaches a drawable to this entity.
	//
	// Parameters:
	//   - d: the drawable to attach
	AttachDrawable(d Drawable)

	// Light returns the light attached to this entity, or nil.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a light to this entity.
	//
	// Parameters:
	//   - l: the light to attach
	SetLight(l light.Light)
}

var _ Entity = &entityImpl{}

// newEntity creates a new entity with an identity transform.
func newEntity(name string) *entityImpl {
	return &entityImpl{
		id:        entityID.Add(1),
		name:      name,
		transform: mgl32.Ident4(),
	}
}

func (e *entityImpl) ID() uint64 {
	return e.id
}

func (e *entityImpl) Name() string {
	return e.name
}

func (e *entityImpl) Transform() mgl32.Mat4 {
	return e.transform
}

func (e *entityImpl) SetTransform(m mgl32.Mat4) {
	e.transform = m
}

func (e *entityImpl) Parent() Entity {
	return e.parent
}

func (e *entityImpl) SetParent(p Entity) {
	e.parent = p
}

func (e *entityImpl) Drawables() []Drawable {
	return e.drawables
}

func (e *entityImpl) AttachDrawable(d Drawable) {
	e.drawables = append(e.drawables, d)
}

func (e *entityImpl) Light() light.Light {
	return e.attached
}

func (e *entityImpl) SetLight(l light.Light) {
	e.attached = l
}
