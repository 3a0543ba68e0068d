package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionType identifies the projection model a camera uses.
type ProjectionType int

const (
	// ProjectionPerspective is a perspective projection defined by vertical
	// field of view, aspect ratio, and near/far clip planes.
	ProjectionPerspective ProjectionType = iota

	// ProjectionOrthographic is an orthographic projection defined by
	// horizontal/vertical magnification and near/far clip planes.
	ProjectionOrthographic
)

type cameraImpl struct {
	mu *sync.Mutex

	projection ProjectionType

	fov    float32
	aspect float32
	near   float32
	far    float32

	xmag float32
	ymag float32

	projectionMatrix mgl32.Mat4
}

// Camera defines the interface for a projection-parameter camera object.
// It is the destination of an asset bundle's UpdateCamera operation: the bundle
// writes the source document's camera projection settings into it, and the
// consuming application reads the resulting projection matrix each frame.
type Camera interface {
	// Projection returns the projection model currently in use.
	//
	// Returns:
	//   - ProjectionType: perspective or orthographic
	Projection() ProjectionType

	// Fov returns the vertical field of view in radians.
	// Meaningless for orthographic cameras.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	// Meaningless for orthographic cameras.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	// A far of zero on a perspective camera means an infinite projection.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// XMag returns the horizontal magnification for orthographic cameras.
	// Meaningless for perspective cameras.
	//
	// Returns:
	//   - float32: horizontal magnification
	XMag() float32

	// YMag returns the vertical magnification for orthographic cameras.
	// Meaningless for perspective cameras.
	//
	// Returns:
	//   - float32: vertical magnification
	YMag() float32

	// ProjectionMatrix returns the projection matrix computed from the current
	// parameters.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major projection matrix
	ProjectionMatrix() mgl32.Mat4

	// SetPerspective switches the camera to a perspective projection and
	// recomputes the projection matrix. A far of zero produces an infinite
	// far plane.
	//
	// Parameters:
	//   - fov: vertical field of view in radians
	//   - aspect: aspect ratio (width / height)
	//   - near: near plane distance
	//   - far: far plane distance, or 0 for infinite
	SetPerspective(fov, aspect, near, far float32)

	// SetOrthographic switches the camera to an orthographic projection and
	// recomputes the projection matrix.
	//
	// Parameters:
	//   - xmag: horizontal magnification
	//   - ymag: vertical magnification
	//   - near: near plane distance
	//   - far: far plane distance
	SetOrthographic(xmag, ymag, near, far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a default perspective projection and any
// provided options applied.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: a new Camera instance
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		projection: ProjectionPerspective,
		fov:        math32.Pi / 4,
		aspect:     16.0 / 9.0,
		near:       0.1,
		far:        1000,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrix()
	return c
}

func (c *cameraImpl) Projection() ProjectionType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) XMag() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xmag
}

func (c *cameraImpl) YMag() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ymag
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) SetPerspective(fov, aspect, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = ProjectionPerspective
	c.fov = fov
	c.aspect = aspect
	c.near = near
	c.far = far
	c.updateMatrix()
}

func (c *cameraImpl) SetOrthographic(xmag, ymag, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = ProjectionOrthographic
	c.xmag = xmag
	c.ymag = ymag
	c.near = near
	c.far = far
	c.updateMatrix()
}

// updateMatrix recomputes the projection matrix from the current parameters.
// Callers must hold the mutex.
func (c *cameraImpl) updateMatrix() {
	switch c.projection {
	case ProjectionOrthographic:
		c.projectionMatrix = mgl32.Ortho(-c.xmag, c.xmag, -c.ymag, c.ymag, c.near, c.far)
	default:
		if c.far <= 0 {
			// Infinite far plane: limit of the standard perspective matrix as far → ∞.
			f := 1 / math32.Tan(c.fov/2)
			c.projectionMatrix = mgl32.Mat4{
				f / c.aspect, 0, 0, 0,
				0, f, 0, 0,
				0, 0, -1, -1,
				0, 0, -2 * c.near, 0,
			}
			return
		}
		c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	}
}
