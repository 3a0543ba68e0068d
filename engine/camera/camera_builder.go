package camera

// CameraBuilderOption is a functional option for configuring a Camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPerspective is an option builder that sets a perspective projection.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - aspect: aspect ratio (width / height)
//   - near: near plane distance
//   - far: far plane distance, or 0 for infinite
//
// Returns:
//   - CameraBuilderOption: a function that applies the perspective option to a camera
func WithPerspective(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = ProjectionPerspective
		c.fov = fov
		c.aspect = aspect
		c.near = near
		c.far = far
	}
}

// WithOrthographic is an option builder that sets an orthographic projection.
//
// Parameters:
//   - xmag: horizontal magnification
//   - ymag: vertical magnification
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the orthographic option to a camera
func WithOrthographic(xmag, ymag, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = ProjectionOrthographic
		c.xmag = xmag
		c.ymag = ymag
		c.near = near
		c.far = far
	}
}
