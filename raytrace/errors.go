package raytrace

import "errors"

var (
	// ErrShapeMismatch means the volume does not match the configured shape.
	ErrShapeMismatch = errors.New("raytrace: volume shape differs from config")
	// ErrFootprint means the micro-lens array spans more voxels than the
	// volume holds in a transverse direction.
	ErrFootprint = errors.New("raytrace: micro-lens footprint exceeds volume")
	// ErrOutOfBounds means a shifted ray segment left the volume.
	ErrOutOfBounds = errors.New("raytrace: ray segment outside volume")
	// ErrNoGradients means Backward was called on a result rendered
	// without Options.Gradients.
	ErrNoGradients = errors.New("raytrace: rendered without gradients")
)
