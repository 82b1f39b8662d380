package volume

import "errors"

var (
	// ErrUnknownPreset is returned when a synthesis mode name is not
	// recognized.
	ErrUnknownPreset = errors.New("volume: unknown preset")

	// ErrInvalidContainer marks a file that is not a readable volume
	// container.
	ErrInvalidContainer = errors.New("volume: invalid container")

	// ErrShapeMismatch flags dataset dimensions that disagree with each
	// other or with a declared shape.
	ErrShapeMismatch = errors.New("volume: shape mismatch")
)
