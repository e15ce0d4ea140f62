package renderer

import "errors"

var (
	ErrSceneNotGenerated = errors.New("renderer: scene has not been generated")
	ErrInvalidParams     = errors.New("renderer: invalid render parameters")
	ErrInterrupted       = errors.New("renderer: interrupted while rendering")
	ErrClosed            = errors.New("renderer: renderer is closed")
)
