package scene

import "errors"

var (
	ErrInvalidMesh = errors.New("scene: invalid mesh")
)
