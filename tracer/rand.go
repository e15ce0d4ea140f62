package tracer

import "github.com/achilleasa/solaris/types"

const randMultiplier uint32 = 1103515245

// Hash a (pixel x, pixel y, sample) triplet into three floats in [0, 1).
// The output depends only on the inputs so results are reproducible
// regardless of which worker evaluates a pixel.
func Rand01(x, y, z uint32) types.Vec3 {
	for i := 0; i < 3; i++ {
		x, y, z = ((x>>8)^y)*randMultiplier, ((y>>8)^z)*randMultiplier, ((z>>8)^x)*randMultiplier
	}

	// Keep the top 24 bits so the conversion to float32 is exact and the
	// result never rounds up to 1.
	const scale = 1.0 / (1 << 24)
	return types.XYZ(
		float32(x>>8)*scale,
		float32(y>>8)*scale,
		float32(z>>8)*scale,
	)
}
