package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

// Distance from the camera origin to the lens plane.
const lensOffset float32 = 0.035

// A thin lens camera. The sensor sits at Position and the lens a short
// distance in front of it along the view direction. FocusDistance (object
// distance), FocalLength and Aperture are expressed in scene units.
type Camera struct {
	Position types.Vec3
	Target   types.Vec3

	SensorSize    types.Vec2
	FocalLength   float32
	FocusDistance float32
	Aperture      float32

	// View basis; populated by Update.
	dir types.Vec3
	cx  types.Vec3
	cy  types.Vec3
}

// Create a camera at position looking at target using a 36x24mm sensor and
// the default lens setup.
func NewCamera(position, target types.Vec3) *Camera {
	c := &Camera{
		Position:      position,
		Target:        target,
		SensorSize:    types.XY(0.036, 0.024),
		FocalLength:   0.7,
		FocusDistance: 6.9,
		Aperture:      0.35,
	}
	c.Update()
	return c
}

// Recalculate the view basis. Must be called after modifying Position or
// Target.
func (c *Camera) Update() {
	c.dir = c.Target.Sub(c.Position).Normalize()

	up := types.XYZ(0, 1, 0)
	if math32.Abs(c.dir[1]) >= 0.9 {
		up = types.XYZ(0, 0, 1)
	}
	c.cx = c.dir.Cross(up).Normalize()
	c.cy = c.cx.Cross(c.dir)
}

// Get the normalized view direction.
func (c *Camera) Dir() types.Vec3 {
	return c.dir
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"Camera:\npos    : (%3.3f, %3.3f, %3.3f)\ntarget : (%3.3f, %3.3f, %3.3f)\nsensor : %3.3f x %3.3f, f: %3.3f, focus: %3.3f, aperture: %3.3f",
		c.Position[0], c.Position[1], c.Position[2],
		c.Target[0], c.Target[1], c.Target[2],
		c.SensorSize[0], c.SensorSize[1], c.FocalLength, c.FocusDistance, c.Aperture,
	)
}

// Generate the primary ray for pixel (x, y) of a width x height frame.
//
// The sensor position is jittered with a tent filter driven by rnd.xy and
// stratified over a 2x2 grid cycling with the sample index. The ray through
// the lens center is intersected with the focal plane and the final ray is
// shot from a point on the lens aperture (also selected by rnd.xy) towards
// that focus point. Row 0 is the top of the image.
func (c *Camera) PrimaryRay(x, y, sample, width, height uint32, rnd types.Vec3) Ray {
	rnd2 := types.XY(2*rnd[0], 2*rnd[1])
	tent := types.XY(tentSample(rnd2[0]), tentSample(rnd2[1]))
	strata := types.XY(float32((sample/2)%2), float32(sample%2))

	var s types.Vec2
	for axis, pix := range [2]uint32{x, y} {
		res := width
		if axis == 1 {
			res = height
		}
		offset := 0.5 * (0.5 + strata[axis] + tent[axis])
		s[axis] = ((float32(pix)+offset)/float32(res) - 0.5) * c.SensorSize[axis]
	}

	// Flip x so the image is not mirrored by the pinhole inversion.
	sensorPos := c.Position.Sub(c.cx.Mul(s[0])).Add(c.cy.Mul(s[1]))
	lensCenter := c.Position.Add(c.dir.Mul(lensOffset))
	centerDir := lensCenter.Sub(sensorPos).Normalize()

	imageDist := (c.FocusDistance * c.FocalLength) / (c.FocusDistance - c.FocalLength)
	focalPoint := c.Position.Add(c.dir.Mul(c.FocusDistance + imageDist))
	lensN := c.dir.Neg()
	t := focalPoint.Sub(lensCenter).Dot(lensN) / centerDir.Dot(lensN)
	focus := lensCenter.Add(centerDir.Mul(t))

	lensSample := lensCenter.
		Add(c.cx.Mul((2*rnd[0] - 1) * c.Aperture)).
		Add(c.cy.Mul((2*rnd[1] - 1) * c.Aperture))

	return NewRay(lensSample, focus.Sub(lensSample).Normalize())
}

// Map a uniform sample in [0, 2) to a tent distribution over [-1, 1).
func tentSample(r float32) float32 {
	if r < 1 {
		return math32.Sqrt(r) - 1
	}
	return 1 - math32.Sqrt(2-r)
}
