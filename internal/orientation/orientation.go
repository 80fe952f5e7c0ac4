package orientation

import (
	"math"
	"time"
)

// Quaternion is a unit rotation quaternion.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector3Stamped is a timestamped 3-vector. It carries encoder angles
// (radians) on the way out and desired-orientation goals (roll=x, pitch=y,
// yaw=z, radians) on the way in.
type Vector3Stamped struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Z     float64   `json:"z"`
	Stamp time.Time `json:"stamp"`
}

// QuaternionStamped is a timestamped rotation plus the frame it is valid in.
type QuaternionStamped struct {
	Quaternion Quaternion `json:"quaternion"`
	FrameID    string     `json:"frame_id"`
	Stamp      time.Time  `json:"stamp"`
}

// DegToRad converts degrees to radians.
func DegToRad(d float64) float64 {
	return d * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(r float64) float64 {
	return r * 180 / math.Pi
}

// Mul returns the Hamilton product q*r.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

func axisAngle(x, y, z, rad float64) Quaternion {
	s := math.Sin(rad / 2)
	return Quaternion{W: math.Cos(rad / 2), X: x * s, Y: y * s, Z: z * s}
}

// FromEulerYXZ builds a rotation from the gimbal's Euler convention:
// intrinsic yaw about Z, then pitch, then roll, with pitch and roll negated
// the way the device reports them. Inputs are in degrees. Total over all
// real inputs; angles are periodic.
func FromEulerYXZ(rollDeg, pitchDeg, yawDeg float64) Quaternion {
	qy := axisAngle(0, 1, 0, -DegToRad(pitchDeg))
	qx := axisAngle(1, 0, 0, -DegToRad(rollDeg))
	qz := axisAngle(0, 0, 1, DegToRad(yawDeg))
	return qy.Mul(qx).Mul(qz)
}

// ToEulerYXZ recovers the (roll, pitch, yaw) degrees FromEulerYXZ was built
// from. Degenerate at roll = ±90°, where pitch and yaw collapse onto the
// same axis.
func ToEulerYXZ(q Quaternion) (rollDeg, pitchDeg, yawDeg float64) {
	// Elements of the composed rotation matrix.
	m13 := 2 * (q.X*q.Z + q.W*q.Y)
	m21 := 2 * (q.X*q.Y + q.W*q.Z)
	m22 := 1 - 2*(q.X*q.X+q.Z*q.Z)
	m23 := 2 * (q.Y*q.Z - q.W*q.X)
	m33 := 1 - 2*(q.X*q.X+q.Y*q.Y)

	sr := m23
	if sr > 1 {
		sr = 1
	} else if sr < -1 {
		sr = -1
	}
	rollDeg = RadToDeg(math.Asin(sr))
	pitchDeg = RadToDeg(math.Atan2(-m13, m33))
	yawDeg = RadToDeg(math.Atan2(m21, m22))
	return rollDeg, pitchDeg, yawDeg
}
