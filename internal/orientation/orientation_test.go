package orientation

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestDegRadRoundTrip(t *testing.T) {
	for _, d := range []float64{0, 1, -1, 45, -90, 180, 359.999, 720, -1234.5} {
		got := RadToDeg(DegToRad(d))
		if math.Abs(got-d) > eps*math.Max(1, math.Abs(d)) {
			t.Errorf("deg->rad->deg(%v) = %v", d, got)
		}
	}
	if DegToRad(180) != math.Pi {
		t.Errorf("DegToRad(180) = %v, want pi", DegToRad(180))
	}
}

func TestFromEulerYXZKnownAngles(t *testing.T) {
	s45 := math.Sin(math.Pi / 4)
	c45 := math.Cos(math.Pi / 4)
	cases := []struct {
		name             string
		roll, pitch, yaw float64
		want             Quaternion
	}{
		{"identity", 0, 0, 0, Quaternion{W: 1}},
		{"yaw90", 0, 0, 90, Quaternion{W: c45, Z: s45}},
		{"roll90", 90, 0, 0, Quaternion{W: c45, X: -s45}},
		{"pitch90", 0, 90, 0, Quaternion{W: c45, Y: -s45}},
	}
	for _, tc := range cases {
		got := FromEulerYXZ(tc.roll, tc.pitch, tc.yaw)
		if math.Abs(got.W-tc.want.W) > eps ||
			math.Abs(got.X-tc.want.X) > eps ||
			math.Abs(got.Y-tc.want.Y) > eps ||
			math.Abs(got.Z-tc.want.Z) > eps {
			t.Errorf("%s: FromEulerYXZ = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestEulerYXZRoundTrip(t *testing.T) {
	// Stay away from roll = ±90 where the convention is degenerate.
	angles := []float64{-170, -85, -45, -10, 0, 10, 45, 85, 170}
	for _, roll := range []float64{-80, -30, 0, 30, 80} {
		for _, pitch := range angles {
			for _, yaw := range angles {
				q := FromEulerYXZ(roll, pitch, yaw)
				r, p, y := ToEulerYXZ(q)
				if math.Abs(r-roll) > 1e-6 || math.Abs(p-pitch) > 1e-6 || math.Abs(y-yaw) > 1e-6 {
					t.Fatalf("round trip (%v,%v,%v) -> (%v,%v,%v)", roll, pitch, yaw, r, p, y)
				}
			}
		}
	}
}

func TestFromEulerYXZUnitNorm(t *testing.T) {
	q := FromEulerYXZ(33.3, -12.7, 256.1)
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if math.Abs(n-1) > eps {
		t.Errorf("norm = %v, want 1", n)
	}
}
