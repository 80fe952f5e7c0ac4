package gimbal

// PowerState is the motor power state reported by the gimbal.
type PowerState int

const (
	PowerOff PowerState = iota
	PowerInitializing
	PowerOn
	PowerError
)

func (s PowerState) String() string {
	switch s {
	case PowerOff:
		return "off"
	case PowerInitializing:
		return "initializing"
	case PowerOn:
		return "on"
	case PowerError:
		return "error"
	}
	return "unknown"
}

// Mode is the overall control mode of the gimbal.
type Mode int

const (
	ModeOff Mode = iota
	ModeLock
	ModeFollow
)

// ModeFromInt maps the configuration integer onto a Mode.
func ModeFromInt(m int) Mode {
	switch m {
	case 1:
		return ModeLock
	case 2:
		return ModeFollow
	default:
		return ModeOff
	}
}

// AxisInputMode selects how a single axis interprets its input.
type AxisInputMode int

const (
	InputAngleBody AxisInputMode = iota
	InputAngularRate
	InputAngleAbsolute
)

// AxisInputModeFromInt maps the configuration integer onto an AxisInputMode.
func AxisInputModeFromInt(m int) AxisInputMode {
	switch m {
	case 0:
		return InputAngleBody
	case 1:
		return InputAngularRate
	default:
		return InputAngleAbsolute
	}
}

// AxisMode is the per-axis control setting.
type AxisMode struct {
	Input     AxisInputMode
	Stabilize bool
}

// RawIMU is a raw inertial sample in device counts plus the device clock.
type RawIMU struct {
	Ax, Ay, Az int16
	Gx, Gy, Gz int16
	TimeUsec   uint64
}

// EncoderAngles are the mechanical encoder angles for the three axes,
// in device degrees.
type EncoderAngles struct {
	A, B, C float64
}

// MountOrientation is the mount attitude in device degrees. YawAbsolute is
// referenced to an absolute heading and drifts with the vehicle;
// YawLocal is relative to the vehicle body.
type MountOrientation struct {
	Roll        float64
	Pitch       float64
	YawLocal    float64
	YawAbsolute float64
}

// Device is the capability set the driver needs from a gimbal. The serial
// line carries one request/response at a time, so implementations must
// serialize access internally; callers may invoke it from multiple
// goroutines.
type Device interface {
	PowerState() (PowerState, error)
	PowerOn() error
	SetMode(Mode) error
	SetAxisModes(tilt, roll, pan AxisMode) error
	RawIMU() (RawIMU, error)
	EncoderAngles() (EncoderAngles, error)
	MountOrientation() (MountOrientation, error)
	// MoveTo commands an absolute move. Argument order is what the device
	// expects: pitch, roll, yaw, in degrees.
	MoveTo(pitchDeg, rollDeg, yawDeg float64) error
	Close() error
}
