package gimbal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialDevice speaks the gimbal's line-oriented request/response protocol
// over a serial port. Queries are "q <what>", commands are "w <what> ...";
// the device answers a single line ("<what> fields..." or "ok"), or
// "err <reason>". One request is outstanding at a time: the mutex keeps the
// handshake and the two loop goroutines from interleaving frames on the wire.
type SerialDevice struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	r    *bufio.Reader
}

// Open opens the serial port and returns a device handle. The
// inter-character timeout bounds reads so a stalled device surfaces as a
// read error instead of hanging a loop tick.
func Open(portName string, baudRate uint) (*SerialDevice, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 500,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", portName, err)
	}
	return newSerialDevice(port), nil
}

func newSerialDevice(port io.ReadWriteCloser) *SerialDevice {
	return &SerialDevice{port: port, r: bufio.NewReader(port)}
}

func (d *SerialDevice) request(cmd, wantPrefix string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := io.WriteString(d.port, cmd+"\n"); err != nil {
		return nil, fmt.Errorf("write %q: %w", cmd, err)
	}
	line, err := d.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read reply to %q: %w", cmd, err)
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty reply to %q", cmd)
	}
	if fields[0] == "err" {
		return nil, fmt.Errorf("device error for %q: %s", cmd, strings.Join(fields[1:], " "))
	}
	if fields[0] != wantPrefix {
		return nil, fmt.Errorf("unexpected reply to %q: %q", cmd, strings.TrimSpace(line))
	}
	return fields[1:], nil
}

func (d *SerialDevice) command(cmd string) error {
	_, err := d.request(cmd, "ok")
	return err
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("want %d fields, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %w", i, f, err)
		}
		out[i] = v
	}
	return out, nil
}

func (d *SerialDevice) PowerState() (PowerState, error) {
	fields, err := d.request("q power", "power")
	if err != nil {
		return PowerOff, err
	}
	if len(fields) != 1 {
		return PowerOff, fmt.Errorf("power reply: want 1 field, got %d", len(fields))
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return PowerOff, fmt.Errorf("power reply %q: %w", fields[0], err)
	}
	return PowerState(v), nil
}

func (d *SerialDevice) PowerOn() error {
	return d.command("w power 1")
}

func (d *SerialDevice) SetMode(m Mode) error {
	return d.command(fmt.Sprintf("w mode %d", int(m)))
}

func boolTo01(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *SerialDevice) SetAxisModes(tilt, roll, pan AxisMode) error {
	return d.command(fmt.Sprintf("w axes %d %d %d %d %d %d",
		int(tilt.Input), boolTo01(tilt.Stabilize),
		int(roll.Input), boolTo01(roll.Stabilize),
		int(pan.Input), boolTo01(pan.Stabilize)))
}

func (d *SerialDevice) RawIMU() (RawIMU, error) {
	fields, err := d.request("q imu", "imu")
	if err != nil {
		return RawIMU{}, err
	}
	if len(fields) != 7 {
		return RawIMU{}, fmt.Errorf("imu reply: want 7 fields, got %d", len(fields))
	}
	var vals [6]int16
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseInt(fields[i], 10, 16)
		if err != nil {
			return RawIMU{}, fmt.Errorf("imu field %d %q: %w", i, fields[i], err)
		}
		vals[i] = int16(v)
	}
	t, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return RawIMU{}, fmt.Errorf("imu timestamp %q: %w", fields[6], err)
	}
	return RawIMU{
		Ax: vals[0], Ay: vals[1], Az: vals[2],
		Gx: vals[3], Gy: vals[4], Gz: vals[5],
		TimeUsec: t,
	}, nil
}

func (d *SerialDevice) EncoderAngles() (EncoderAngles, error) {
	fields, err := d.request("q enc", "enc")
	if err != nil {
		return EncoderAngles{}, err
	}
	v, err := parseFloats(fields, 3)
	if err != nil {
		return EncoderAngles{}, fmt.Errorf("enc reply: %w", err)
	}
	return EncoderAngles{A: v[0], B: v[1], C: v[2]}, nil
}

func (d *SerialDevice) MountOrientation() (MountOrientation, error) {
	fields, err := d.request("q mount", "mount")
	if err != nil {
		return MountOrientation{}, err
	}
	v, err := parseFloats(fields, 4)
	if err != nil {
		return MountOrientation{}, fmt.Errorf("mount reply: %w", err)
	}
	return MountOrientation{Roll: v[0], Pitch: v[1], YawLocal: v[2], YawAbsolute: v[3]}, nil
}

func (d *SerialDevice) MoveTo(pitchDeg, rollDeg, yawDeg float64) error {
	return d.command(fmt.Sprintf("w move %.3f %.3f %.3f", pitchDeg, rollDeg, yawDeg))
}

func (d *SerialDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port.Close()
}
