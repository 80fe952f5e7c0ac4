package gimbal

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"testing"
)

// pipePort is the client side of an in-memory serial line.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipePort) Close() error {
	p.r.Close()
	p.w.Close()
	return nil
}

// fakeGimbal answers requests on the far end of the pipe and records every
// line it received.
type fakeGimbal struct {
	mu       sync.Mutex
	received []string
	replies  map[string]string
}

func (f *fakeGimbal) serve(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		f.mu.Lock()
		f.received = append(f.received, line)
		reply, ok := f.replies[line]
		f.mu.Unlock()
		if !ok {
			reply = "err unknown command"
		}
		if _, err := io.WriteString(w, reply+"\n"); err != nil {
			return
		}
	}
}

func (f *fakeGimbal) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func newTestDevice(replies map[string]string) (*SerialDevice, *fakeGimbal) {
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	fake := &fakeGimbal{replies: replies}
	go fake.serve(serverR, serverW)
	return newSerialDevice(pipePort{r: clientR, w: clientW}), fake
}

func TestSerialDevicePowerState(t *testing.T) {
	dev, _ := newTestDevice(map[string]string{"q power": "power 2"})
	defer dev.Close()

	st, err := dev.PowerState()
	if err != nil {
		t.Fatalf("PowerState: %v", err)
	}
	if st != PowerOn {
		t.Errorf("state = %v, want on", st)
	}
}

func TestSerialDeviceRawIMU(t *testing.T) {
	dev, _ := newTestDevice(map[string]string{
		"q imu": "imu 10 -20 16384 1 -2 3 123456789",
	})
	defer dev.Close()

	got, err := dev.RawIMU()
	if err != nil {
		t.Fatalf("RawIMU: %v", err)
	}
	want := RawIMU{Ax: 10, Ay: -20, Az: 16384, Gx: 1, Gy: -2, Gz: 3, TimeUsec: 123456789}
	if got != want {
		t.Errorf("RawIMU = %+v, want %+v", got, want)
	}
}

func TestSerialDeviceMountOrientation(t *testing.T) {
	dev, _ := newTestDevice(map[string]string{
		"q mount": "mount -5.5 12.25 30.0 42.5",
	})
	defer dev.Close()

	got, err := dev.MountOrientation()
	if err != nil {
		t.Fatalf("MountOrientation: %v", err)
	}
	want := MountOrientation{Roll: -5.5, Pitch: 12.25, YawLocal: 30.0, YawAbsolute: 42.5}
	if got != want {
		t.Errorf("MountOrientation = %+v, want %+v", got, want)
	}
}

func TestSerialDeviceMoveToWireFormat(t *testing.T) {
	dev, fake := newTestDevice(map[string]string{
		"w move 10.000 -5.500 180.000": "ok",
	})
	defer dev.Close()

	if err := dev.MoveTo(10, -5.5, 180); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	lines := fake.lines()
	if len(lines) != 1 || lines[0] != "w move 10.000 -5.500 180.000" {
		t.Errorf("sent %q, want single move command", lines)
	}
}

func TestSerialDeviceSetAxisModesWireFormat(t *testing.T) {
	dev, fake := newTestDevice(map[string]string{
		"w axes 2 1 2 0 1 1": "ok",
	})
	defer dev.Close()

	tilt := AxisMode{Input: InputAngleAbsolute, Stabilize: true}
	roll := AxisMode{Input: InputAngleAbsolute, Stabilize: false}
	pan := AxisMode{Input: InputAngularRate, Stabilize: true}
	if err := dev.SetAxisModes(tilt, roll, pan); err != nil {
		t.Fatalf("SetAxisModes: %v", err)
	}
	lines := fake.lines()
	if len(lines) != 1 || lines[0] != "w axes 2 1 2 0 1 1" {
		t.Errorf("sent %q", lines)
	}
}

func TestSerialDeviceErrReply(t *testing.T) {
	dev, _ := newTestDevice(map[string]string{"q enc": "err encoder fault"})
	defer dev.Close()

	if _, err := dev.EncoderAngles(); err == nil {
		t.Fatal("EncoderAngles: want error on err reply")
	} else if !strings.Contains(err.Error(), "encoder fault") {
		t.Errorf("error %q does not carry device reason", err)
	}
}

func TestSerialDeviceUnexpectedReply(t *testing.T) {
	dev, _ := newTestDevice(map[string]string{"q enc": "mount 1 2 3 4"})
	defer dev.Close()

	if _, err := dev.EncoderAngles(); err == nil {
		t.Fatal("EncoderAngles: want error on mismatched reply prefix")
	}
}
