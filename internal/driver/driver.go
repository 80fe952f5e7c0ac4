package driver

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/gimbal_driver/internal/gimbal"
	"github.com/relabs-tech/gimbal_driver/internal/imu"
	"github.com/relabs-tech/gimbal_driver/internal/orientation"
)

const (
	mountFrameID = "gimbal_link"
	imuFrameID   = "gimbal_body"
)

// Publisher delivers telemetry to the messaging substrate. The driver does
// not care whether that is MQTT or a test fake.
type Publisher interface {
	PublishIMU(imu.Sample) error
	PublishEncoder(orientation.Vector3Stamped) error
	PublishMountGlobal(orientation.QuaternionStamped) error
	PublishMountLocal(orientation.QuaternionStamped) error
}

// Config is the driver's slice of the application configuration, fixed for
// the lifetime of the process.
type Config struct {
	StatePollRate float64 // Hz
	GoalPushRate  float64 // Hz

	Mode     gimbal.Mode
	TiltAxis gimbal.AxisMode
	RollAxis gimbal.AxisMode
	PanAxis  gimbal.AxisMode

	LockYawToVehicle bool
	BootTimeout      time.Duration
}

// Driver runs the two control loops against a gimbal device: the state-poll
// loop reads telemetry and publishes it, the goal-push loop sends the latest
// desired orientation. The loops are clocked independently and share only
// the yaw-correction scalar and the latest goal, both single-writer atomics.
type Driver struct {
	cfg Config
	dev gimbal.Device
	pub Publisher

	// Latest desired orientation; nil until the first goal arrives.
	goal atomic.Pointer[orientation.Vector3Stamped]
	// DegToRad(yawAbsolute - yawLocal) from the most recent state poll,
	// stored as float64 bits.
	yawCorrection atomic.Uint64

	noGoalOnce sync.Once
	pollErrs   throttle
	pushErrs   throttle

	now func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config, dev gimbal.Device, pub Publisher) *Driver {
	if cfg.BootTimeout <= 0 {
		cfg.BootTimeout = 10 * time.Second
	}
	return &Driver{
		cfg:      cfg,
		dev:      dev,
		pub:      pub,
		pollErrs: throttle{every: 5 * time.Second},
		pushErrs: throttle{every: 5 * time.Second},
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// SetGoal replaces the current desired orientation wholesale. Roll, pitch
// and yaw ride in x, y, z, in radians. The freshest goal wins; there is no
// queue, and the same goal may be pushed on several consecutive ticks.
func (d *Driver) SetGoal(goal orientation.Vector3Stamped) {
	d.goal.Store(&goal)
}

// YawCorrection is the difference between absolute and vehicle-local yaw in
// radians, as of the most recent state poll.
func (d *Driver) YawCorrection() float64 {
	return math.Float64frombits(d.yawCorrection.Load())
}

func (d *Driver) setYawCorrection(rad float64) {
	d.yawCorrection.Store(math.Float64bits(rad))
}

// Start launches the state-poll and goal-push loops. Handshake must have
// succeeded first. The loops stop when ctx is canceled or Close is called.
func (d *Driver) Start(ctx context.Context) {
	d.wg.Add(2)
	go d.runLoop(ctx, d.cfg.StatePollRate, d.pollTick, &d.pollErrs)
	go d.runLoop(ctx, d.cfg.GoalPushRate, d.pushTick, &d.pushErrs)
}

// Close stops both loops and waits for any in-flight tick to finish, so the
// caller can close the device without tearing a request in half.
func (d *Driver) Close() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

func (d *Driver) runLoop(ctx context.Context, rateHz float64, tick func() error, errLog *throttle) {
	defer d.wg.Done()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			// A failed tick is skipped; the next one runs on schedule.
			if err := tick(); err != nil {
				errLog.Printf("%v", err)
			}
		}
	}
}

func (d *Driver) pollTick() error {
	raw, err := d.dev.RawIMU()
	if err != nil {
		return fmt.Errorf("reading raw imu: %w", err)
	}
	now := d.now()
	sample := imu.Sample{
		Frame: imuFrameID,
		Ax:    raw.Ax, Ay: raw.Ay, Az: raw.Az,
		Gx: raw.Gx, Gy: raw.Gy, Gz: raw.Gz,
		DeviceTimeUsec: raw.TimeUsec,
		Stamp:          now,
	}
	if err := d.pub.PublishIMU(sample); err != nil {
		d.pollErrs.Printf("publishing imu: %v", err)
	}

	enc, err := d.dev.EncoderAngles()
	if err != nil {
		return fmt.Errorf("reading encoder angles: %w", err)
	}
	// The device's b/a/c ordering onto x/y/z is what downstream consumers
	// expect; do not "fix" it.
	encoder := orientation.Vector3Stamped{
		X:     orientation.DegToRad(enc.B),
		Y:     orientation.DegToRad(enc.A),
		Z:     orientation.DegToRad(enc.C),
		Stamp: now,
	}
	if err := d.pub.PublishEncoder(encoder); err != nil {
		d.pollErrs.Printf("publishing encoder angles: %v", err)
	}

	mount, err := d.dev.MountOrientation()
	if err != nil {
		return fmt.Errorf("reading mount orientation: %w", err)
	}
	d.setYawCorrection(orientation.DegToRad(mount.YawAbsolute - mount.YawLocal))

	global := orientation.QuaternionStamped{
		Quaternion: orientation.FromEulerYXZ(mount.Roll, mount.Pitch, mount.YawAbsolute),
		FrameID:    mountFrameID,
		Stamp:      d.now(),
	}
	if err := d.pub.PublishMountGlobal(global); err != nil {
		d.pollErrs.Printf("publishing global mount orientation: %v", err)
	}

	local := orientation.QuaternionStamped{
		Quaternion: orientation.FromEulerYXZ(mount.Roll, mount.Pitch, mount.YawLocal),
		FrameID:    mountFrameID,
		Stamp:      d.now(),
	}
	if err := d.pub.PublishMountLocal(local); err != nil {
		d.pollErrs.Printf("publishing local mount orientation: %v", err)
	}
	return nil
}

func (d *Driver) pushTick() error {
	goal := d.goal.Load()
	if goal == nil {
		// Nothing to send before the first goal arrives. Logged once;
		// at goal-push rate this would otherwise flood the journal.
		d.noGoalOnce.Do(func() {
			log.Println("goal push: no orientation goal received yet")
		})
		return nil
	}

	yaw := goal.Z
	if d.cfg.LockYawToVehicle {
		yaw += d.YawCorrection()
	}

	// The goal vector stores (roll=x, pitch=y, yaw=z); the device takes
	// (pitch, roll, yaw).
	err := d.dev.MoveTo(
		orientation.RadToDeg(goal.Y),
		orientation.RadToDeg(goal.X),
		orientation.RadToDeg(yaw))
	if err != nil {
		return fmt.Errorf("sending move command: %w", err)
	}
	return nil
}
