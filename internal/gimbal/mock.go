// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package gimbal

import (
	"math"
	"sync"
	"time"
)

// MockDevice is an in-memory gimbal for -mock runs and tests. It powers on
// after a few state polls and synthesizes smooth, slowly moving telemetry.
type MockDevice struct {
	mu    sync.Mutex
	state PowerState
	polls int

	mode            Mode
	tilt, roll, pan AxisMode
	targetPitch     float64
	targetRoll      float64
	targetYaw       float64

	start time.Time
}

func NewMockDevice() *MockDevice {
	return &MockDevice{state: PowerOff, start: time.Now()}
}

func (m *MockDevice) PowerState() (PowerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == PowerInitializing {
		m.polls++
		if m.polls >= 3 {
			m.state = PowerOn
		}
	}
	return m.state, nil
}

func (m *MockDevice) PowerOn() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == PowerOff {
		m.state = PowerInitializing
		m.polls = 0
	}
	return nil
}

func (m *MockDevice) SetMode(mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	return nil
}

func (m *MockDevice) SetAxisModes(tilt, roll, pan AxisMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tilt, m.roll, m.pan = tilt, roll, pan
	return nil
}

func (m *MockDevice) RawIMU() (RawIMU, error) {
	elapsed := time.Since(m.start).Seconds()
	return RawIMU{
		Ax: int16(500 * math.Sin(elapsed)),
		Ay: int16(500 * math.Cos(elapsed*0.7)),
		Az: int16(16384),
		Gx: int16(20 * math.Sin(elapsed*2)),
		Gy: int16(20 * math.Cos(elapsed*2)),
		Gz: int16(5 * math.Sin(elapsed*0.3)),
		TimeUsec: uint64(time.Since(m.start).Microseconds()),
	}, nil
}

func (m *MockDevice) EncoderAngles() (EncoderAngles, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return EncoderAngles{A: m.targetPitch, B: m.targetRoll, C: m.targetYaw}, nil
}

func (m *MockDevice) MountOrientation() (MountOrientation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Absolute yaw drifts relative to the vehicle-local yaw, like the real
	// device when the vehicle is turning.
	drift := 0.5 * time.Since(m.start).Seconds()
	return MountOrientation{
		Roll:        m.targetRoll,
		Pitch:       m.targetPitch,
		YawLocal:    m.targetYaw,
		YawAbsolute: m.targetYaw + drift,
	}, nil
}

func (m *MockDevice) MoveTo(pitchDeg, rollDeg, yawDeg float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targetPitch, m.targetRoll, m.targetYaw = pitchDeg, rollDeg, yawDeg
	return nil
}

func (m *MockDevice) Close() error {
	return nil
}
