package driver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/gimbal_driver/internal/gimbal"
)

// ErrBootTimeout means the gimbal never reported its motors on within the
// configured boot timeout. Fatal at startup.
var ErrBootTimeout = errors.New("gimbal did not reach powered-on state in time")

var bootPollInterval = 100 * time.Millisecond

// Handshake brings the gimbal to a commandable state and applies the
// configured control modes: query power state, turn on if off, wait (bounded)
// until on, then one SetMode call followed by one combined SetAxisModes call.
func (d *Driver) Handshake(ctx context.Context) error {
	state, err := d.dev.PowerState()
	if err != nil {
		return fmt.Errorf("querying gimbal power state: %w", err)
	}

	if state == gimbal.PowerOff {
		log.Println("gimbal is off, turning it on")
		if err := d.dev.PowerOn(); err != nil {
			return fmt.Errorf("turning gimbal on: %w", err)
		}
	}

	deadline := time.Now().Add(d.cfg.BootTimeout)
	for state != gimbal.PowerOn {
		if state == gimbal.PowerError {
			return fmt.Errorf("gimbal reported error state while powering on")
		}
		if !time.Now().Before(deadline) {
			return ErrBootTimeout
		}
		log.Println("waiting for gimbal to turn on")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bootPollInterval):
		}
		state, err = d.dev.PowerState()
		if err != nil {
			return fmt.Errorf("querying gimbal power state: %w", err)
		}
	}

	if err := d.dev.SetMode(d.cfg.Mode); err != nil {
		return fmt.Errorf("setting gimbal mode: %w", err)
	}
	if err := d.dev.SetAxisModes(d.cfg.TiltAxis, d.cfg.RollAxis, d.cfg.PanAxis); err != nil {
		return fmt.Errorf("setting axis modes: %w", err)
	}
	return nil
}
