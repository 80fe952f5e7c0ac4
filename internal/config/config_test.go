package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gimbal_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
# gimbal driver config
MQTT_BROKER=tcp://localhost:1883
SERIAL_PORT=/dev/ttyUSB0
BAUD_RATE=115200
`

func TestLoadMinimalAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatePollRate != 10 || cfg.GoalPushRate != 60 {
		t.Errorf("rates = %v/%v, want 10/60", cfg.StatePollRate, cfg.GoalPushRate)
	}
	if cfg.TopicGoal != "gimbal/goal" || cfg.TopicMountGlobal != "gimbal/mount/global" {
		t.Errorf("topic defaults not applied: %+v", cfg)
	}
	if !cfg.LockYawToVehicle || !cfg.TiltAxisStabilize {
		t.Errorf("bool defaults not applied: %+v", cfg)
	}
	if cfg.GimbalMode != 1 || cfg.TiltAxisInputMode != 2 {
		t.Errorf("mode defaults not applied: %+v", cfg)
	}
	if cfg.BootTimeoutMs != 10000 {
		t.Errorf("BootTimeoutMs = %d, want 10000", cfg.BootTimeoutMs)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
STATE_POLL_RATE=50
GOAL_PUSH_RATE=120.5
GIMBAL_MODE=2
LOCK_YAW_TO_VEHICLE=false
PAN_AXIS_INPUT_MODE=1
PAN_AXIS_STABILIZE=false
BOOT_TIMEOUT_MS=2500
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatePollRate != 50 || cfg.GoalPushRate != 120.5 {
		t.Errorf("rates = %v/%v", cfg.StatePollRate, cfg.GoalPushRate)
	}
	if cfg.GimbalMode != 2 || cfg.LockYawToVehicle || cfg.PanAxisInputMode != 1 || cfg.PanAxisStabilize {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.BootTimeoutMs != 2500 {
		t.Errorf("BootTimeoutMs = %d", cfg.BootTimeoutMs)
	}
}

func TestLoadRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"poll rate too high", "STATE_POLL_RATE=301", "STATE_POLL_RATE"},
		{"poll rate zero", "STATE_POLL_RATE=0", "STATE_POLL_RATE"},
		{"push rate negative", "GOAL_PUSH_RATE=-1", "GOAL_PUSH_RATE"},
		{"gimbal mode", "GIMBAL_MODE=3", "GIMBAL_MODE"},
		{"axis input mode", "TILT_AXIS_INPUT_MODE=5", "TILT_AXIS_INPUT_MODE"},
		{"bad bool", "ROLL_AXIS_STABILIZE=maybe", "ROLL_AXIS_STABILIZE"},
		{"boot timeout", "BOOT_TIMEOUT_MS=0", "BOOT_TIMEOUT_MS"},
		{"baud", "BAUD_RATE=0", "BAUD_RATE"},
		{"port", "WEB_SERVER_PORT=70000", "WEB_SERVER_PORT"},
		{"unknown key", "NO_SUCH_KEY=1", "unknown config key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, minimal+tc.line+"\n"))
			if err == nil {
				t.Fatalf("Load accepted %q", tc.line)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadRequiredKeys(t *testing.T) {
	for _, missing := range []string{"MQTT_BROKER", "SERIAL_PORT", "BAUD_RATE"} {
		var body strings.Builder
		for _, line := range strings.Split(strings.TrimSpace(minimal), "\n") {
			if strings.HasPrefix(line, missing+"=") {
				continue
			}
			body.WriteString(line + "\n")
		}
		_, err := Load(writeConfig(t, body.String()))
		if err == nil || !strings.Contains(err.Error(), missing) {
			t.Errorf("missing %s: err = %v", missing, err)
		}
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(writeConfig(t, minimal+"THIS IS NOT A KEY VALUE PAIR\n"))
	if err == nil {
		t.Fatal("Load accepted malformed line")
	}
}
