package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDDriver  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicGoal        string
	TopicIMU         string
	TopicEncoder     string
	TopicMountGlobal string
	TopicMountLocal  string

	// Serial link to the gimbal
	SerialPort string
	BaudRate   uint

	// Loop rates in Hz
	StatePollRate float64
	GoalPushRate  float64

	// Gimbal control modes
	// Mode: 0=off, 1=lock, 2=follow
	GimbalMode int
	// Axis input modes: 0=angle body frame, 1=angular rate, 2=angle absolute
	TiltAxisInputMode int
	TiltAxisStabilize bool
	RollAxisInputMode int
	RollAxisStabilize bool
	PanAxisInputMode  int
	PanAxisStabilize  bool
	// Adds the vehicle yaw drift back into commanded yaw.
	LockYawToVehicle bool

	// Maximum wait for the gimbal to report its motors on, milliseconds.
	BootTimeoutMs int

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for the config singleton, as in the
// other relabs producers: InitGlobal() sets it once, Get() reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func defaults() *Config {
	return &Config{
		MQTTClientIDDriver:  "gimbal-driver",
		MQTTClientIDConsole: "gimbal-console-subscriber",
		MQTTClientIDWeb:     "gimbal-web-subscriber",

		TopicGoal:        "gimbal/goal",
		TopicIMU:         "gimbal/imu",
		TopicEncoder:     "gimbal/encoder",
		TopicMountGlobal: "gimbal/mount/global",
		TopicMountLocal:  "gimbal/mount/local",

		StatePollRate: 10,
		GoalPushRate:  60,

		GimbalMode:        1,
		TiltAxisInputMode: 2,
		TiltAxisStabilize: true,
		RollAxisInputMode: 2,
		RollAxisStabilize: true,
		PanAxisInputMode:  2,
		PanAxisStabilize:  true,
		LockYawToVehicle:  true,

		BootTimeoutMs: 10000,
		WebServerPort: 8080,
	}
}

// Load reads the configuration file and returns a Config struct. Out-of-range
// values are rejected here, not at first use.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseAxisInputMode(key, value string) (int, error) {
	mode, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if mode < 0 || mode > 2 {
		return 0, fmt.Errorf("%s must be 0-2 (0=angle body, 1=angular rate, 2=angle absolute), got %d", key, mode)
	}
	return mode, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func parseRate(key, value string) (float64, error) {
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if rate <= 0 || rate > 300 {
		return 0, fmt.Errorf("%s must be in (0, 300] Hz, got %v", key, rate)
	}
	return rate, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DRIVER":
		c.MQTTClientIDDriver = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_GOAL":
		c.TopicGoal = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_ENCODER":
		c.TopicEncoder = value
	case "TOPIC_MOUNT_GLOBAL":
		c.TopicMountGlobal = value
	case "TOPIC_MOUNT_LOCAL":
		c.TopicMountLocal = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid BAUD_RATE %q: %w", value, err)
		}
		if rate == 0 {
			return fmt.Errorf("BAUD_RATE must be > 0")
		}
		c.BaudRate = uint(rate)

	// Rates
	case "STATE_POLL_RATE":
		rate, err := parseRate(key, value)
		if err != nil {
			return err
		}
		c.StatePollRate = rate
	case "GOAL_PUSH_RATE":
		rate, err := parseRate(key, value)
		if err != nil {
			return err
		}
		c.GoalPushRate = rate

	// Gimbal modes
	case "GIMBAL_MODE":
		mode, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GIMBAL_MODE %q: %w", value, err)
		}
		if mode < 0 || mode > 2 {
			return fmt.Errorf("GIMBAL_MODE must be 0-2 (0=off, 1=lock, 2=follow), got %d", mode)
		}
		c.GimbalMode = mode
	case "TILT_AXIS_INPUT_MODE":
		mode, err := parseAxisInputMode(key, value)
		if err != nil {
			return err
		}
		c.TiltAxisInputMode = mode
	case "ROLL_AXIS_INPUT_MODE":
		mode, err := parseAxisInputMode(key, value)
		if err != nil {
			return err
		}
		c.RollAxisInputMode = mode
	case "PAN_AXIS_INPUT_MODE":
		mode, err := parseAxisInputMode(key, value)
		if err != nil {
			return err
		}
		c.PanAxisInputMode = mode
	case "TILT_AXIS_STABILIZE":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.TiltAxisStabilize = b
	case "ROLL_AXIS_STABILIZE":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.RollAxisStabilize = b
	case "PAN_AXIS_STABILIZE":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.PanAxisStabilize = b
	case "LOCK_YAW_TO_VEHICLE":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.LockYawToVehicle = b

	// Timing
	case "BOOT_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BOOT_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("BOOT_TIMEOUT_MS must be > 0, got %d", ms)
		}
		c.BootTimeoutMs = ms

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.BaudRate == 0 {
		return fmt.Errorf("BAUD_RATE is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
