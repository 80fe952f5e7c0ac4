package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gimbal_driver/internal/config"
	"github.com/relabs-tech/gimbal_driver/internal/driver"
	"github.com/relabs-tech/gimbal_driver/internal/gimbal"
	"github.com/relabs-tech/gimbal_driver/internal/orientation"
)

// RunGimbalDriver wires everything together: config, MQTT, the serial (or
// mock) gimbal, the startup handshake and the control loops. Blocks until
// SIGINT/SIGTERM, then shuts down in order: loops first, device after.
func RunGimbalDriver(useMock bool) error {
	log.Println("starting gimbal driver (serial → MQTT)")

	cfg := config.Get()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDriver)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// --- open the gimbal device ---
	var dev gimbal.Device
	if useMock {
		log.Println("using mock gimbal device")
		dev = gimbal.NewMockDevice()
	} else {
		sd, err := gimbal.Open(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			return fmt.Errorf("opening gimbal serial port: %w", err)
		}
		dev = sd
		log.Printf("gimbal serial port opened on %s at %d baud", cfg.SerialPort, cfg.BaudRate)
	}

	drv := driver.New(driver.Config{
		StatePollRate: cfg.StatePollRate,
		GoalPushRate:  cfg.GoalPushRate,
		Mode:          gimbal.ModeFromInt(cfg.GimbalMode),
		TiltAxis: gimbal.AxisMode{
			Input:     gimbal.AxisInputModeFromInt(cfg.TiltAxisInputMode),
			Stabilize: cfg.TiltAxisStabilize,
		},
		RollAxis: gimbal.AxisMode{
			Input:     gimbal.AxisInputModeFromInt(cfg.RollAxisInputMode),
			Stabilize: cfg.RollAxisStabilize,
		},
		PanAxis: gimbal.AxisMode{
			Input:     gimbal.AxisInputModeFromInt(cfg.PanAxisInputMode),
			Stabilize: cfg.PanAxisStabilize,
		},
		LockYawToVehicle: cfg.LockYawToVehicle,
		BootTimeout:      time.Duration(cfg.BootTimeoutMs) * time.Millisecond,
	}, dev, &mqttPublisher{
		client:           client,
		topicIMU:         cfg.TopicIMU,
		topicEncoder:     cfg.TopicEncoder,
		topicMountGlobal: cfg.TopicMountGlobal,
		topicMountLocal:  cfg.TopicMountLocal,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- startup handshake; fatal if the gimbal never comes up ---
	if err := drv.Handshake(ctx); err != nil {
		dev.Close()
		return fmt.Errorf("gimbal handshake: %w", err)
	}
	log.Println("gimbal handshake complete, starting control loop")

	// --- goal intake: latest command wins ---
	token := client.Subscribe(cfg.TopicGoal, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var goal orientation.Vector3Stamped
		if err := json.Unmarshal(msg.Payload(), &goal); err != nil {
			log.Printf("goal payload unmarshal error: %v", err)
			return
		}
		drv.SetGoal(goal)
	})
	token.Wait()
	if token.Error() != nil {
		dev.Close()
		return fmt.Errorf("subscribing to %s: %w", cfg.TopicGoal, token.Error())
	}
	log.Printf("subscribed to %s", cfg.TopicGoal)

	drv.Start(ctx)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down")

	cancel()
	drv.Close()
	if err := dev.Close(); err != nil {
		log.Printf("closing gimbal device: %v", err)
	}
	return nil
}
