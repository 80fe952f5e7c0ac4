package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gimbal_driver/internal/config"
	"github.com/relabs-tech/gimbal_driver/internal/imu"
	"github.com/relabs-tech/gimbal_driver/internal/orientation"
)

// RunConsole subscribes to all gimbal telemetry topics and prints one line
// per message. Handy for eyeballing a live driver.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to raw IMU
	imuToken := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: imu unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[IMU ] ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  t=%dus\n",
			s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, s.DeviceTimeUsec,
		)
	})
	imuToken.Wait()
	if imuToken.Error() != nil {
		return imuToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicIMU)

	// Subscribe to encoder angles
	encToken := client.Subscribe(cfg.TopicEncoder, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v orientation.Vector3Stamped
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("console: encoder unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[ENC ] x=%7.4f y=%7.4f z=%7.4f rad\n",
			v.X, v.Y, v.Z,
		)
	})
	encToken.Wait()
	if encToken.Error() != nil {
		return encToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEncoder)

	// Subscribe to global and local mount orientation
	printMount := func(tag string) mqtt.MessageHandler {
		return func(_ mqtt.Client, msg mqtt.Message) {
			var q orientation.QuaternionStamped
			if err := json.Unmarshal(msg.Payload(), &q); err != nil {
				log.Printf("console: mount unmarshal error: %v", err)
				return
			}
			roll, pitch, yaw := orientation.ToEulerYXZ(q.Quaternion)
			fmt.Printf(
				"[%s] ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  (%s)\n",
				tag, roll, pitch, yaw, q.FrameID,
			)
		}
	}

	globalToken := client.Subscribe(cfg.TopicMountGlobal, 0, printMount("GLOB"))
	globalToken.Wait()
	if globalToken.Error() != nil {
		return globalToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMountGlobal)

	localToken := client.Subscribe(cfg.TopicMountLocal, 0, printMount("LOCL"))
	localToken.Wait()
	if localToken.Error() != nil {
		return localToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMountLocal)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
