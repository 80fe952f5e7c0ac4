package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gimbal_driver/internal/imu"
	"github.com/relabs-tech/gimbal_driver/internal/orientation"
)

// mqttPublisher maps driver telemetry onto the configured MQTT topics,
// one JSON payload per message.
type mqttPublisher struct {
	client mqtt.Client

	topicIMU         string
	topicEncoder     string
	topicMountGlobal string
	topicMountLocal  string
}

func (p *mqttPublisher) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal for %s: %w", topic, err)
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

func (p *mqttPublisher) PublishIMU(s imu.Sample) error {
	return p.publish(p.topicIMU, s)
}

func (p *mqttPublisher) PublishEncoder(v orientation.Vector3Stamped) error {
	return p.publish(p.topicEncoder, v)
}

func (p *mqttPublisher) PublishMountGlobal(q orientation.QuaternionStamped) error {
	return p.publish(p.topicMountGlobal, q)
}

func (p *mqttPublisher) PublishMountLocal(q orientation.QuaternionStamped) error {
	return p.publish(p.topicMountLocal, q)
}
