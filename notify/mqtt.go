package notify

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const mqttConnectTimeout = 10 * time.Second

// MQTT publishes scare notifications to a broker topic, mainly for
// driving home automation props alongside the audio.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to the broker. The client keeps reconnecting in the
// background if the connection drops.
func NewMQTT(broker, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("scarecam").
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Infof("Connected to MQTT broker %v", broker)
	return &MQTT{client: client, topic: topic}, nil
}

// Notify implements Listener by publishing the notification JSON.
func (m *MQTT) Notify(n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
