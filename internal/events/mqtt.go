// FilePath: internal/events/mqtt.go
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gardenhub/server/hub/internal/config"
	nuts "github.com/vaudience/go-nuts"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 1000 // milliseconds
)

// tokenPublisher is the part of the paho client the publisher needs.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// MQTTPublisher mirrors hub events to an MQTT broker as JSON under
// <prefix>/<event path>, e.g. garden/control/changed.
type MQTTPublisher struct {
	client pahomqtt.Client
	pub    tokenPublisher
	prefix string
	qos    byte
}

// ConnectMQTT connects to the broker in cfg.
func ConnectMQTT(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		nuts.L.Warnf("[MQTT] Connection lost: %v", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %v", mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}

	nuts.L.Infof("[MQTT] Connected to %s:%d as %s", cfg.Host, cfg.Port, cfg.ClientID)
	p := newMQTTPublisher(client, cfg)
	p.client = client
	return p, nil
}

func newMQTTPublisher(pub tokenPublisher, cfg config.MQTTConfig) *MQTTPublisher {
	qos := cfg.QoS
	if qos < 0 || qos > 2 {
		qos = 1
	}
	return &MQTTPublisher{
		pub:    pub,
		prefix: strings.Trim(cfg.TopicPrefix, "/"),
		qos:    byte(qos),
	}
}

// Attach forwards every bus event to the broker.
func (p *MQTTPublisher) Attach(bus *Bus) {
	bus.SubscribeAll(p.Forward)
}

// Forward publishes one event. Failures are logged only.
func (p *MQTTPublisher) Forward(evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		nuts.L.Errorf("[MQTT] Failed to encode %s: %v", evt.Name, err)
		return
	}

	topic := p.Topic(evt.Name)
	token := p.pub.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		nuts.L.Warnf("[MQTT] Publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		nuts.L.Errorf("[MQTT] Publish to %s failed: %v", topic, err)
	}
}

// Topic maps an event name to its topic.
func (p *MQTTPublisher) Topic(name string) string {
	path := strings.ReplaceAll(name, ".", "/")
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

func (p *MQTTPublisher) Close() {
	if p.client != nil {
		p.client.Disconnect(mqttDisconnectQuiesce)
	}
}
