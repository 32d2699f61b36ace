// Package publish announces attendance on an MQTT broker so that other
// services (a dashboard, a door display) can follow a session live.
package publish

import (
	"encoding/json"
	"strings"
	"time"

	"face-attendance/config"
	"face-attendance/model"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

var log = logrus.WithField("component", "MQTT")

type Publisher interface {
	PublishMarked(event model.AttendanceEvent) error
	PublishSummary(summary model.SessionSummary) error
	Close()
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) PublishMarked(model.AttendanceEvent) error { return nil }
func (Nop) PublishSummary(model.SessionSummary) error { return nil }
func (Nop) Close()                                    {}

type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker from settings. An empty broker yields Nop.
func Connect(settings config.MQTTSettings) (Publisher, error) {
	if settings.Broker == "" {
		log.Debugln("No MQTT broker configured, events are not published")
		return Nop{}, nil
	}

	clientId := uuid.New().String()
	log.Infoln("Connecting to MQTT", settings.Broker, "with client ID:", clientId)
	opts := mqtt.NewClientOptions().AddBroker(settings.Broker).SetClientID(clientId)
	opts.SetUsername(settings.Username)
	opts.SetPassword(settings.Password)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetConnectTimeout(30 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.Infoln("Connected to MQTT")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "fail to connect to MQTT broker %s", settings.Broker)
	}
	return NewMQTTPublisher(client, settings.Topic), nil
}

// NewMQTTPublisher publishes on an already connected client under topic.
func NewMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: strings.TrimSuffix(topic, "/")}
}

func (p *MQTTPublisher) MarkedTopic() string {
	return p.topic + "/marked"
}

func (p *MQTTPublisher) SummaryTopic() string {
	return p.topic + "/summary"
}

func (p *MQTTPublisher) PublishMarked(event model.AttendanceEvent) error {
	return p.publish(p.MarkedTopic(), event)
}

func (p *MQTTPublisher) PublishSummary(summary model.SessionSummary) error {
	return p.publish(p.SummaryTopic(), summary)
}

func (p *MQTTPublisher) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "fail to marshal payload")
	}
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "fail to publish to %s", topic)
	}
	log.Debugln("Published to", topic)
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
	log.Infoln("Disconnected from MQTT")
}
