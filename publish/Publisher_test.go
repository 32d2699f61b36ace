package publish

import (
	"encoding/json"
	"testing"
	"time"

	"face-attendance/config"
	"face-attendance/model"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToken completes immediately with err.
type fakeToken struct {
	mqtt.Token
	err      error
	timedOut bool
}

func (t *fakeToken) Wait() bool                     { return !t.timedOut }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient records publishes; any other method of mqtt.Client panics.
type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestPublishMarked(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := NewMQTTPublisher(client, "/school/room-1/")

	event := model.AttendanceEvent{
		SessionId: "session-1",
		Name:      "monu",
		Date:      "2024-03-07",
		Time:      "09:15:05",
		MarkedAt:  time.Date(2024, 3, 7, 9, 15, 5, 0, time.UTC),
	}
	require.NoError(t, p.PublishMarked(event))

	require.Len(t, client.published, 1)
	assert.Equal(t, "/school/room-1/marked", client.published[0].topic)
	assert.Equal(t, byte(0), client.published[0].qos)

	var got model.AttendanceEvent
	require.NoError(t, json.Unmarshal(client.published[0].payload, &got))
	assert.Equal(t, event, got)
}

func TestPublishSummary(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := NewMQTTPublisher(client, "/attendance")

	summary := model.SessionSummary{SessionId: "s", Date: "2024-03-07", Present: []string{"rohan"}, Absent: []string{"monu"}}
	require.NoError(t, p.PublishSummary(summary))

	require.Len(t, client.published, 1)
	assert.Equal(t, "/attendance/summary", client.published[0].topic)
	assert.JSONEq(t, `{"sessionId":"s","date":"2024-03-07","present":["rohan"],"absent":["monu"]}`,
		string(client.published[0].payload))
}

func TestPublish_Errors(t *testing.T) {
	tests := []struct {
		name    string
		token   *fakeToken
		wantErr string
	}{
		{"broker error", &fakeToken{err: errors.New("not connected")}, "not connected"},
		{"timeout", &fakeToken{timedOut: true}, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMQTTPublisher(&fakeClient{token: tt.token}, "/attendance")
			err := p.PublishMarked(model.AttendanceEvent{Name: "monu"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClose(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	NewMQTTPublisher(client, "/attendance").Close()
	assert.True(t, client.disconnected)
}

func TestConnect_NoBroker(t *testing.T) {
	p, err := Connect(config.MQTTSettings{})
	require.NoError(t, err)
	assert.Equal(t, Nop{}, p)
	assert.NoError(t, p.PublishMarked(model.AttendanceEvent{}))
	assert.NoError(t, p.PublishSummary(model.SessionSummary{}))
	p.Close()
}
