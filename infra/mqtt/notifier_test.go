package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/opsplan/core/model"
	coremon "github.com/kilianp07/opsplan/core/monitoring"
	"github.com/kilianp07/opsplan/core/plan"
)

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func sampleChange() plan.Change {
	return plan.Change{
		Op:       plan.OpAdd,
		Schedule: model.BaseSchedule{ID: "s1", BusID: "b1", DriverID: "d1", RouteID: "r1", Date: model.MustDate("2025-04-01"), StartTime: "08:00", EndTime: "10:00"},
		Time:     time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_PublishesOnOpTopic(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", TopicPrefix: "depot/plan/", QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	id, err := n.Notify(sampleChange())
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("event id %q is not a uuid", id)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(mc.published))
	}
	pub := mc.published[0]
	if pub.topic != "depot/plan/add" || pub.qos != 1 || !pub.retained {
		t.Fatalf("unexpected publish %#v", pub)
	}
	var ev Event
	if err := json.Unmarshal(pub.payload, &ev); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if ev.EventID != id || ev.Op != plan.OpAdd || ev.Schedule.ID != "s1" || ev.Schedule.Date.String() != "2025-04-01" {
		t.Fatalf("unexpected event %#v", ev)
	}
}

func TestNotifier_RetriesThenSucceeds(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	if _, err := n.Notify(sampleChange()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries, got %d publishes", len(mc.published))
	}
}

type recordMonitor struct {
	mu   sync.Mutex
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func TestNotifier_FailureCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	n.Publish(sampleChange())
	if len(mc.published) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(mc.published))
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["module"] != "mqtt" || mon.tags["schedule_id"] != "s1" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestNotifier_LWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", LWTTopic: "opsplan/status", LWTPayload: "offline", LWTQoS: 1})
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	if !mc.opts.WillEnabled || mc.opts.WillTopic != "opsplan/status" || string(mc.opts.WillPayload) != "offline" {
		t.Fatalf("will options incorrect")
	}
	n.Disconnect()
	if !mc.disconnected {
		t.Fatalf("disconnect not forwarded")
	}
}

func TestNotifier_ConnectError(t *testing.T) {
	mc := &mockClient{connectErr: fmt.Errorf("refused")}
	withMockClient(t, mc)
	if _, err := NewNotifier(Config{Broker: "tcp://localhost:1883"}); err == nil {
		t.Fatalf("expected connect error")
	}
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts         *paho.ClientOptions
	published    []published
	publishErrs  []error
	connectErr   error
	disconnected bool
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic: topic, qos: qos, retained: retained, payload: b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
