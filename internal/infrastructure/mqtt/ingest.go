package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/devclaim/internal/device"
)

// ingestTimeout bounds how long a single ingest message may hold a
// database write.
const ingestTimeout = 5 * time.Second

// Registrar is the subset of the device registry the ingest path needs.
type Registrar interface {
	Register(ctx context.Context, id, mac string) (*device.RegisterResult, error)
}

// ingestMessage is the wire format devices publish to the ingest topic.
// Same shape as the HTTP register body.
type ingestMessage struct {
	DeviceID   string `json:"device_id"`
	MACAddress string `json:"mac_address"`
}

// IngestSubscriber accepts registrations and heartbeats over MQTT.
//
// Constrained devices already hold a broker connection for events, so
// they can announce themselves without speaking HTTP. Delivery of the
// outcome is indirect: a device subscribes to its own
// devclaim/event/heartbeat/{id} topic (or registered, for first
// contact) and treats the echoed event as the acknowledgment.
type IngestSubscriber struct {
	client    *Client
	registrar Registrar
}

// NewIngestSubscriber creates the subscriber. Call Start to attach it
// to the broker.
func NewIngestSubscriber(client *Client, registrar Registrar) *IngestSubscriber {
	return &IngestSubscriber{
		client:    client,
		registrar: registrar,
	}
}

// Start subscribes to the ingest topic. The subscription survives
// reconnects via the client's restore mechanism.
func (s *IngestSubscriber) Start() error {
	topic := Topics{}.Ingest()
	if err := s.client.Subscribe(topic, byte(s.client.cfg.QoS), s.handle); err != nil {
		return fmt.Errorf("subscribing to ingest topic: %w", err)
	}
	return nil
}

// handle processes one ingest message. Returned errors are logged by
// the client's handler wrapper; there is no MQTT-level failure reply.
func (s *IngestSubscriber) handle(_ string, payload []byte) error {
	var msg ingestMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding ingest message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if _, err := s.registrar.Register(ctx, msg.DeviceID, msg.MACAddress); err != nil {
		return fmt.Errorf("registering device from ingest: %w", err)
	}
	return nil
}
