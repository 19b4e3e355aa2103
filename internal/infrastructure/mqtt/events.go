package mqtt

import (
	"encoding/json"
	"sync"

	"github.com/nerrad567/devclaim/internal/device"
)

// eventQueueSize bounds the publish backlog. Lifecycle events are
// low-rate; a full queue means the broker has been gone a while and
// dropping is preferable to blocking registrations.
const eventQueueSize = 256

// EventPublisher bridges device lifecycle events onto MQTT topics.
//
// It implements device.EventSink. Publishing is asynchronous: events
// are queued and written by a single worker goroutine, so callers
// never wait on broker acknowledgments. Events that cannot be queued
// or delivered are dropped with a warning; the database remains the
// source of truth.
type EventPublisher struct {
	client *Client
	qos    byte
	queue  chan device.Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewEventPublisher creates a publisher and starts its worker.
// Call Close during shutdown to drain and stop it.
func NewEventPublisher(client *Client, qos byte) *EventPublisher {
	p := &EventPublisher{
		client: client,
		qos:    qos,
		queue:  make(chan device.Event, eventQueueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishDeviceEvent queues a lifecycle event for publication.
// Never blocks; drops the event if the queue is full or closed.
func (p *EventPublisher) PublishDeviceEvent(event device.Event) {
	select {
	case p.queue <- event:
	case <-p.done:
	default:
		if logger := p.client.getLogger(); logger != nil {
			logger.Warn("event queue full, dropping event",
				"type", string(event.Type), "device_id", event.DeviceID)
		}
	}
}

// Close stops the worker after draining queued events.
func (p *EventPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (p *EventPublisher) run() {
	for {
		select {
		case event := <-p.queue:
			p.publish(event)
		case <-p.done:
			// Drain whatever is already queued, then stop.
			for {
				select {
				case event := <-p.queue:
					p.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (p *EventPublisher) publish(event device.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		if logger := p.client.getLogger(); logger != nil {
			logger.Error("encoding device event", "error", err)
		}
		return
	}

	topic := Topics{}.DeviceEvent(string(event.Type), event.DeviceID)
	if err := p.client.Publish(topic, payload, p.qos, false); err != nil {
		if logger := p.client.getLogger(); logger != nil {
			logger.Warn("publishing device event",
				"topic", topic, "error", err)
		}
	}
}
