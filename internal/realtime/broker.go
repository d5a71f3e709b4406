package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
)

// Relay fans published bodies out to every server instance.
type Relay interface {
	Publish(ctx context.Context, destination string, body []byte) error
}

// Broker keeps the subscription table of this instance and delivers MESSAGE
// frames to subscribed sessions.
type Broker struct {
	mu    sync.RWMutex
	subs  map[string]map[*Session]string // destination -> session -> subscription id
	relay Relay
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*Session]string)}
}

// SetRelay routes publishes through r. Call before serving.
func (b *Broker) SetRelay(r Relay) {
	b.relay = r
}

// Publish encodes payload as JSON and delivers it to subscribers of destination,
// through the relay when one is set.
func (b *Broker) Publish(ctx context.Context, destination string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if b.relay != nil {
		return b.relay.Publish(ctx, destination, body)
	}
	b.Deliver(destination, body)
	return nil
}

// Deliver sends body to every local subscriber of destination.
func (b *Broker) Deliver(destination string, body []byte) {
	b.mu.RLock()
	targets := make(map[*Session]string, len(b.subs[destination]))
	for s, id := range b.subs[destination] {
		targets[s] = id
	}
	b.mu.RUnlock()

	for s, subID := range targets {
		f := frame.New(frame.MESSAGE,
			frame.Destination, destination,
			frame.Subscription, subID,
			frame.MessageId, uuid.NewString(),
			frame.ContentType, "application/json",
			frame.ContentLength, strconv.Itoa(len(body)),
		)
		f.Body = body
		if err := s.writeFrame(f); err != nil {
			slog.Warn("realtime delivery dropped", "session_id", s.id, "destination", destination, "error", err)
		}
	}
}

// Subscribers reports how many local sessions are subscribed to destination.
func (b *Broker) Subscribers(destination string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[destination])
}

func (b *Broker) subscribe(s *Session, subID, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[destination]
	if !ok {
		set = make(map[*Session]string)
		b.subs[destination] = set
	}
	set[s] = subID
}

func (b *Broker) unsubscribe(s *Session, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[destination]
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, destination)
	}
}

func (b *Broker) removeSession(s *Session, destinations []string) {
	for _, d := range destinations {
		b.unsubscribe(s, d)
	}
}
