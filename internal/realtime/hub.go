package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

const defaultSendBuffer = 64

type subscriberGauge interface {
	AddLiveSubscribers(delta int)
}

// Subscription is one live listener on a complaint topic.
type Subscription struct {
	topic string
	actor models.Actor
	after int64
	send  chan models.RealtimeMessage
	hub   *Hub
	once  sync.Once
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan models.RealtimeMessage {
	return s.send
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close detaches the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub fans real-time messages out to in-process subscribers. Each subscriber has a
// bounded buffer; a subscriber that falls behind misses messages instead of stalling
// the publisher. Messages older than the last one delivered on a topic are discarded.
type Hub struct {
	mu          sync.RWMutex
	topics      map[string]map[*Subscription]struct{}
	lastVersion map[string]int64
	buffer      int
	gauge       subscriberGauge
	logger      *zap.Logger
	closed      bool
}

// NewHub builds a hub. gauge may be nil.
func NewHub(buffer int, gauge subscriberGauge, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics:      make(map[string]map[*Subscription]struct{}),
		lastVersion: make(map[string]int64),
		buffer:      buffer,
		gauge:       gauge,
		logger:      logger,
	}
}

// Subscribe registers actor on topic for messages newer than after. Every message is
// checked against the complaint it carries; an actor who can no longer read the
// complaint is unsubscribed, and the rest get the view for their role.
func (h *Hub) Subscribe(topic string, actor models.Actor, after int64) *Subscription {
	sub := &Subscription{
		topic: topic,
		actor: actor,
		after: after,
		send:  make(chan models.RealtimeMessage, h.buffer),
		hub:   h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.send) })
		return sub
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.addGauge(1)
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evict(sub.topic, sub)
}

// evict removes sub from topic and closes its channel. Callers hold h.mu.
func (h *Hub) evict(topic string, sub *Subscription) {
	if subs, ok := h.topics[topic]; ok {
		if _, member := subs[sub]; member {
			delete(subs, sub)
			h.addGauge(-1)
		}
		if len(subs) == 0 {
			delete(h.topics, topic)
			delete(h.lastVersion, topic)
		}
	}
	sub.once.Do(func() { close(sub.send) })
}

// Publish delivers msg to every subscriber of topic without blocking.
func (h *Hub) Publish(ctx context.Context, topic string, msg models.RealtimeMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	subs := h.topics[topic]
	if len(subs) == 0 {
		h.mu.Unlock()
		return nil
	}
	if last, seen := h.lastVersion[topic]; seen && msg.Version <= last {
		h.mu.Unlock()
		h.logger.Debug("stale live update discarded", zap.String("topic", topic), zap.Int64("version", msg.Version), zap.Int64("last", last))
		return nil
	}
	h.lastVersion[topic] = msg.Version
	defer h.mu.Unlock()

	// Sends never block, so delivering under the lock keeps close and send ordered.
	for sub := range subs {
		if msg.Version <= sub.after {
			continue
		}
		if msg.Complaint != nil && !msg.Complaint.ReadableBy(sub.actor) {
			h.evict(topic, sub)
			h.logger.Debug("live subscriber lost read access", zap.String("topic", topic), zap.String("actor_id", sub.actor.ID), zap.Int64("version", msg.Version))
			continue
		}
		select {
		case sub.send <- VisibleMessage(msg, sub.actor.Role):
		default:
			h.logger.Debug("live subscriber lagging, update dropped", zap.String("topic", topic), zap.Int64("version", msg.Version))
		}
	}
	return nil
}

// Subscribers returns the number of listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.topics {
		for sub := range subs {
			sub.once.Do(func() { close(sub.send) })
			h.addGauge(-1)
		}
		delete(h.topics, topic)
	}
	h.lastVersion = make(map[string]int64)
}

func (h *Hub) addGauge(delta int) {
	if h.gauge != nil {
		h.gauge.AddLiveSubscribers(delta)
	}
}

// VisibleMessage returns msg as the given role may see it. Residents never receive
// internal notes, neither in the snapshot nor in the diff.
func VisibleMessage(msg models.RealtimeMessage, role models.UserRole) models.RealtimeMessage {
	out := msg
	out.Complaint = msg.Complaint.VisibleTo(role)
	if role != models.RoleResident {
		return out
	}
	changes := make([]models.FieldChange, 0, len(msg.Changes))
	for _, c := range msg.Changes {
		if c.Field == models.FieldNotes && internalNote(c.To) {
			continue
		}
		changes = append(changes, c)
	}
	out.Changes = changes
	return out
}

func internalNote(v interface{}) bool {
	switch n := v.(type) {
	case models.Note:
		return n.Internal
	case *models.Note:
		return n != nil && n.Internal
	case map[string]interface{}:
		internal, _ := n["internal"].(bool)
		return internal
	}
	return false
}
