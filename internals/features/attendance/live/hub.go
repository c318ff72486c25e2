package live

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/helpers/metrics"
)

// Event is one push on a school's live attendance feed.
type Event struct {
	Type     string    `json:"type"`
	SchoolID uuid.UUID `json:"school_id"`
	Date     string    `json:"date"`
	Records  any       `json:"records"`
	SentAt   time.Time `json:"sent_at"`
}

const (
	EventMarked  = "attendance_marked"
	EventSignIn  = "staff_signed_in"
	EventSignOut = "staff_signed_out"
)

// Subscription receives events for one school until Close is called.
type Subscription struct {
	C        <-chan Event
	ch       chan Event
	schoolID uuid.UUID
	hub      *Hub
	once     sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub fans events out per school. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: map[uuid.UUID]map[*Subscription]struct{}{}, buffer: buffer}
}

func (h *Hub) Subscribe(schoolID uuid.UUID) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, schoolID: schoolID, hub: h}

	h.mu.Lock()
	set, ok := h.subs[schoolID]
	if !ok {
		set = map[*Subscription]struct{}{}
		h.subs[schoolID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	metrics.LiveSubscribers.Inc()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	if set, ok := h.subs[s.schoolID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.schoolID)
		}
	}
	// closed under the write lock so Publish never sends on a closed channel
	close(s.ch)
	h.mu.Unlock()
	metrics.LiveSubscribers.Dec()
}

// Publish returns how many subscribers got the event and how many were skipped.
func (h *Hub) Publish(ev Event) (delivered, dropped int) {
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.SchoolID] {
		select {
		case s.ch <- ev:
			delivered++
		default:
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("[LIVE] school=%s type=%s dropped=%d slow subscribers", ev.SchoolID, ev.Type, dropped)
	}
	return delivered, dropped
}

// Subscribers is the number of open subscriptions for a school.
func (h *Hub) Subscribers(schoolID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[schoolID])
}
