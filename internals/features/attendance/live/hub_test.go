package live

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishScopedBySchool(t *testing.T) {
	h := NewHub(4)
	a, b := uuid.New(), uuid.New()
	subA := h.Subscribe(a)
	subB := h.Subscribe(b)
	defer subA.Close()
	defer subB.Close()

	delivered, dropped := h.Publish(Event{Type: EventMarked, SchoolID: a, Date: "2026-10-14"})
	assert.Equal(t, 1, delivered)
	assert.Zero(t, dropped)

	ev := <-subA.C
	assert.Equal(t, EventMarked, ev.Type)
	assert.False(t, ev.SentAt.IsZero())
	assert.Empty(t, subB.C)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	id := uuid.New()
	sub := h.Subscribe(id)
	defer sub.Close()

	d1, x1 := h.Publish(Event{SchoolID: id})
	d2, x2 := h.Publish(Event{SchoolID: id})
	assert.Equal(t, []int{1, 0}, []int{d1, x1})
	assert.Equal(t, []int{0, 1}, []int{d2, x2})
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	h := NewHub(1)
	id := uuid.New()
	sub := h.Subscribe(id)
	require.Equal(t, 1, h.Subscribers(id))

	sub.Close()
	sub.Close()
	assert.Zero(t, h.Subscribers(id))
	_, open := <-sub.C
	assert.False(t, open)

	d, x := h.Publish(Event{SchoolID: id})
	assert.Zero(t, d+x)
}

func TestHub_ConcurrentPublishSubscribe(t *testing.T) {
	h := NewHub(8)
	id := uuid.New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := h.Subscribe(id)
			s.Close()
		}()
		go func() {
			defer wg.Done()
			h.Publish(Event{SchoolID: id})
		}()
	}
	wg.Wait()
	assert.Zero(t, h.Subscribers(id))
}
