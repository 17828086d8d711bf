package notifications

import (
	"sync"
	"time"
)

// Type classifies a progress notification entry.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

// Notification is one entry in the progress sink, keyed by ID. The ID acts as
// the dedup/merge key; the submission workflow keys file-upload entries by
// file name and job entries by job name.
type Notification struct {
	ID             string    `json:"id"`
	Value          int       `json:"value"`
	Description    string    `json:"description"`
	Type           Type      `json:"type"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Terminal reports whether the entry ends its job's notification stream.
func (n Notification) Terminal() bool {
	return n.Type == TypeSuccess || n.Type == TypeError
}

// Sink is the upsert port the workflow phases write to.
type Sink interface {
	Upsert(entry Notification)
}

// Hub is an ordered, mutex-guarded collection of notifications keyed by ID.
// Upserting replaces an existing entry in place (preserving its position) or
// appends a new one. Entries are never pruned here; removal belongs to the
// consumer rendering them.
type Hub struct {
	mu          sync.Mutex
	order       []string
	entries     map[string]Notification
	subscribers []chan Notification
	now         func() time.Time
}

var _ Sink = (*Hub)(nil)

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{
		entries: make(map[string]Notification),
		now:     time.Now,
	}
}

// Upsert inserts or replaces the entry with the same ID. Info-type values
// never regress: an info upsert below the current value is clamped up so
// progress stays monotonic until a terminal entry arrives.
func (h *Hub) Upsert(entry Notification) {
	if entry.ID == "" {
		return
	}
	h.mu.Lock()
	entry.UpdatedAt = h.now()
	current, exists := h.entries[entry.ID]
	if exists && entry.Type == TypeInfo && entry.Value < current.Value {
		entry.Value = current.Value
	}
	if !exists {
		h.order = append(h.order, entry.ID)
	}
	h.entries[entry.ID] = entry
	subscribers := make([]chan Notification, len(h.subscribers))
	copy(subscribers, h.subscribers)
	h.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- entry:
		default:
			// Slow subscribers drop updates rather than stall the workflow.
		}
	}
}

// Get returns the entry with the given ID.
func (h *Hub) Get(id string) (Notification, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.entries[id]
	return entry, ok
}

// Snapshot returns all entries in insertion order.
func (h *Hub) Snapshot() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.entries[id])
	}
	return out
}

// Subscribe returns a buffered channel that receives every upsert. Call the
// returned cancel function to stop delivery and close the channel.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 64)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for i, sub := range h.subscribers {
				if sub == ch {
					h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
					break
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
