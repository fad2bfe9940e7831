package usecase

import (
	"sync"

	"MarketPulse/internal/domain/models"
)

const DefaultHistoryCapacity = 30

// HistoryBuffer is a bounded FIFO of average-probability entries.
type HistoryBuffer struct {
	mu       sync.Mutex
	capacity int
	entries  []models.HistoryEntry
}

func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryBuffer{capacity: capacity, entries: make([]models.HistoryEntry, 0, capacity)}
}

// Append adds e, evicts the oldest entries beyond capacity and returns a copy of the result.
func (h *HistoryBuffer) Append(e models.HistoryEntry) []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.capacity; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
	return h.copyLocked()
}

// Entries returns a copy of the current entries, oldest first.
func (h *HistoryBuffer) Entries() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copyLocked()
}

func (h *HistoryBuffer) Capacity() int { return h.capacity }

func (h *HistoryBuffer) copyLocked() []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
