package queue

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("queue entry not found")

// Queue is the ordered list of files awaiting upload. Safe for concurrent use.
type Queue struct {
	mu    sync.RWMutex
	items []FileMetadata
}

func New() *Queue {
	return &Queue{}
}

// Add appends entries, assigning IDs to those without one, and returns them.
func (q *Queue) Add(items ...FileMetadata) []FileMetadata {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := make([]FileMetadata, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		q.items = append(q.items, it)
		added = append(added, it)
	}
	return added
}

func (q *Queue) Get(id string) (FileMetadata, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if i := q.index(id); i >= 0 {
		return q.items[i], nil
	}
	return FileMetadata{}, ErrNotFound
}

// Replace swaps the entry with the same ID, e.g. after an edit.
func (q *Queue) Replace(meta FileMetadata) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.index(meta.ID)
	if i < 0 {
		return ErrNotFound
	}
	q.items[i] = meta
	return nil
}

func (q *Queue) SetStatus(id string, s Status) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.index(id)
	if i < 0 {
		return ErrNotFound
	}
	q.items[i].Status = s
	return nil
}

func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.index(id)
	if i < 0 {
		return ErrNotFound
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return nil
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// ClearSecured drops every entry that finished uploading.
func (q *Queue) ClearSecured() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0
	for _, it := range q.items {
		if it.Status.Kind == StatusSecured {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	q.items = kept
	return removed
}

// Snapshot returns a copy of the queue in order.
func (q *Queue) Snapshot() []FileMetadata {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]FileMetadata, len(q.items))
	copy(out, q.items)
	return out
}

// Uploadable returns valid entries that have not been secured yet.
func (q *Queue) Uploadable() []FileMetadata {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []FileMetadata
	for _, it := range q.items {
		if it.Valid && it.Status.Kind != StatusSecured && it.Status.Kind != StatusProcessing {
			out = append(out, it)
		}
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

func (q *Queue) index(id string) int {
	for i, it := range q.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
