package comments

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a comment id is unknown
var ErrNotFound = errors.New("comment not found")

// Store persists comments per target. IncrementHelpful must be additive so
// concurrent votes are never lost.
type Store interface {
	Add(ctx context.Context, c *Comment) error
	List(ctx context.Context, target string) ([]Comment, error)
	IncrementHelpful(ctx context.Context, id uuid.UUID) (int, error)
}

// MemoryStore keeps comments in process memory
type MemoryStore struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*Comment
	byTarget map[string][]uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[uuid.UUID]*Comment),
		byTarget: make(map[string][]uuid.UUID),
	}
}

// Add stores a copy of c
func (m *MemoryStore) Add(ctx context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *c
	m.byID[c.ID] = &stored
	m.byTarget[c.Target] = append(m.byTarget[c.Target], c.ID)
	return nil
}

// List returns the comments for target, newest first
func (m *MemoryStore) List(ctx context.Context, target string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byTarget[target]
	out := make([]Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.byID[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// IncrementHelpful adds one helpful vote and returns the new count
func (m *MemoryStore) IncrementHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	c.HelpfulCount++
	return c.HelpfulCount, nil
}
