package grocery

import (
	"context"
	"sync"
	"time"

	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/pkg/common"
)

// Item is one shopping-list entry. Checked marks an item already in hand;
// it survives re-consolidation of the list.
type Item struct {
	ingredient.Line
	Checked bool `json:"checked"`
}

// List is a named shopping list.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListStore persists shopping lists.
type ListStore interface {
	Get(ctx context.Context, listID string) (*List, error)
	Save(ctx context.Context, list *List) error
	Delete(ctx context.Context, listID string) error
	All(ctx context.Context) ([]*List, error)
}

// MemoryListStore keeps lists in process memory.
type MemoryListStore struct {
	mu    sync.RWMutex
	lists map[string]*List
}

// NewMemoryListStore creates an empty in-memory list store.
func NewMemoryListStore() *MemoryListStore {
	return &MemoryListStore{
		lists: make(map[string]*List),
	}
}

// Get returns a deep copy of the stored list so callers cannot mutate the
// store without Save.
func (s *MemoryListStore) Get(ctx context.Context, listID string) (*List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[listID]
	if !ok {
		return nil, common.ErrListNotFound
	}
	return copyList(list), nil
}

// Save stores the list, stamping UpdatedAt.
func (s *MemoryListStore) Save(ctx context.Context, list *List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyList(list)
	stored.UpdatedAt = time.Now()
	s.lists[list.ID] = stored
	return nil
}

// Delete removes the list; deleting an absent list is not an error.
func (s *MemoryListStore) Delete(ctx context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lists, listID)
	return nil
}

// All returns copies of every stored list.
func (s *MemoryListStore) All(ctx context.Context) ([]*List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lists := make([]*List, 0, len(s.lists))
	for _, list := range s.lists {
		lists = append(lists, copyList(list))
	}
	return lists, nil
}

func copyList(list *List) *List {
	out := *list
	out.Items = make([]Item, len(list.Items))
	copy(out.Items, list.Items)
	return &out
}
