package grocery

import (
	"context"
	"strings"
	"time"

	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// Service owns shopping lists: parsing pasted text into items, merging
// duplicates and tracking checked state. Every write that adds items rebuilds
// the whole list through the consolidation engine so equivalent items never
// accumulate as separate rows.
type Service struct {
	store  ListStore
	engine *ingredient.Engine
}

// NewService creates a grocery list service.
func NewService(store ListStore, engine *ingredient.Engine) *Service {
	return &Service{
		store:  store,
		engine: engine,
	}
}

// CreateList creates an empty named list.
func (s *Service) CreateList(ctx context.Context, name string) (*List, error) {
	if strings.TrimSpace(name) == "" {
		name = "Shopping List"
	}
	list := &List{
		ID:        common.GenerateUUID(),
		Name:      strings.TrimSpace(name),
		Items:     []Item{},
		CreatedAt: time.Now(),
	}
	if err := s.store.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// EnsureList returns the list with the given name, creating it when absent.
// Voice clients address lists by name, not id.
func (s *Service) EnsureList(ctx context.Context, name string) (*List, error) {
	lists, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, list := range lists {
		if strings.EqualFold(list.Name, strings.TrimSpace(name)) {
			return list, nil
		}
	}
	return s.CreateList(ctx, name)
}

// GetList fetches one list.
func (s *Service) GetList(ctx context.Context, listID string) (*List, error) {
	return s.store.Get(ctx, listID)
}

// Lists returns every stored list.
func (s *Service) Lists(ctx context.Context) ([]*List, error) {
	return s.store.All(ctx)
}

// DeleteList removes a list entirely.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	return s.store.Delete(ctx, listID)
}

// AddText parses a pasted free-text block and merges the parsed lines into
// the list. When no line parses at all the list is left untouched and the
// caller gets ErrNothingParsed.
func (s *Service) AddText(ctx context.Context, listID, text string) (*List, error) {
	incoming := ingredient.ParseBlockLenient(text)
	if len(incoming) == 0 {
		return nil, common.ErrNothingParsed
	}

	list, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	existing := make([]ingredient.Line, 0, len(list.Items))
	for _, item := range list.Items {
		existing = append(existing, item.Line)
	}

	merged := s.engine.Consolidate(ctx, append(existing, incoming...))

	// Checked state carries over by identity, not position: consolidation
	// may reorder or collapse rows.
	checked := make(map[string]bool, len(list.Items))
	for _, item := range list.Items {
		if item.Checked {
			checked[itemKey(item.Line)] = true
		}
	}

	items := make([]Item, 0, len(merged))
	for _, line := range merged {
		items = append(items, Item{
			Line:    line,
			Checked: checked[itemKey(line)],
		})
	}
	list.Items = items

	if err := s.store.Save(ctx, list); err != nil {
		return nil, err
	}

	common.LogInfo("shopping list updated",
		zap.String("list_id", listID),
		zap.Int("added", len(incoming)),
		zap.Int("total", len(list.Items)),
	)
	return list, nil
}

// Toggle flips an item's checked state, matched by name.
func (s *Service) Toggle(ctx context.Context, listID, name string) (*List, error) {
	list, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(name))
	found := false
	for i := range list.Items {
		if strings.ToLower(strings.TrimSpace(list.Items[i].Name)) == target {
			list.Items[i].Checked = !list.Items[i].Checked
			found = true
			break
		}
	}
	if !found {
		return nil, common.ErrNotFound
	}

	if err := s.store.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// RemoveItem deletes an item from the list, matched by name.
func (s *Service) RemoveItem(ctx context.Context, listID, name string) (*List, error) {
	list, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(name))
	items := list.Items[:0]
	found := false
	for _, item := range list.Items {
		if strings.ToLower(strings.TrimSpace(item.Name)) == target {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	list.Items = items

	if err := s.store.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ClearChecked drops every checked item from the list.
func (s *Service) ClearChecked(ctx context.Context, listID string) (*List, error) {
	list, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	items := list.Items[:0]
	for _, item := range list.Items {
		if item.Checked {
			continue
		}
		items = append(items, item)
	}
	list.Items = items

	if err := s.store.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Items returns the unchecked lines of a list, the slice a shopping workflow
// iterates. Checked items are already in hand and are not shopped again.
func (s *Service) Items(ctx context.Context, listID string) ([]ingredient.Line, error) {
	list, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	lines := make([]ingredient.Line, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Checked {
			continue
		}
		lines = append(lines, item.Line)
	}
	return lines, nil
}

// ParseAndMerge is the stateless variant used by voice clients that hold
// their own list text: both blocks are parsed, combined and consolidated,
// and the merged lines returned without touching any stored list.
func (s *Service) ParseAndMerge(ctx context.Context, existingText, newText string) ([]ingredient.Line, error) {
	incoming := ingredient.ParseBlockLenient(newText)
	if len(incoming) == 0 {
		return nil, common.ErrNothingParsed
	}

	existing := ingredient.ParseBlockLenient(existingText)
	return s.engine.Consolidate(ctx, append(existing, incoming...)), nil
}

func itemKey(line ingredient.Line) string {
	return strings.ToLower(strings.TrimSpace(line.Name)) + "\x00" + ingredient.CanonicalUnit(line.Measurement)
}
