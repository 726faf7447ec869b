package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"auto-cart/internal/core/catalog"
	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// Searcher is the slice of the catalog client the workflow needs.
type Searcher interface {
	Search(ctx context.Context, term, locationID, token string) ([]catalog.CandidateProduct, error)
	AddToCart(ctx context.Context, items []catalog.CartItem, token string) error
}

// TokenSource supplies a valid bearer token for an account.
type TokenSource interface {
	EnsureValidToken(ctx context.Context, accountID string) (string, error)
}

// ListSource supplies the shopping-list snapshot a workflow iterates.
type ListSource interface {
	Items(ctx context.Context, listID string) ([]ingredient.Line, error)
}

// Workflow drives the per-session fulfillment state machine. Each public
// method is one step triggered by one inbound request; access to a given
// session's state is serialized by a per-session lock (single writer per
// session id).
type Workflow struct {
	store   Store
	catalog Searcher
	tokens  TokenSource
	lists   ListSource
	locks   sync.Map
}

// New creates a fulfillment workflow.
func New(store Store, searcher Searcher, tokens TokenSource, lists ListSource) *Workflow {
	return &Workflow{
		store:   store,
		catalog: searcher,
		tokens:  tokens,
		lists:   lists,
	}
}

func (w *Workflow) lockFor(sessionID string) *sync.Mutex {
	mu, _ := w.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Begin snapshots the shopping list into a FIFO pending queue and starts the
// session. Calling Begin again for the same session discards any unfinished
// workflow. With a location already known it advances straight to the first
// search; otherwise the session waits in AWAITING_LOCATION.
func (w *Workflow) Begin(ctx context.Context, sessionID, accountID, listID, locationID string) (*State, error) {
	if sessionID == "" {
		sessionID = common.GenerateUUID()
	}

	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	token, err := w.tokens.EnsureValidToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	items, err := w.lists.Items(ctx, listID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: shopping list is empty", common.ErrInvalidRequest)
	}

	state := &State{
		SessionID:  sessionID,
		AccountID:  accountID,
		ListID:     listID,
		LocationID: locationID,
		Phase:      PhaseAuthenticating,
		Pending:    items,
		Selections: []CartSelection{},
		Skipped:    []string{},
	}

	if locationID == "" {
		state.Phase = PhaseAwaitingLocation
		if err := w.store.Save(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	if err := w.advance(ctx, state, token); err != nil {
		return nil, err
	}
	if err := w.store.Save(ctx, state); err != nil {
		return nil, err
	}

	common.LogInfo("shopping workflow started",
		zap.String("session_id", sessionID),
		zap.String("list_id", listID),
		zap.Int("pending", len(state.Pending)),
	)
	return state, nil
}

// SetLocation records the chosen store and advances to the first search.
func (w *Workflow) SetLocation(ctx context.Context, sessionID, locationID string) (*State, error) {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := w.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	token, err := w.tokens.EnsureValidToken(ctx, state.AccountID)
	if err != nil {
		return nil, err
	}

	state.LocationID = locationID
	if err := w.advance(ctx, state, token); err != nil {
		return nil, err
	}
	if err := w.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// advance performs the search-next transition: pop the front ingredient and
// search for it, or, with an empty queue, move to skip confirmation or
// submission. A failed search leaves the queue untouched so the same
// ingredient is retried on the next request.
func (w *Workflow) advance(ctx context.Context, state *State, token string) error {
	state.Current = nil
	state.Candidates = nil

	if len(state.Pending) == 0 {
		if len(state.Skipped) > 0 {
			state.Phase = PhaseAwaitingSkipConfirmation
		} else {
			state.Phase = PhaseSubmitting
		}
		return nil
	}

	state.Phase = PhaseSearchingIngredient
	front := state.Pending[0]

	candidates, err := w.catalog.Search(ctx, front.Name, state.LocationID, token)
	if err != nil {
		return err
	}

	state.Pending = state.Pending[1:]
	state.Current = &front
	state.Candidates = candidates
	// Zero candidates still presents: the user must be able to skip.
	state.Phase = PhasePresentingChoices
	return nil
}

// Choose records one selected product and loops to the next ingredient.
func (w *Workflow) Choose(ctx context.Context, sessionID, productID string, quantity int) (*State, error) {
	return w.ChooseMultiple(ctx, sessionID, []CartSelection{{ExternalID: productID, Quantity: quantity}})
}

// ChooseMultiple records several selections for the current ingredient in
// one step. Any product id absent from the current candidate set rejects the
// whole request without mutation: a stale or replayed choice must not reach
// the cart.
func (w *Workflow) ChooseMultiple(ctx context.Context, sessionID string, selections []CartSelection) (*State, error) {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := w.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Phase != PhasePresentingChoices {
		return nil, fmt.Errorf("%w: no choices are being presented", common.ErrConflict)
	}

	for _, selection := range selections {
		if !candidateOffered(state.Candidates, selection.ExternalID) {
			return nil, common.ErrStaleSelection
		}
	}

	token, err := w.tokens.EnsureValidToken(ctx, state.AccountID)
	if err != nil {
		return nil, err
	}

	for _, selection := range selections {
		if selection.Quantity < 1 {
			selection.Quantity = 1
		}
		state.Selections = append(state.Selections, selection)
	}

	if err := w.advance(ctx, state, token); err != nil {
		return nil, err
	}
	if err := w.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Skip records a human-readable label for the current ingredient and loops
// to the next one.
func (w *Workflow) Skip(ctx context.Context, sessionID string) (*State, error) {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := w.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Phase != PhasePresentingChoices {
		return nil, fmt.Errorf("%w: nothing to skip", common.ErrConflict)
	}

	token, err := w.tokens.EnsureValidToken(ctx, state.AccountID)
	if err != nil {
		return nil, err
	}

	if state.Current != nil {
		state.Skipped = append(state.Skipped, state.Current.Label())
	}

	if err := w.advance(ctx, state, token); err != nil {
		return nil, err
	}
	if err := w.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Submit sends the accumulated selections to the remote cart. With
// unconfirmed skips it halts without mutation and signals that confirmation
// is required. Success destroys the session state; failure preserves it
// unchanged so a retry is possible. The submission carries no idempotency
// key; a retry after an ambiguous timeout can double-add.
func (w *Workflow) Submit(ctx context.Context, sessionID string, confirmed bool) (*State, error) {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := w.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(state.Skipped) > 0 && !confirmed {
		return nil, common.ErrConfirmationRequired
	}

	if len(state.Selections) > 0 {
		token, err := w.tokens.EnsureValidToken(ctx, state.AccountID)
		if err != nil {
			return nil, err
		}

		items := make([]catalog.CartItem, 0, len(state.Selections))
		for _, selection := range state.Selections {
			items = append(items, catalog.CartItem{
				UPC:      selection.ExternalID,
				Quantity: selection.Quantity,
			})
		}

		if err := w.catalog.AddToCart(ctx, items, token); err != nil {
			// Cart selections survive the failure; FAILED is not terminal.
			state.Phase = PhaseFailed
			if saveErr := w.store.Save(ctx, state); saveErr != nil {
				common.LogError("failed to persist failed submission state", zap.Error(saveErr))
			}
			return nil, err
		}
	}

	if err := w.store.Delete(ctx, sessionID); err != nil {
		common.LogError("failed to delete completed session", zap.Error(err))
	}

	common.LogInfo("shopping workflow completed",
		zap.String("session_id", sessionID),
		zap.Int("items", len(state.Selections)),
		zap.Int("skipped", len(state.Skipped)),
	)

	done := *state
	done.Phase = PhaseDone
	return &done, nil
}

// Abandon clears all workflow state unconditionally. It is the sole
// cancellation primitive and is safe to call from any phase; from IDLE it is
// a no-op.
func (w *Workflow) Abandon(ctx context.Context, sessionID string) error {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	return w.store.Delete(ctx, sessionID)
}

// CurrentStep reports the session's current phase and context. A session
// with no stored state reports IDLE.
func (w *Workflow) CurrentStep(ctx context.Context, sessionID string) (*State, error) {
	state, err := w.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNoActiveWorkflow) {
			return &State{SessionID: sessionID, Phase: PhaseIdle}, nil
		}
		return nil, err
	}
	return state, nil
}

func candidateOffered(candidates []catalog.CandidateProduct, productID string) bool {
	for _, candidate := range candidates {
		if candidate.ExternalID == productID {
			return true
		}
	}
	return false
}
