package workflow

import (
	"time"

	"auto-cart/internal/core/catalog"
	"auto-cart/internal/core/ingredient"
)

// Workflow phases. One inbound request drives at most one transition.
const (
	PhaseIdle                     = "IDLE"
	PhaseAuthenticating           = "AUTHENTICATING"
	PhaseAwaitingLocation         = "AWAITING_LOCATION"
	PhaseSearchingIngredient      = "SEARCHING_INGREDIENT"
	PhasePresentingChoices        = "PRESENTING_CHOICES"
	PhaseAwaitingSkipConfirmation = "AWAITING_SKIP_CONFIRMATION"
	PhaseSubmitting               = "SUBMITTING"
	PhaseDone                     = "DONE"
	PhaseFailed                   = "FAILED"
)

// CartSelection is one chosen product, ordered by selection time.
type CartSelection struct {
	ExternalID string `json:"external_id"`
	Quantity   int    `json:"quantity"`
}

// State is the full per-session workflow state. It is a plain value: loaded
// at the start of a step, mutated, and saved back. Ingredients are processed
// strictly FIFO from the snapshot taken at Begin.
type State struct {
	SessionID  string                     `json:"session_id"`
	AccountID  string                     `json:"account_id"`
	ListID     string                     `json:"list_id"`
	LocationID string                     `json:"location_id"`
	Phase      string                     `json:"phase"`
	Pending    []ingredient.Line          `json:"pending"`
	Current    *ingredient.Line           `json:"current,omitempty"`
	Candidates []catalog.CandidateProduct `json:"candidates"`
	Selections []CartSelection            `json:"selections"`
	Skipped    []string                   `json:"skipped"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}
