package handlers

import (
	"net/http"

	"auto-cart/internal/core/workflow"

	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-ID"

// ShopHandler exposes the stepwise shopping workflow. Each endpoint performs
// one state transition for the session named in the X-Session-ID header.
type ShopHandler struct {
	flow *workflow.Workflow
}

// NewShopHandler creates a shopping workflow handler.
func NewShopHandler(flow *workflow.Workflow) *ShopHandler {
	return &ShopHandler{flow: flow}
}

func sessionID(c *gin.Context) string {
	return c.GetHeader(sessionHeader)
}

func (h *ShopHandler) respondState(c *gin.Context, state *workflow.State) {
	c.Header(sessionHeader, state.SessionID)
	c.JSON(http.StatusOK, state)
}

type beginRequest struct {
	ListID     string `json:"list_id" binding:"required"`
	LocationID string `json:"location_id"`
}

// Begin starts (or restarts) a shopping workflow over a list. Omitting the
// session header starts a fresh session; its id comes back in the response
// header and body.
func (h *ShopHandler) Begin(c *gin.Context) {
	var req beginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "list_id is required"})
		return
	}

	state, err := h.flow.Begin(c.Request.Context(), sessionID(c), accountID(c), req.ListID, req.LocationID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

type locationRequest struct {
	LocationID string `json:"location_id" binding:"required"`
}

// SetLocation records the chosen store for a session waiting on one.
func (h *ShopHandler) SetLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location_id is required"})
		return
	}

	state, err := h.flow.SetLocation(c.Request.Context(), sessionID(c), req.LocationID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

// Step reports the session's current phase, ingredient and candidates.
func (h *ShopHandler) Step(c *gin.Context) {
	state, err := h.flow.CurrentStep(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

type chooseRequest struct {
	ProductID  string                   `json:"product_id"`
	Quantity   int                      `json:"quantity"`
	Selections []workflow.CartSelection `json:"selections"`
}

// Choose records the selected product(s) for the current ingredient and
// advances to the next one. Accepts either a single product_id/quantity pair
// or a selections array.
func (h *ShopHandler) Choose(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	selections := req.Selections
	if len(selections) == 0 {
		if req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id or selections is required"})
			return
		}
		selections = []workflow.CartSelection{{ExternalID: req.ProductID, Quantity: req.Quantity}}
	}

	state, err := h.flow.ChooseMultiple(c.Request.Context(), sessionID(c), selections)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

// Skip passes over the current ingredient and advances to the next one.
func (h *ShopHandler) Skip(c *gin.Context) {
	state, err := h.flow.Skip(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

type submitRequest struct {
	Confirmed bool `json:"confirmed"`
}

// Submit sends the accumulated selections to the remote cart. When
// ingredients were skipped the first call is rejected until the client
// resubmits with confirmed=true.
func (h *ShopHandler) Submit(c *gin.Context) {
	var req submitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	state, err := h.flow.Submit(c.Request.Context(), sessionID(c), req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, state)
}

// Abandon drops the session's workflow state from any phase.
func (h *ShopHandler) Abandon(c *gin.Context) {
	if err := h.flow.Abandon(c.Request.Context(), sessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"abandoned": true})
}
