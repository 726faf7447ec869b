package handlers

import (
	"net/http"

	"auto-cart/internal/core/grocery"

	"github.com/gin-gonic/gin"
)

// GroceryHandler exposes shopping-list CRUD and free-text item intake.
type GroceryHandler struct {
	lists *grocery.Service
}

// NewGroceryHandler creates a grocery list handler.
func NewGroceryHandler(lists *grocery.Service) *GroceryHandler {
	return &GroceryHandler{lists: lists}
}

type createListRequest struct {
	Name string `json:"name"`
}

// CreateList creates an empty named list.
func (h *GroceryHandler) CreateList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// ListAll returns every stored list.
func (h *GroceryHandler) ListAll(c *gin.Context) {
	lists, err := h.lists.Lists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

// GetList returns one list with its items.
func (h *GroceryHandler) GetList(c *gin.Context) {
	list, err := h.lists.GetList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteList removes a list.
func (h *GroceryHandler) DeleteList(c *gin.Context) {
	if err := h.lists.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type addItemsRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddItems parses a pasted free-text block into the list. One recipe's whole
// ingredient section can arrive as a single request.
func (h *GroceryHandler) AddItems(c *gin.Context) {
	var req addItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	list, err := h.lists.AddText(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type itemNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ToggleItem flips an item's checked state.
func (h *GroceryHandler) ToggleItem(c *gin.Context) {
	var req itemNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	list, err := h.lists.Toggle(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// RemoveItem deletes one item by name.
func (h *GroceryHandler) RemoveItem(c *gin.Context) {
	var req itemNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	list, err := h.lists.RemoveItem(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ClearChecked drops every checked item from the list.
func (h *GroceryHandler) ClearChecked(c *gin.Context) {
	list, err := h.lists.ClearChecked(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
