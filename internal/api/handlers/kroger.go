package handlers

import (
	"errors"
	"net/http"

	"auto-cart/internal/core/auth"
	"auto-cart/internal/core/catalog"
	"auto-cart/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KrogerHandler exposes account linking and store lookup against the
// grocery catalog.
type KrogerHandler struct {
	manager *auth.Manager
	oauth   *auth.OAuthClient
	catalog *catalog.Client
}

// NewKrogerHandler creates a catalog account handler.
func NewKrogerHandler(manager *auth.Manager, oauth *auth.OAuthClient, cat *catalog.Client) *KrogerHandler {
	return &KrogerHandler{
		manager: manager,
		oauth:   oauth,
		catalog: cat,
	}
}

// Authenticate checks whether the account holds a usable credential. A
// missing or rejected credential returns the authorization URL the user must
// visit; transient catalog trouble is reported as such, without forcing a
// re-link.
func (h *KrogerHandler) Authenticate(c *gin.Context) {
	account := accountID(c)

	_, err := h.manager.EnsureValidToken(c.Request.Context(), account)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"linked": true})
		return
	}

	if errors.Is(err, common.ErrCredentialMissing) || errors.Is(err, common.ErrCredentialRejected) {
		c.JSON(http.StatusOK, gin.H{
			"linked":   false,
			"auth_url": h.oauth.AuthorizeURL(account),
		})
		return
	}

	respondError(c, err)
}

// Callback receives the authorization-code redirect. The state parameter
// carries the account id the flow was started for.
func (h *KrogerHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	account := c.Query("state")
	if account == "" {
		account = defaultAccountID
	}

	if err := h.manager.HandleCallback(c.Request.Context(), account, code); err != nil {
		respondError(c, err)
		return
	}

	common.LogInfo("grocery account linked", zap.String("account_id", account))
	c.JSON(http.StatusOK, gin.H{"linked": true})
}

// Locations lists nearby stores for a zip code so the user can pick one for
// the shopping session.
func (h *KrogerHandler) Locations(c *gin.Context) {
	zipcode := c.Query("zipcode")
	if zipcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zipcode is required"})
		return
	}

	token, err := h.manager.EnsureValidToken(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	locations, err := h.catalog.Locations(c.Request.Context(), zipcode, token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// Unlink drops the stored credential for the account.
func (h *KrogerHandler) Unlink(c *gin.Context) {
	if err := h.manager.Unlink(c.Request.Context(), accountID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": false})
}
