package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"auto-cart/internal/core/grocery"
	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// alexaListName is the list voice requests operate on.
const alexaListName = "Shopping List"

// AlexaHandler accepts voice-assistant requests: adding spoken items to the
// shopping list and reading the list back.
type AlexaHandler struct {
	lists *grocery.Service
	cfg   *config.Config
}

// NewAlexaHandler creates a voice-assistant handler.
func NewAlexaHandler(lists *grocery.Service, cfg *config.Config) *AlexaHandler {
	return &AlexaHandler{
		lists: lists,
		cfg:   cfg,
	}
}

type alexaEnvelope struct {
	Version string `json:"version"`
	Session struct {
		Application struct {
			ApplicationID string `json:"applicationId"`
		} `json:"application"`
	} `json:"session"`
	Request struct {
		Type      string `json:"type"`
		Timestamp string `json:"timestamp"`
		Intent    struct {
			Name  string `json:"name"`
			Slots map[string]struct {
				Value string `json:"value"`
			} `json:"slots"`
		} `json:"intent"`
	} `json:"request"`
}

func alexaSpeech(text string) gin.H {
	return gin.H{
		"version": "1.0",
		"response": gin.H{
			"outputSpeech": gin.H{
				"type": "PlainText",
				"text": text,
			},
			"shouldEndSession": true,
		},
	}
}

// verify rejects stale or mis-addressed requests. Replayed requests carry an
// old timestamp; requests for another skill carry a different application id.
func (h *AlexaHandler) verify(envelope *alexaEnvelope) error {
	if skillID := h.cfg.Alexa.SkillID; skillID != "" {
		if envelope.Session.Application.ApplicationID != skillID {
			return common.NewValidationError("application id mismatch")
		}
	}

	ts, err := time.Parse(time.RFC3339, envelope.Request.Timestamp)
	if err != nil {
		return common.NewValidationError("invalid request timestamp")
	}
	maxAge := h.cfg.Alexa.MaxTimestamp
	if maxAge <= 0 {
		maxAge = 150 * time.Second
	}
	age := time.Since(ts)
	if age < 0 {
		age = -age
	}
	if age > maxAge {
		return common.NewValidationError("request timestamp outside tolerance")
	}
	return nil
}

// Handle dispatches one voice request.
func (h *AlexaHandler) Handle(c *gin.Context) {
	var envelope alexaEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.verify(&envelope); err != nil {
		common.LogWarn("rejected voice request",
			zap.String("reason", err.Error()),
			zap.String("ip", c.ClientIP()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch {
	case envelope.Request.Type == "LaunchRequest":
		c.JSON(http.StatusOK, alexaSpeech("What would you like to add to your shopping list?"))
	case envelope.Request.Intent.Name == "AddItemIntent":
		h.addItem(c, &envelope)
	case envelope.Request.Intent.Name == "ReadListIntent":
		h.readList(c)
	default:
		c.JSON(http.StatusOK, alexaSpeech("Sorry, I didn't understand that."))
	}
}

func (h *AlexaHandler) addItem(c *gin.Context, envelope *alexaEnvelope) {
	slot, ok := envelope.Request.Intent.Slots["Item"]
	if !ok || strings.TrimSpace(slot.Value) == "" {
		c.JSON(http.StatusOK, alexaSpeech("I didn't catch the item name."))
		return
	}

	list, err := h.lists.EnsureList(c.Request.Context(), alexaListName)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.lists.AddText(c.Request.Context(), list.ID, slot.Value); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, alexaSpeech(fmt.Sprintf("Added %s to your shopping list.", strings.TrimSpace(slot.Value))))
}

func (h *AlexaHandler) readList(c *gin.Context) {
	list, err := h.lists.EnsureList(c.Request.Context(), alexaListName)
	if err != nil {
		respondError(c, err)
		return
	}

	unchecked := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Checked {
			continue
		}
		unchecked = append(unchecked, item.Label())
	}

	if len(unchecked) == 0 {
		c.JSON(http.StatusOK, alexaSpeech("Your shopping list is empty."))
		return
	}
	c.JSON(http.StatusOK, alexaSpeech("Your shopping list has "+strings.Join(unchecked, ", ")+"."))
}
