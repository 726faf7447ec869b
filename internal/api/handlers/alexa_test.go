package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auto-cart/internal/core/grocery"
	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/core/normalizer"
	"auto-cart/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAlexaRouter(t *testing.T) (*gin.Engine, *grocery.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := grocery.NewService(grocery.NewMemoryListStore(), ingredient.NewEngine(normalizer.NewRule(), 0))
	cfg := &config.Config{
		Alexa: config.AlexaConfig{
			SkillID:      "skill-1",
			MaxTimestamp: 150 * time.Second,
		},
	}

	router := gin.New()
	router.POST("/alexa", NewAlexaHandler(svc, cfg).Handle)
	return router, svc
}

func alexaRequest(skillID, requestType, intent, item string, timestamp time.Time) string {
	return fmt.Sprintf(`{
		"version": "1.0",
		"session": {"application": {"applicationId": %q}},
		"request": {
			"type": %q,
			"timestamp": %q,
			"intent": {"name": %q, "slots": {"Item": {"value": %q}}}
		}
	}`, skillID, requestType, timestamp.Format(time.RFC3339), intent, item)
}

func speechText(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Response struct {
			OutputSpeech struct {
				Text string `json:"text"`
			} `json:"outputSpeech"`
		} `json:"response"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Response.OutputSpeech.Text
}

func TestAlexaHandle(t *testing.T) {
	t.Run("add item intent updates the list", func(t *testing.T) {
		router, svc := newAlexaRouter(t)

		body := alexaRequest("skill-1", "IntentRequest", "AddItemIntent", "2 cup onions", time.Now())
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, speechText(t, w.Body.Bytes()), "Added")

		list, err := svc.EnsureList(req.Context(), "Shopping List")
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "onions", list.Items[0].Name)
	})

	t.Run("read list intent speaks the items", func(t *testing.T) {
		router, svc := newAlexaRouter(t)

		list, err := svc.EnsureList(context.Background(), "Shopping List")
		require.NoError(t, err)
		_, err = svc.AddText(context.Background(), list.ID, "2 cup onions\n1 tsp salt")
		require.NoError(t, err)

		body := alexaRequest("skill-1", "IntentRequest", "ReadListIntent", "", time.Now())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		speech := speechText(t, w.Body.Bytes())
		assert.Contains(t, speech, "onions")
		assert.Contains(t, speech, "salt")
	})

	t.Run("stale timestamp is rejected", func(t *testing.T) {
		router, _ := newAlexaRouter(t)

		body := alexaRequest("skill-1", "IntentRequest", "AddItemIntent", "milk", time.Now().Add(-10*time.Minute))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong skill id is rejected", func(t *testing.T) {
		router, _ := newAlexaRouter(t)

		body := alexaRequest("someone-else", "IntentRequest", "AddItemIntent", "milk", time.Now())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown intent gets a polite reply", func(t *testing.T) {
		router, _ := newAlexaRouter(t)

		body := alexaRequest("skill-1", "IntentRequest", "WeatherIntent", "", time.Now())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, speechText(t, w.Body.Bytes()), "didn't understand")
	})
}
