package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Kroger: config.KrogerConfig{
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
			SearchLimit: 10,
			StoreLimit:  5,
		},
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("parses candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products", r.URL.Path)
			assert.Equal(t, "chicken", r.URL.Query().Get("filter.term"))
			assert.Equal(t, "store-1", r.URL.Query().Get("filter.locationId"))
			assert.Equal(t, "10", r.URL.Query().Get("filter.limit"))
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"data": [
					{
						"upc": "0001",
						"description": "Chicken Breast",
						"brand": "Heritage Farm",
						"items": [{"price": {"regular": 5.99}, "inventory": {"stockLevel": "HIGH"}}],
						"images": [{"sizes": [{"url": "https://img.example/1.jpg"}]}],
						"aisleLocations": [{"description": "Aisle 12"}]
					},
					{
						"upc": "",
						"description": "No UPC product"
					},
					{
						"upc": "0002",
						"description": "Chicken Thighs"
					}
				]
			}`))
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		candidates, err := client.Search(ctx, "chicken", "store-1", "token-1")
		require.NoError(t, err)

		require.Len(t, candidates, 2)
		assert.Equal(t, CandidateProduct{
			ExternalID:   "0001",
			DisplayName:  "Chicken Breast",
			Brand:        "Heritage Farm",
			Price:        5.99,
			ImageURL:     "https://img.example/1.jpg",
			Availability: "HIGH",
			Aisle:        "Aisle 12",
		}, candidates[0])
		assert.Equal(t, "0002", candidates[1].ExternalID)
	})

	t.Run("zero results is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		candidates, err := client.Search(ctx, "unicorn meat", "store-1", "token-1")
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("401 means the credential was rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		_, err := client.Search(ctx, "chicken", "store-1", "expired")
		assert.ErrorIs(t, err, common.ErrCredentialRejected)
	})

	t.Run("5xx means the catalog is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		_, err := client.Search(ctx, "chicken", "store-1", "token-1")
		assert.ErrorIs(t, err, common.ErrCatalogUnavailable)
	})
}

func TestLocations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "45202", r.URL.Query().Get("filter.zipCode.near"))
		assert.Equal(t, "5", r.URL.Query().Get("filter.limit"))

		w.Write([]byte(`{
			"data": [
				{"locationId": "014", "address": {"addressLine1": "1 Main St", "city": "Cincinnati"}},
				{"locationId": "", "address": {"addressLine1": "2 Oak St", "city": "Dayton"}},
				{"locationId": "015", "address": {"addressLine1": "", "city": "Dayton"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	locations, err := client.Locations(context.Background(), "45202", "token-1")
	require.NoError(t, err)

	require.Len(t, locations, 1)
	assert.Equal(t, Location{LocationID: "014", Address: "1 Main St", City: "Cincinnati"}, locations[0])
}

func TestAddToCart(t *testing.T) {
	t.Run("fills defaults before sending", func(t *testing.T) {
		var received struct {
			Items []CartItem `json:"items"`
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/cart/add", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		err := client.AddToCart(context.Background(), []CartItem{
			{UPC: "0001", Quantity: 0},
			{UPC: "0002", Quantity: 3, Modality: "DELIVERY"},
		}, "token-1")
		require.NoError(t, err)

		require.Len(t, received.Items, 2)
		assert.Equal(t, 1, received.Items[0].Quantity)
		assert.Equal(t, "PICKUP", received.Items[0].Modality)
		assert.True(t, received.Items[0].AllowSubstitutes)
		assert.Equal(t, 3, received.Items[1].Quantity)
		assert.Equal(t, "DELIVERY", received.Items[1].Modality)
	})

	t.Run("403 means the credential was rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		err := client.AddToCart(context.Background(), []CartItem{{UPC: "0001", Quantity: 1}}, "bad")
		assert.ErrorIs(t, err, common.ErrCredentialRejected)
	})
}

func TestProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identity/profile", r.URL.Path)
		w.Write([]byte(`{"data": {"id": "profile-42"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	id, err := client.Profile(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "profile-42", id)
}
