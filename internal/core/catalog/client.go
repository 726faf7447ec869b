package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client is a thin client for the external product catalog service. Every
// call carries a bearer token; failures map to the typed domain errors so
// callers never see raw transport errors.
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient creates a catalog client.
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Kroger.BaseURL).
		SetTimeout(cfg.Kroger.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Raw catalog payloads are heterogeneous; they are parsed into these strict
// boundary structs immediately and never leak past this package.
type productResponse struct {
	Data []struct {
		UPC         string `json:"upc"`
		Description string `json:"description"`
		Brand       string `json:"brand"`
		Items       []struct {
			Price struct {
				Regular float64 `json:"regular"`
			} `json:"price"`
			Inventory struct {
				StockLevel string `json:"stockLevel"`
			} `json:"inventory"`
		} `json:"items"`
		Images []struct {
			Sizes []struct {
				URL string `json:"url"`
			} `json:"sizes"`
		} `json:"images"`
		AisleLocations []struct {
			Description string `json:"description"`
		} `json:"aisleLocations"`
	} `json:"data"`
}

type locationResponse struct {
	Data []struct {
		LocationID string `json:"locationId"`
		Address    struct {
			AddressLine1 string `json:"addressLine1"`
			City         string `json:"city"`
		} `json:"address"`
	} `json:"data"`
}

// Search looks up products for an ingredient term at a store location. The
// result page is capped by config; zero candidates is a valid outcome, not
// an error.
func (c *Client) Search(ctx context.Context, term, locationID, token string) ([]CandidateProduct, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"filter.term":       term,
			"filter.locationId": locationID,
			"filter.limit":      strconv.Itoa(c.config.Kroger.SearchLimit),
		}).
		Get("/products")

	if err != nil {
		return nil, fmt.Errorf("%w: product search: %v", common.ErrCatalogUnavailable, err)
	}
	if err := checkStatus(resp, "product search"); err != nil {
		return nil, err
	}

	var parsed productResponse
	if err := common.ParseJSONBytes(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed product response: %v", common.ErrCatalogUnavailable, err)
	}

	candidates := make([]CandidateProduct, 0, len(parsed.Data))
	for _, product := range parsed.Data {
		if product.UPC == "" {
			continue
		}

		candidate := CandidateProduct{
			ExternalID:  product.UPC,
			DisplayName: product.Description,
			Brand:       product.Brand,
		}
		if len(product.Items) > 0 {
			candidate.Price = product.Items[0].Price.Regular
			candidate.Availability = product.Items[0].Inventory.StockLevel
		}
		if len(product.Images) > 0 && len(product.Images[0].Sizes) > 0 {
			candidate.ImageURL = product.Images[0].Sizes[0].URL
		}
		if len(product.AisleLocations) > 0 {
			candidate.Aisle = product.AisleLocations[0].Description
		}
		candidates = append(candidates, candidate)
	}

	common.LogDebug("catalog search completed",
		zap.String("term", term),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// Locations finds stores near a zipcode.
func (c *Client) Locations(ctx context.Context, zipcode, token string) ([]Location, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"filter.zipCode.near": zipcode,
			"filter.limit":        strconv.Itoa(c.config.Kroger.StoreLimit),
			"filter.chain":        "Kroger",
		}).
		Get("/locations")

	if err != nil {
		return nil, fmt.Errorf("%w: location search: %v", common.ErrCatalogUnavailable, err)
	}
	if err := checkStatus(resp, "location search"); err != nil {
		return nil, err
	}

	var parsed locationResponse
	if err := common.ParseJSONBytes(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed location response: %v", common.ErrCatalogUnavailable, err)
	}

	locations := make([]Location, 0, len(parsed.Data))
	for _, store := range parsed.Data {
		if store.LocationID == "" || store.Address.AddressLine1 == "" || store.Address.City == "" {
			continue
		}
		locations = append(locations, Location{
			LocationID: store.LocationID,
			Address:    store.Address.AddressLine1,
			City:       store.Address.City,
		})
	}
	return locations, nil
}

// AddToCart adds items to the remote cart. The service offers no idempotency
// guarantee; a retry after an ambiguous timeout can double-add.
func (c *Client) AddToCart(ctx context.Context, items []CartItem, token string) error {
	prepared := make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.Modality == "" {
			item.Modality = "PICKUP"
		}
		item.AllowSubstitutes = true
		prepared = append(prepared, item)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"items": prepared}).
		Put("/cart/add")

	if err != nil {
		return fmt.Errorf("%w: cart add: %v", common.ErrCatalogUnavailable, err)
	}
	if err := checkStatus(resp, "cart add"); err != nil {
		return err
	}

	common.LogInfo("cart submission accepted",
		zap.Int("items", len(prepared)),
	)
	return nil
}

// Profile fetches the caller's profile id. It serves as the lightweight
// validity probe for access tokens: only 401/403 means the token itself was
// rejected.
func (c *Client) Profile(ctx context.Context, token string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/identity/profile")

	if err != nil {
		return "", fmt.Errorf("%w: profile fetch: %v", common.ErrCatalogUnavailable, err)
	}
	if err := checkStatus(resp, "profile fetch"); err != nil {
		return "", err
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := common.ParseJSONBytes(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed profile response: %v", common.ErrCatalogUnavailable, err)
	}
	return parsed.Data.ID, nil
}

func checkStatus(resp *resty.Response, op string) error {
	switch {
	case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
		return nil
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", common.ErrCredentialRejected, op, resp.StatusCode())
	default:
		return fmt.Errorf("%w: %s returned status %d", common.ErrCatalogUnavailable, op, resp.StatusCode())
	}
}
