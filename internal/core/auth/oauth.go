package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// OAuthClient talks to the authorization server: URL construction, code
// exchange and refresh-token rotation.
type OAuthClient struct {
	config *config.Config
	client *resty.Client
}

// NewOAuthClient creates an authorization server client.
func NewOAuthClient(cfg *config.Config) *OAuthClient {
	client := resty.New().
		SetBaseURL(cfg.Kroger.OAuthBaseURL).
		SetTimeout(cfg.Kroger.Timeout)

	return &OAuthClient{
		config: cfg,
		client: client,
	}
}

// AuthorizeURL builds the authorization-code URL the user is sent to. The
// state value comes back on the callback and identifies the account being
// linked.
func (c *OAuthClient) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.config.Kroger.ClientID)
	params.Set("redirect_uri", c.config.Kroger.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", c.config.Kroger.Scope)
	if state != "" {
		params.Set("state", state)
	}
	return fmt.Sprintf("%s/authorize?%s", c.config.Kroger.OAuthBaseURL, params.Encode())
}

func (c *OAuthClient) basicAuth() string {
	credentials := fmt.Sprintf("%s:%s", c.config.Kroger.ClientID, c.config.Kroger.ClientSecret)
	return base64.StdEncoding.EncodeToString([]byte(credentials))
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ExchangeCode trades an authorization code for an access/refresh pair.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": c.config.Kroger.RedirectURL,
		"scope":        c.config.Kroger.Scope,
	})
}

// Refresh rotates a refresh token into a fresh access/refresh pair. The old
// refresh token is invalid after a successful call.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (c *OAuthClient) tokenRequest(ctx context.Context, form map[string]string) (string, string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("Basic %s", c.basicAuth())).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		Post("/token")

	if err != nil {
		return "", "", fmt.Errorf("%w: token request: %v", common.ErrCatalogUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
	case resp.StatusCode() >= 400 && resp.StatusCode() < 500:
		return "", "", fmt.Errorf("%w: token request returned status %d", common.ErrCredentialRejected, resp.StatusCode())
	default:
		return "", "", fmt.Errorf("%w: token request returned status %d", common.ErrCatalogUnavailable, resp.StatusCode())
	}

	var parsed tokenResponse
	if err := common.ParseJSONBytes(resp.Body(), &parsed); err != nil {
		return "", "", fmt.Errorf("%w: malformed token response: %v", common.ErrCatalogUnavailable, err)
	}
	if parsed.AccessToken == "" {
		return "", "", fmt.Errorf("%w: token response missing access token", common.ErrCredentialRejected)
	}
	return parsed.AccessToken, parsed.RefreshToken, nil
}
