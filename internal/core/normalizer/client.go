package normalizer

import (
	"context"
	"fmt"
	"net/http"

	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// Instruction contract sent with every manifest. The response format is the
// same "qty unit name" shape the manifest uses, so the tiered parser can read
// it back.
const instructions = `You consolidate a grocery list. Each input line is "quantity unit name". ` +
	`Combine lines that are the same base ingredient regardless of preparation method ` +
	`(chopped, diced, fresh). Sum the quantities of combined lines. Standardize ingredient ` +
	`spelling and unit names. Return exactly one line per distinct ingredient in the same ` +
	`"quantity unit name" format, nothing else.`

// Client calls the external semantic normalizer service.
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient creates a normalizer client.
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Normalizer.BaseURL).
		SetTimeout(cfg.Normalizer.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Normalizer.APIKey)).
		SetHeader("HTTP-Referer", "https://auto-cart.app").
		SetHeader("X-Title", "Auto-Cart")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Normalize sends the manifest with the fixed instruction contract and
// returns the raw response text. The caller parses and validates it.
func (c *Client) Normalize(ctx context.Context, manifest string) (string, error) {
	req := map[string]interface{}{
		"model": c.config.Normalizer.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": instructions,
			},
			{
				"role":    "user",
				"content": manifest,
			},
		},
		"max_tokens": c.config.Normalizer.MaxTokens,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to normalizer: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("normalizer returned status %d", resp.StatusCode())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse normalizer response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in normalizer response")
	}

	return result.Choices[0].Message.Content, nil
}
