/*
Package suggest calls the external generative-language service that powers the
smart-reply feature. The service is best-effort: a failure here degrades to an
empty suggestion and never affects message delivery.
*/
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout bounds one suggestion call.
const requestTimeout = 10 * time.Second

// ErrNotConfigured reports that no suggestion endpoint was configured.
var ErrNotConfigured = errors.New("suggest: service not configured")

// Client talks to the suggestion service over HTTP with a bearer credential.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client. An empty endpoint yields a client whose calls
// fail with ErrNotConfigured, which handlers degrade gracefully on.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// generateRequest is the upstream request body: a prompt wrapped in the
// content/parts shape the generative-language API expects.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the subset of the upstream response we read.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// SuggestReply asks the service for one short reply to the given message text.
func (c *Client) SuggestReply(ctx context.Context, text string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNotConfigured
	}

	prompt := fmt.Sprintf(
		"Suggest one short, natural reply to the following chat message. Reply with the suggestion only.\n\nMessage: %s",
		text,
	)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("suggest: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("suggest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("suggest: call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("suggest: service returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("suggest: decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("suggest: empty response from service")
	}

	return strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text), nil
}
