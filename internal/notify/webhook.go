package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CandidateEmailHeader carries the candidate address on webhook requests.
const CandidateEmailHeader = "X-Candidate-Email"

// WebhookClient posts extraction payloads to the downstream consumer.
type WebhookClient struct {
	url            string
	candidateEmail string
	httpClient     *http.Client
}

func NewWebhookClient(url, candidateEmail string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		url:            url,
		candidateEmail: candidateEmail,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers p once. Any non-2xx response is an error.
func (c *WebhookClient) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.candidateEmail != "" {
		req.Header.Set(CandidateEmailHeader, c.candidateEmail)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post webhook: status %d: %s", resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
