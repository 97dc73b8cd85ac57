package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient talks to the Razorpay REST API using basic auth.
// Only the two calls the booking flow needs are implemented:
// order creation and refunds.
type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewRazorpayClient returns a client authenticated with the given
// key pair.  baseURL overrides the production endpoint and is
// meant for tests; pass "" to use the default.
func NewRazorpayClient(keyID, keySecret, baseURL string) *RazorpayClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateOrder creates a gateway order for the given amount in
// minor units.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error) {
	payload := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}
	var order Order
	if err := c.post(ctx, "/orders", payload, &order); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return &order, nil
}

// Refund refunds the given gateway payment.  amountMinor of 0
// refunds the full captured amount, mirroring the API default.
func (c *RazorpayClient) Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64) (*Refund, error) {
	payload := map[string]any{}
	if amountMinor > 0 {
		payload["amount"] = amountMinor
	}
	var refund Refund
	path := fmt.Sprintf("/payments/%s/refund", gatewayPaymentID)
	if err := c.post(ctx, path, payload, &refund); err != nil {
		return nil, fmt.Errorf("razorpay refund: %w", err)
	}
	return &refund, nil
}

func (c *RazorpayClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Description != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Description)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
