// Package shop provides the client for the remote shop backend that owns
// inventory, payment sessions and order records.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gameshop/gateway/internal/model"
)

// Client encapsulates the HTTP interaction with the shop backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an HTTP client for the shop backend at the given
// address.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) url(path string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("shop client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return base + path, nil
}

type checkoutSessionRequest struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Games  model.Cart `json:"games"`
}

type checkoutSessionResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession posts the cart snapshot to the payment-session
// endpoint and returns the opaque redirect URL. The request is issued
// exactly once; no retry happens at any layer.
func (c *Client) CreateCheckoutSession(ctx context.Context, ident model.Identity, lines model.Cart) (string, error) {
	url, err := c.url("/api/checkout/create-checkout-session")
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(checkoutSessionRequest{
		UserID: ident.ID,
		Email:  ident.Email,
		Games:  lines,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("empty session url in response")
	}

	return result.URL, nil
}

type orderRecord struct {
	ID         string  `json:"_id"`
	Date       string  `json:"date"`
	Total      float64 `json:"total"`
	Status     string  `json:"status"`
	GameTitles string  `json:"gameTitles"`
}

// GetOrders fetches the order list for the account.
func (c *Client) GetOrders(ctx context.Context, accountID string) ([]model.Order, error) {
	url, err := c.url("/api/orders/" + accountID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var records []orderRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	orders := make([]model.Order, 0, len(records))
	for _, rec := range records {
		// The backend emits JS ISO timestamps; an unparsable date keeps
		// the order visible with a zero time instead of dropping it.
		date, _ := time.Parse(time.RFC3339, rec.Date)

		orders = append(orders, model.Order{
			ID:         rec.ID,
			Date:       date,
			Total:      rec.Total,
			Status:     model.ParseOrderStatus(rec.Status),
			GameTitles: rec.GameTitles,
		})
	}

	return orders, nil
}

type publicOrderResponse struct {
	GameTitles string `json:"gameTitles"`
}

// GetPublicOrder fetches the game titles of a single order through the
// public lookup used by the cancel page. Best effort only.
func (c *Client) GetPublicOrder(ctx context.Context, orderID string) (string, error) {
	url, err := c.url("/api/orders/public/" + orderID)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result publicOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.GameTitles, nil
}
