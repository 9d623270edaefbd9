package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a Stripe API client. It speaks the form-encoded request /
// JSON-response protocol of the Checkout Sessions API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Bounded timeout: a hung processor call must not hold a checkout open.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// CreateCheckoutSession opens a payment session for the given line items.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")

	successURL := params.SuccessURL
	if successURL == "" {
		successURL = c.config.SuccessURL
	}
	cancelURL := params.CancelURL
	if cancelURL == "" {
		cancelURL = c.config.CancelURL
	}
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", c.config.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.ImageURL)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "checkout/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	return &session, nil
}

// RetrieveSession fetches the current state of a checkout session.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	return &session, nil
}

// doRequest performs an HTTP request to the Stripe API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/%s", strings.TrimRight(c.config.BaseURL, "/"), endpoint)

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("%w: unexpected status %d", ErrAPIError, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s (%s, status %d)",
			ErrAPIError, errResp.Error.Message, errResp.Error.Code, resp.StatusCode)
	}

	return body, nil
}
