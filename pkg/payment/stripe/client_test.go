package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		SecretKey:     "sk_test_key",
		WebhookSecret: "whsec_test",
		BaseURL:       baseURL,
		Currency:      "usd",
		SuccessURL:    "https://shop.test/success",
		CancelURL:     "https://shop.test/cancel",
	}
}

func TestNewClient_RejectsIncompleteConfig(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(testConfig("https://api.stripe.test/v1"))
	assert.NoError(t, err)
}

func TestCreateCheckoutSession_FormEncoding(t *testing.T) {
	var gotForm url.Values
	var gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_abc",
			"url": "https://checkout.stripe.test/pay/cs_test_abc",
			"payment_status": "unpaid"
		}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	session, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionParams{
		LineItems: []LineItem{
			{Name: "Mug", UnitAmount: 1850, Quantity: 2},
			{Name: "Coaster", ImageURL: "https://cdn.test/coaster.jpg", UnitAmount: 850, Quantity: 1},
		},
		CustomerEmail: "buyer@test.com",
		Metadata:      map[string]string{"order_number": "ord_42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_abc", session.ID)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_abc", session.URL)
	assert.False(t, session.Paid())

	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

	assert.Equal(t, "payment", gotForm.Get("mode"))
	assert.Equal(t, "card", gotForm.Get("payment_method_types[0]"))
	assert.Equal(t, "https://shop.test/success", gotForm.Get("success_url"))
	assert.Equal(t, "https://shop.test/cancel", gotForm.Get("cancel_url"))
	assert.Equal(t, "buyer@test.com", gotForm.Get("customer_email"))
	assert.Equal(t, "usd", gotForm.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Mug", gotForm.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "1850", gotForm.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", gotForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "https://cdn.test/coaster.jpg", gotForm.Get("line_items[1][price_data][product_data][images][0]"))
	assert.Equal(t, "850", gotForm.Get("line_items[1][price_data][unit_amount]"))
	assert.Equal(t, "ord_42", gotForm.Get("metadata[order_number]"))
}

func TestRetrieveSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/checkout/sessions/cs_test_abc", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_abc",
			"payment_status": "paid",
			"payment_intent": "pi_789",
			"amount_total": 4550
		}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	session, err := client.RetrieveSession(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.True(t, session.Paid())
	assert.Equal(t, "pi_789", session.PaymentIntent)
	assert.Equal(t, int64(4550), session.AmountTotal)
}

func TestDoRequest_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "code": "card_declined", "message": "Your card was declined."}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.RetrieveSession(context.Background(), "cs_declined")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPIError)
	assert.Contains(t, err.Error(), "card_declined")
}

func TestDoRequest_NetworkError(t *testing.T) {
	client, err := NewClient(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.RetrieveSession(context.Background(), "cs_any")
	assert.ErrorIs(t, err, ErrNetworkError)
}
