package stripe

import "errors"

// Config holds the Stripe API credentials and checkout redirect targets.
type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string // e.g. https://api.stripe.com/v1
	Currency      string // lowercase ISO code, e.g. "usd"
	SuccessURL    string
	CancelURL     string
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("stripe: secret key is required")
	}
	if c.BaseURL == "" {
		return errors.New("stripe: base URL is required")
	}
	if c.Currency == "" {
		return errors.New("stripe: currency is required")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return errors.New("stripe: success and cancel URLs are required")
	}
	return nil
}
