package stripe

// LineItem is one checkout line sent to Stripe. UnitAmount is in minor
// currency units (price × 100).
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int
}

// CheckoutSessionParams are the inputs to Create Checkout Session.
type CheckoutSessionParams struct {
	LineItems     []LineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession mirrors the fields of Stripe's checkout.session object
// that reconciliation needs.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"` // "paid", "unpaid", "no_payment_required"
	PaymentIntent string `json:"payment_intent"`
	CustomerEmail string `json:"customer_email"`
	AmountTotal   int64  `json:"amount_total"`
}

// Paid reports whether the processor considers this session settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// apiError is Stripe's error envelope.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// EventKind is the closed set of webhook event types reconciliation handles.
// Everything else maps to EventUnknown and is logged and ignored by callers.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutSessionCompleted
	EventCheckoutSessionExpired
)

const (
	eventTypeCompleted = "checkout.session.completed"
	eventTypeExpired   = "checkout.session.expired"
)

func kindOf(eventType string) EventKind {
	switch eventType {
	case eventTypeCompleted:
		return EventCheckoutSessionCompleted
	case eventTypeExpired:
		return EventCheckoutSessionExpired
	default:
		return EventUnknown
	}
}

// Event is a verified, parsed webhook event.
type Event struct {
	ID      string
	Type    string
	Kind    EventKind
	Session CheckoutSession
}

// eventEnvelope is the raw webhook JSON shape.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}
