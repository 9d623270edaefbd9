package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how old a webhook timestamp may be before the
// signature is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// ConstructEvent verifies the Stripe-Signature header against the raw
// payload and the webhook secret, then parses the payload into an Event.
// It fails closed: any verification problem returns ErrInvalidSignature
// and no event.
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return ConstructEventWithTolerance(payload, sigHeader, secret, DefaultTolerance)
}

// ConstructEventWithTolerance is ConstructEvent with an explicit replay
// tolerance. A tolerance of zero disables the timestamp check (tests).
func ConstructEventWithTolerance(payload []byte, sigHeader, secret string, tolerance time.Duration) (*Event, error) {
	timestamp, signatures, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	expected := computeSignature(timestamp, payload, secret)
	if !anySignatureMatches(signatures, expected) {
		return nil, ErrInvalidSignature
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &Event{
		ID:      envelope.ID,
		Type:    envelope.Type,
		Kind:    kindOf(envelope.Type),
		Session: envelope.Data.Object,
	}, nil
}

// SignPayload produces a Stripe-Signature header value for the payload.
// Exposed for tests and local webhook simulation.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(ts, payload, secret))
}

// parseSigHeader splits "t=<ts>,v1=<sig>[,v1=<sig>...]" into its parts.
func parseSigHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}

// computeSignature is HMAC-SHA256 over "<timestamp>.<payload>".
func computeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func anySignatureMatches(candidates []string, expected string) bool {
	expectedBytes := []byte(expected)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), expectedBytes) {
			return true
		}
	}
	return false
}
