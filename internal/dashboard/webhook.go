package dashboard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Payment completion webhook
// ---------------------------------------------------------------------------

// signatureTolerance bounds how stale a signed timestamp may be before the
// event is rejected outright.
const signatureTolerance = 5 * time.Minute

const eventCheckoutCompleted = "checkout.session.completed"

type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object checkoutSession `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID              string            `json:"id"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails customerDetails   `json:"customer_details"`
}

type customerDetails struct {
	Phone   string         `json:"phone"`
	Address sessionAddress `json:"address"`
}

type sessionAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// formatted joins the present address components the way they appear on the
// orders table.
func (a sessionAddress) formatted() string {
	components := []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country}
	present := components[:0]
	for _, c := range components {
		if c != "" {
			present = append(present, c)
		}
	}
	return strings.Join(present, ", ")
}

var errBadSignature = errors.New("webhook signature verification failed")

// verifySignature checks a "t=<unix>,v1=<hex>" header against
// HMAC-SHA256(secret, "<t>.<body>"). Any v1 entry may match. The timestamp
// must fall within signatureTolerance of now.
func verifySignature(body []byte, header, secret string, now time.Time) error {
	var ts int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return errBadSignature
			}
			ts = n
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if ts == 0 || len(candidates) == 0 {
		return errBadSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return errBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	for _, c := range candidates {
		if hmac.Equal([]byte(expected), []byte(c)) {
			return nil
		}
	}
	return errBadSignature
}

// handleWebhook turns a completed checkout session into one paid order. Every
// other event type, and a session without a storeId, is acknowledged without
// side effects: the sender retries anything non-2xx, and an ignored event
// must not trigger a redelivery storm. There is no dedup on the session id,
// so a redelivered completion creates a duplicate order.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "Webhook Error")
		return
	}

	if err := verifySignature(body, r.Header.Get("Stripe-Signature"), s.webhookSecret, time.Now()); err != nil {
		writeJSON(w, http.StatusBadRequest, "Webhook Error")
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, "Webhook Error")
		return
	}

	if event.Type == eventCheckoutCompleted {
		session := event.Data.Object
		storeID := session.Metadata["storeId"]

		var productIDs []string
		if raw := session.Metadata["productIds"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &productIDs); err != nil {
				log.Printf("[WEBHOOK] bad productIds metadata: %v", err)
				productIDs = nil
			}
		}

		if storeID != "" {
			_, err := s.createPaidOrder(r.Context(), storeID, productIDs,
				session.CustomerDetails.Address.formatted(), session.CustomerDetails.Phone)
			if err != nil {
				log.Printf("[WEBHOOK] %v", err)
				writeJSON(w, http.StatusInternalServerError, "Internal error")
				return
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
