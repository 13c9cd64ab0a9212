package dashboard

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func signPayload(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedBody(t *testing.T, storeID string, productIDs []string) []byte {
	t.Helper()
	ids, err := json.Marshal(productIDs)
	require.NoError(t, err)
	payload := map[string]any{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id": "cs_1",
				"metadata": map[string]string{
					"storeId":    storeID,
					"productIds": string(ids),
				},
				"customer_details": map[string]any{
					"phone": "+15551234",
					"address": map[string]string{
						"line1":       "1 Market St",
						"city":        "San Francisco",
						"state":       "CA",
						"postal_code": "94105",
						"country":     "US",
					},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func postWebhook(h http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func countOrders(svc *Service, storeID string) int {
	svc.mem.mu.RLock()
	defer svc.mem.mu.RUnlock()
	n := 0
	for _, o := range svc.mem.orders {
		if o.StoreID == storeID {
			n++
		}
	}
	return n
}

func TestWebhookCreatesPaidOrder(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	tee, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Tee", 19.99))
	require.NoError(t, err)
	hoodie, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Hoodie", 49.00))
	require.NoError(t, err)

	body := checkoutCompletedBody(t, cat.store.ID, []string{tee.ID, hoodie.ID})
	rec := postWebhook(h, body, signPayload(testSecret, time.Now(), body))
	require.Equal(t, http.StatusOK, rec.Code)

	svc.mem.mu.RLock()
	defer svc.mem.mu.RUnlock()
	require.Len(t, svc.mem.orders, 1)
	for _, o := range svc.mem.orders {
		assert.True(t, o.IsPaid)
		assert.Len(t, o.Items, 2)
		assert.Equal(t, "1 Market St, San Francisco, CA, 94105, US", o.Address)
		assert.Equal(t, "+15551234", o.Phone)
	}
}

// A redelivered completion event is processed again in full; nothing keys on
// the session id, so the second delivery makes a second order.
func TestWebhookRedeliveryDuplicatesOrder(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	tee, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Tee", 19.99))
	require.NoError(t, err)

	body := checkoutCompletedBody(t, cat.store.ID, []string{tee.ID})
	sig := signPayload(testSecret, time.Now(), body)

	require.Equal(t, http.StatusOK, postWebhook(h, body, sig).Code)
	require.Equal(t, http.StatusOK, postWebhook(h, body, sig).Code)

	assert.Equal(t, 2, countOrders(svc, cat.store.ID))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	tee, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Tee", 19.99))
	require.NoError(t, err)
	body := checkoutCompletedBody(t, cat.store.ID, []string{tee.ID})

	cases := []struct {
		name string
		sig  string
	}{
		{"missing header", ""},
		{"wrong secret", signPayload("whsec_other", time.Now(), body)},
		{"stale timestamp", signPayload(testSecret, time.Now().Add(-10*time.Minute), body)},
		{"future timestamp", signPayload(testSecret, time.Now().Add(10*time.Minute), body)},
		{"mangled header", "t=notanumber,v1=deadbeef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postWebhook(h, body, tc.sig)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, countOrders(svc, cat.store.ID))
}

// Tampering with a signed body invalidates the signature.
func TestWebhookRejectsTamperedBody(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	tee, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Tee", 19.99))
	require.NoError(t, err)
	body := checkoutCompletedBody(t, cat.store.ID, []string{tee.ID})
	sig := signPayload(testSecret, time.Now(), body)

	tampered := []byte(strings.Replace(string(body), tee.ID, "prod_attacker", 1))
	rec := postWebhook(h, tampered, sig)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, countOrders(svc, cat.store.ID))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	body := []byte(`{"id":"evt_2","type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`)
	rec := postWebhook(h, body, signPayload(testSecret, time.Now(), body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countOrders(svc, cat.store.ID))
}

func TestWebhookIgnoresSessionWithoutStore(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	body := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_2","metadata":{}}}}`)
	rec := postWebhook(h, body, signPayload(testSecret, time.Now(), body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countOrders(svc, cat.store.ID))
}

func TestVerifySignatureDirect(t *testing.T) {
	body := []byte(`{"ok":true}`)
	now := time.Now()

	require.NoError(t, verifySignature(body, signPayload("s", now, body), "s", now))
	require.Error(t, verifySignature(body, signPayload("s", now, body), "other", now))
	require.Error(t, verifySignature(body, "v1=deadbeef", "s", now))
	require.Error(t, verifySignature(body, "", "s", now))
}
