package dashboard

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzReportsMode(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	rec := doJSON(t, h, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["mode"])
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	rec := doJSON(t, h, "GET", "/healthz", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestMalformedJSONBodyRejected(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")

	req := doJSON(t, h, "POST", "/api/"+st.ID+"/billboards", testUser, nil)
	require.Equal(t, http.StatusBadRequest, req.Code)
	assert.Equal(t, "Invalid fields", decodeBody[string](t, req))
}
