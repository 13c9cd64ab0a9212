package dashboard

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreate(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	rec := doJSON(t, h, "POST", "/api/stores", testUser, StoreInput{Name: "My Store"})
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeBody[Store](t, rec)
	assert.True(t, strings.HasPrefix(st.ID, "store_"))
	assert.Equal(t, "My Store", st.Name)
	assert.Equal(t, testUser, st.UserID)
}

func TestStoreCreateRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	rec := doJSON(t, h, "POST", "/api/stores", testUser, StoreInput{Name: "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid fields", decodeBody[string](t, rec))

	rec = doJSON(t, h, "POST", "/api/stores", "", StoreInput{Name: "My Store"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated", decodeBody[string](t, rec))
}

func TestStoreUpdateCountSemantics(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Before")

	rec := doJSON(t, h, "PATCH", "/api/stores/"+st.ID, testUser, StoreInput{Name: "After"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"count": 1}, decodeBody[map[string]int64](t, rec))

	// A non-owner gets the same shape with count 0, not an error.
	rec = doJSON(t, h, "PATCH", "/api/stores/"+st.ID, "user_other", StoreInput{Name: "Hijacked"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"count": 0}, decodeBody[map[string]int64](t, rec))

	rec = doJSON(t, h, "PATCH", "/api/stores/"+st.ID, testUser, StoreInput{Name: ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name is required", decodeBody[string](t, rec))
}

func TestStoreDeleteBlockedByDependents(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	rec := doJSON(t, h, "DELETE", "/api/stores/"+cat.store.ID, testUser, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	empty := mustStore(t, svc, testUser, "Empty Store")
	rec = doJSON(t, h, "DELETE", "/api/stores/"+empty.ID, testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"count": 1}, decodeBody[map[string]int64](t, rec))
}
