package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testUser = "user_owner"

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(nil, "whsec_test")
}

// doJSON runs one request through the full handler chain in memory mode.
func doJSON(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func mustStore(t *testing.T, svc *Service, userID, name string) Store {
	t.Helper()
	st, err := svc.createStore(context.Background(), userID, name)
	require.NoError(t, err)
	return st
}

// catalog is the referential scaffolding most product and order tests need.
type catalog struct {
	store    Store
	category Category
	color    Color
	size     Size
}

func mustCatalog(t *testing.T, svc *Service) catalog {
	t.Helper()
	ctx := context.Background()
	st := mustStore(t, svc, testUser, "Test Store")
	bb, err := svc.createBillboard(ctx, st.ID, BillboardInput{Label: "Hero", ImageURL: "https://img.test/hero.jpg"})
	require.NoError(t, err)
	cat, err := svc.createCategory(ctx, st.ID, CategoryInput{Name: "Shirts", BillboardID: bb.ID})
	require.NoError(t, err)
	col, err := svc.createColor(ctx, st.ID, ColorInput{Name: "Black", Value: "#000000"})
	require.NoError(t, err)
	sz, err := svc.createSize(ctx, st.ID, SizeInput{Name: "Medium", Value: "M"})
	require.NoError(t, err)
	return catalog{store: st, category: cat, color: col, size: sz}
}

func (c catalog) productInput(name string, price float64) ProductInput {
	return ProductInput{
		Name:       name,
		Price:      price,
		CategoryID: c.category.ID,
		ColorID:    c.color.ID,
		SizeID:     c.size.ID,
		Images:     []ImageInput{{URL: "https://img.test/" + name + ".jpg"}},
	}
}
