package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryListCarriesBillboardLabel(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	rec := doJSON(t, h, "GET", "/api/"+cat.store.ID+"/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[listPage[categoryRow]](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Shirts", page.Data[0].Name)
	assert.Equal(t, "Hero", page.Data[0].BillboardLabel)
	assert.Equal(t, 1, page.TotalRecords)
}

func TestCategoryGetResolvesBillboard(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	rec := doJSON(t, h, "GET", "/api/"+cat.store.ID+"/categories/"+cat.category.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[Category](t, rec)
	require.NotNil(t, got.Billboard)
	assert.Equal(t, "Hero", got.Billboard.Label)
}

func TestCategoryCreateRequiresExistingBillboard(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")

	rec := doJSON(t, h, "POST", "/api/"+st.ID+"/categories", testUser,
		CategoryInput{Name: "Orphans", BillboardID: "bb_missing"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, h, "POST", "/api/"+st.ID+"/categories", testUser,
		CategoryInput{Name: "", BillboardID: ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid fields", decodeBody[string](t, rec))
}

func TestCategoryDeleteBlockedByProduct(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)
	_, err := svc.createProduct(context.Background(), cat.store.ID, cat.productInput("Tee", 19.99))
	require.NoError(t, err)

	rec := doJSON(t, h, "DELETE", "/api/"+cat.store.ID+"/categories/"+cat.category.ID, testUser, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
