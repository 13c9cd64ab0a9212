package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemoPopulatesCatalog(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	store, err := svc.SeedDemo(context.Background(), "user_demo")
	require.NoError(t, err)
	require.NotEmpty(t, store.ID)

	rec := doJSON(t, h, "GET", "/api/"+store.ID+"/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeBody[listPage[productRow]](t, rec)
	assert.Equal(t, 3, products.TotalRecords)

	rec = doJSON(t, h, "GET", "/api/"+store.ID+"/orders", "", nil)
	orders := decodeBody[listPage[orderRow]](t, rec)
	require.Equal(t, 1, orders.TotalRecords)
	assert.True(t, orders.Data[0].IsPaid)

	rec = doJSON(t, h, "GET", "/api/"+store.ID+"/categories", "", nil)
	categories := decodeBody[listPage[categoryRow]](t, rec)
	assert.Equal(t, 2, categories.TotalRecords)
}
