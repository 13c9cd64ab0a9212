package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueAlwaysTwelveBuckets(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")

	rec := doJSON(t, h, "GET", "/api/"+st.ID+"/revenue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	points := decodeBody[[]GraphPoint](t, rec)
	require.Len(t, points, 12)
	assert.Equal(t, "Jan", points[0].Name)
	assert.Equal(t, "Dec", points[11].Name)
	for _, p := range points {
		assert.Zero(t, p.Total)
	}
}

func TestRevenueBucketsPaidOrdersByMonth(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)
	ctx := context.Background()

	tee, err := svc.createProduct(ctx, cat.store.ID, cat.productInput("Tee", 10.00))
	require.NoError(t, err)
	hoodie, err := svc.createProduct(ctx, cat.store.ID, cat.productInput("Hoodie", 5.00))
	require.NoError(t, err)
	_, err = svc.createPaidOrder(ctx, cat.store.ID, []string{tee.ID, hoodie.ID}, "A St", "1")
	require.NoError(t, err)
	_, err = svc.createPaidOrder(ctx, cat.store.ID, []string{tee.ID}, "B St", "2")
	require.NoError(t, err)

	rec := doJSON(t, h, "GET", "/api/"+cat.store.ID+"/revenue", "", nil)
	points := decodeBody[[]GraphPoint](t, rec)
	require.Len(t, points, 12)

	current := int(time.Now().UTC().Month()) - 1
	for i, p := range points {
		if i == current {
			assert.Equal(t, 25.00, p.Total)
		} else {
			assert.Zero(t, p.Total)
		}
	}
}

func TestRevenueMarchBucket(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)
	ctx := context.Background()

	tee, err := svc.createProduct(ctx, cat.store.ID, cat.productInput("Tee", 10.00))
	require.NoError(t, err)
	capProd, err := svc.createProduct(ctx, cat.store.ID, cat.productInput("Cap", 5.00))
	require.NoError(t, err)

	march := time.Date(time.Now().UTC().Year(), time.March, 14, 12, 0, 0, 0, time.UTC)
	order := Order{
		ID: newID("order"), StoreID: cat.store.ID, IsPaid: true, CreatedAt: march,
		Items: []OrderItem{
			{ID: newID("item"), ProductID: tee.ID},
			{ID: newID("item"), ProductID: capProd.ID},
		},
	}
	svc.mem.mu.Lock()
	svc.mem.orders[order.ID] = order
	svc.mem.mu.Unlock()

	rec := doJSON(t, h, "GET", "/api/"+cat.store.ID+"/revenue", "", nil)
	points := decodeBody[[]GraphPoint](t, rec)
	require.Len(t, points, 12)
	assert.Equal(t, "Mar", points[2].Name)
	assert.Equal(t, 15.00, points[2].Total)
	for i, p := range points {
		if i != 2 {
			assert.Zero(t, p.Total)
		}
	}
}

func TestRevenueSkipsUnpaidAndPriorYears(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)
	ctx := context.Background()

	tee, err := svc.createProduct(ctx, cat.store.ID, cat.productInput("Tee", 10.00))
	require.NoError(t, err)

	now := time.Now().UTC()
	svc.mem.mu.Lock()
	unpaid := Order{
		ID: newID("order"), StoreID: cat.store.ID, IsPaid: false, CreatedAt: now,
		Items: []OrderItem{{ID: newID("item"), ProductID: tee.ID}},
	}
	lastYear := Order{
		ID: newID("order"), StoreID: cat.store.ID, IsPaid: true, CreatedAt: now.AddDate(-1, 0, 0),
		Items: []OrderItem{{ID: newID("item"), ProductID: tee.ID}},
	}
	svc.mem.orders[unpaid.ID] = unpaid
	svc.mem.orders[lastYear.ID] = lastYear
	svc.mem.mu.Unlock()

	rec := doJSON(t, h, "GET", "/api/"+cat.store.ID+"/revenue", "", nil)
	points := decodeBody[[]GraphPoint](t, rec)
	for _, p := range points {
		assert.Zero(t, p.Total)
	}
}
