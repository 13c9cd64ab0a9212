package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillboardSearchIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")
	ctx := context.Background()

	for _, label := range []string{"Summer Sale", "Winter Drop", "New Arrivals"} {
		_, err := svc.createBillboard(ctx, st.ID, BillboardInput{Label: label, ImageURL: "https://img.test/b.jpg"})
		require.NoError(t, err)
	}

	rec := doJSON(t, h, "GET", "/api/"+st.ID+"/billboards?searchTerm=summer", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[listPage[billboardRow]](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Summer Sale", page.Data[0].Label)
	assert.Equal(t, 1, page.TotalRecords)
}

func TestBillboardListPagination(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.createBillboard(ctx, st.ID, BillboardInput{
			Label:    fmt.Sprintf("Board %d", i),
			ImageURL: "https://img.test/b.jpg",
		})
		require.NoError(t, err)
	}

	rec := doJSON(t, h, "GET", "/api/"+st.ID+"/billboards?pageIndex=0&pageSize=3", "", nil)
	first := decodeBody[listPage[billboardRow]](t, rec)
	assert.Len(t, first.Data, 3)
	assert.Equal(t, 7, first.TotalRecords)

	rec = doJSON(t, h, "GET", "/api/"+st.ID+"/billboards?pageIndex=2&pageSize=3", "", nil)
	last := decodeBody[listPage[billboardRow]](t, rec)
	assert.Len(t, last.Data, 1)
	assert.Equal(t, 7, last.TotalRecords)

	// Past the end: empty data, same total.
	rec = doJSON(t, h, "GET", "/api/"+st.ID+"/billboards?pageIndex=9&pageSize=3", "", nil)
	beyond := decodeBody[listPage[billboardRow]](t, rec)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 7, beyond.TotalRecords)
}

func TestBillboardGetAbsentReadsNull(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")

	rec := doJSON(t, h, "GET", "/api/"+st.ID+"/billboards/bb_missing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestBillboardWriteGuard(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")
	in := BillboardInput{Label: "Hero", ImageURL: "https://img.test/hero.jpg"}

	rec := doJSON(t, h, "POST", "/api/"+st.ID+"/billboards", "", in)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated", decodeBody[string](t, rec))

	// Another user's store reads as absent, not forbidden.
	rec = doJSON(t, h, "POST", "/api/"+st.ID+"/billboards", "user_other", in)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody[string](t, rec))

	rec = doJSON(t, h, "POST", "/api/"+st.ID+"/billboards", testUser, in)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBillboardUpdateReplacesFields(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	st := mustStore(t, svc, testUser, "Shop")
	bb, err := svc.createBillboard(context.Background(), st.ID, BillboardInput{Label: "Old", ImageURL: "https://img.test/old.jpg"})
	require.NoError(t, err)

	rec := doJSON(t, h, "PATCH", "/api/"+st.ID+"/billboards/"+bb.ID, testUser,
		BillboardInput{Label: "New", ImageURL: "https://img.test/new.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[Billboard](t, rec)
	assert.Equal(t, "New", updated.Label)
	assert.Equal(t, "https://img.test/new.jpg", updated.ImageURL)
}

func TestBillboardDeleteBlockedByCategory(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()
	cat := mustCatalog(t, svc)

	rec := doJSON(t, h, "DELETE", "/api/"+cat.store.ID+"/billboards/"+cat.category.BillboardID, testUser, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Unreferenced billboards delete with count 1; absent ones with count 0.
	free, err := svc.createBillboard(context.Background(), cat.store.ID, BillboardInput{Label: "Free", ImageURL: "https://img.test/f.jpg"})
	require.NoError(t, err)
	rec = doJSON(t, h, "DELETE", "/api/"+cat.store.ID+"/billboards/"+free.ID, testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"count": 1}, decodeBody[map[string]int64](t, rec))

	rec = doJSON(t, h, "DELETE", "/api/"+cat.store.ID+"/billboards/"+free.ID, testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"count": 0}, decodeBody[map[string]int64](t, rec))
}
