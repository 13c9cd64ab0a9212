package dashboard

import (
	"context"
	"log"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Revenue aggregation
// ---------------------------------------------------------------------------

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// monthlyRevenue buckets item-level revenue of the store's paid orders into
// the twelve months of the current calendar year. The output shape is fixed:
// always twelve points in calendar order, empty months at zero, so charting
// consumers never have to pad. Each order contributes the sum of its items'
// current product prices to the month it was created in.
func (s *Service) monthlyRevenue(ctx context.Context, storeID string) ([]GraphPoint, error) {
	now := time.Now().UTC()
	startOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	endOfYear := startOfYear.AddDate(1, 0, 0)

	points := make([]GraphPoint, 12)
	for i := range points {
		points[i] = GraphPoint{Name: monthNames[i]}
	}

	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		for _, o := range s.mem.orders {
			if o.StoreID != storeID || !o.IsPaid {
				continue
			}
			if o.CreatedAt.Before(startOfYear) || !o.CreatedAt.Before(endOfYear) {
				continue
			}
			var orderTotal float64
			for _, it := range o.Items {
				// A dangling product reference contributes nothing.
				if prod, ok := s.mem.products[it.ProductID]; ok {
					orderTotal += prod.Price
				}
			}
			points[int(o.CreatedAt.Month())-1].Total += orderTotal
		}
		return points, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.created_at, COALESCE(SUM(pr.price), 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products pr ON pr.id = oi.product_id
		WHERE o.store_id = $1 AND o.is_paid = TRUE AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY o.id, o.created_at`, storeID, startOfYear, endOfYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var created time.Time
		var orderTotal float64
		if err := rows.Scan(&id, &created, &orderTotal); err != nil {
			return nil, err
		}
		points[int(created.UTC().Month())-1].Total += orderTotal
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Service) handleRevenue(w http.ResponseWriter, r *http.Request) {
	points, err := s.monthlyRevenue(r.Context(), r.PathValue("storeId"))
	if err != nil {
		log.Printf("[REVENUE_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, points)
}
