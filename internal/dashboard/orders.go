package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// createPaidOrder persists one paid order with an item per product id in a
// single transaction. It is only reached from the payment webhook; nothing
// about it is idempotent, so a redelivered event makes a second order.
func (s *Service) createPaidOrder(ctx context.Context, storeID string, productIDs []string, address, phone string) (Order, error) {
	o := Order{
		ID:        newID("order"),
		StoreID:   storeID,
		IsPaid:    true,
		Address:   address,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	for _, pid := range productIDs {
		o.Items = append(o.Items, OrderItem{ID: newID("item"), OrderID: o.ID, ProductID: pid})
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		if _, ok := s.mem.stores[storeID]; !ok {
			return Order{}, errConstraint
		}
		for _, it := range o.Items {
			if _, ok := s.mem.products[it.ProductID]; !ok {
				return Order{}, errConstraint
			}
		}
		s.mem.orders[o.ID] = o
		return o, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, store_id, is_paid, address, phone, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		o.ID, o.StoreID, o.IsPaid, o.Address, o.Phone, o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id) VALUES ($1,$2,$3)`,
			it.ID, it.OrderID, it.ProductID); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) getOrder(ctx context.Context, storeID, id string) (Order, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		o, ok := s.mem.orders[id]
		if !ok || o.StoreID != storeID {
			return Order{}, sql.ErrNoRows
		}
		return o, nil
	}

	var o Order
	err := s.db.QueryRowContext(ctx,
		`SELECT id, store_id, is_paid, address, phone, created_at FROM orders WHERE id = $1 AND store_id = $2`,
		id, storeID).
		Scan(&o.ID, &o.StoreID, &o.IsPaid, &o.Address, &o.Phone, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// orderLine is one resolved item of an order page: the product's current name
// and price.
type orderLine struct {
	name  string
	price float64
}

// listOrders matches the search term against the order id or any of the
// joined product names, then shapes each row with the comma-joined product
// list and a total derived from current prices.
func (s *Service) listOrders(ctx context.Context, p listParams) ([]orderRow, int, error) {
	out := make([]orderRow, 0)
	var total int

	if s.db == nil {
		s.mem.mu.RLock()
		var items []Order
		lines := make(map[string][]orderLine)
		for _, o := range s.mem.orders {
			if o.StoreID != p.StoreID {
				continue
			}
			var ls []orderLine
			for _, it := range o.Items {
				if prod, ok := s.mem.products[it.ProductID]; ok {
					ls = append(ls, orderLine{name: prod.Name, price: prod.Price})
				}
			}
			if p.SearchTerm != "" {
				matched := containsFold(o.ID, p.SearchTerm)
				for _, l := range ls {
					if containsFold(l.name, p.SearchTerm) {
						matched = true
						break
					}
				}
				if !matched {
					continue
				}
			}
			items = append(items, o)
			lines[o.ID] = ls
		}
		s.mem.mu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		total = len(items)
		for _, o := range pageSlice(items, p.Skip, p.Take) {
			out = append(out, shapeOrder(o, lines[o.ID]))
		}
		return out, total, nil
	}

	wb := newAliasedWhere("o", p.StoreID)
	if p.SearchTerm != "" {
		wb.add(`(o.id ILIKE $? OR EXISTS (
			SELECT 1 FROM order_items oi JOIN products pr ON pr.id = oi.product_id
			WHERE oi.order_id = o.id AND pr.name ILIKE $?))`,
			likePattern(p.SearchTerm), likePattern(p.SearchTerm))
	}

	q := fmt.Sprintf(`
		SELECT o.id, o.store_id, o.is_paid, o.address, o.phone, o.created_at
		FROM orders o
		WHERE %s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $%d OFFSET $%d`, wb.sql(), len(wb.args)+1, len(wb.args)+2)
	rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.StoreID, &o.IsPaid, &o.Address, &o.Phone, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := s.orderLines(ctx, orders)
	if err != nil {
		return nil, 0, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders o WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	for _, o := range orders {
		out = append(out, shapeOrder(o, lines[o.ID]))
	}
	return out, total, nil
}

// orderLines resolves every item of the given orders through its product's
// current name and price. An item whose product vanished resolves to nothing
// and contributes zero.
func (s *Service) orderLines(ctx context.Context, orders []Order) (map[string][]orderLine, error) {
	lines := make(map[string][]orderLine, len(orders))
	if len(orders) == 0 {
		return lines, nil
	}

	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = o.ID
	}
	q := fmt.Sprintf(`
		SELECT oi.order_id, pr.name, pr.price
		FROM order_items oi
		JOIN products pr ON pr.id = oi.product_id
		WHERE oi.order_id IN (%s)
		ORDER BY oi.id`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var l orderLine
		if err := rows.Scan(&orderID, &l.name, &l.price); err != nil {
			return nil, err
		}
		lines[orderID] = append(lines[orderID], l)
	}
	return lines, rows.Err()
}

func shapeOrder(o Order, lines []orderLine) orderRow {
	names := make([]string, 0, len(lines))
	var totalPrice float64
	for _, l := range lines {
		names = append(names, l.name)
		totalPrice += l.price
	}
	return orderRow{
		ID:         o.ID,
		StoreID:    o.StoreID,
		IsPaid:     o.IsPaid,
		Address:    o.Address,
		Phone:      o.Phone,
		Products:   strings.Join(names, ", "),
		TotalPrice: formatUSD(totalPrice),
		CreatedAt:  dateOnly(o.CreatedAt),
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleOrderList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listOrders(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[ORDER_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[orderRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.getOrder(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[ORDER_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, o)
}
