package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Sizes
// ---------------------------------------------------------------------------

func (s *Service) createSize(ctx context.Context, storeID string, in SizeInput) (Size, error) {
	now := time.Now().UTC()
	sz := Size{
		ID:        newID("size"),
		StoreID:   storeID,
		Name:      strings.TrimSpace(in.Name),
		Value:     strings.TrimSpace(in.Value),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		if _, ok := s.mem.stores[storeID]; !ok {
			return Size{}, errConstraint
		}
		s.mem.sizes[sz.ID] = sz
		return sz, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sizes (id, store_id, name, value, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		sz.ID, sz.StoreID, sz.Name, sz.Value, sz.CreatedAt, sz.UpdatedAt)
	if err != nil {
		return Size{}, err
	}
	return sz, nil
}

func (s *Service) getSize(ctx context.Context, storeID, id string) (Size, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		sz, ok := s.mem.sizes[id]
		if !ok || sz.StoreID != storeID {
			return Size{}, sql.ErrNoRows
		}
		return sz, nil
	}

	var sz Size
	err := s.db.QueryRowContext(ctx,
		`SELECT id, store_id, name, value, created_at, updated_at FROM sizes WHERE id = $1 AND store_id = $2`,
		id, storeID).
		Scan(&sz.ID, &sz.StoreID, &sz.Name, &sz.Value, &sz.CreatedAt, &sz.UpdatedAt)
	if err != nil {
		return Size{}, err
	}
	return sz, nil
}

func (s *Service) updateSize(ctx context.Context, storeID, id string, in SizeInput) (Size, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		sz, ok := s.mem.sizes[id]
		if !ok || sz.StoreID != storeID {
			return Size{}, sql.ErrNoRows
		}
		sz.Name = strings.TrimSpace(in.Name)
		sz.Value = strings.TrimSpace(in.Value)
		sz.UpdatedAt = time.Now().UTC()
		s.mem.sizes[id] = sz
		return sz, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sizes SET name = $3, value = $4, updated_at = $5 WHERE id = $1 AND store_id = $2`,
		id, storeID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Value), time.Now().UTC())
	if err != nil {
		return Size{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Size{}, err
	}
	if affected == 0 {
		return Size{}, sql.ErrNoRows
	}
	return s.getSize(ctx, storeID, id)
}

func (s *Service) deleteSize(ctx context.Context, storeID, id string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		sz, ok := s.mem.sizes[id]
		if !ok || sz.StoreID != storeID {
			return 0, nil
		}
		for _, p := range s.mem.products {
			if p.SizeID == id {
				return 0, errConstraint
			}
		}
		delete(s.mem.sizes, id)
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sizes WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// listSizes requires the search term in both name and value, unlike colors
// which match either. That asymmetry is what the dashboard ships with.
func (s *Service) listSizes(ctx context.Context, p listParams) ([]sizeRow, int, error) {
	var items []Size
	var total int

	if s.db == nil {
		s.mem.mu.RLock()
		for _, sz := range s.mem.sizes {
			if sz.StoreID != p.StoreID {
				continue
			}
			if p.SearchTerm != "" && (!containsFold(sz.Name, p.SearchTerm) || !containsFold(sz.Value, p.SearchTerm)) {
				continue
			}
			items = append(items, sz)
		}
		s.mem.mu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		total = len(items)
		items = pageSlice(items, p.Skip, p.Take)
	} else {
		wb := newWhere(p.StoreID)
		if p.SearchTerm != "" {
			wb.add("name ILIKE $?", likePattern(p.SearchTerm))
			wb.add("value ILIKE $?", likePattern(p.SearchTerm))
		}

		q := fmt.Sprintf(`
			SELECT id, store_id, name, value, created_at, updated_at
			FROM sizes
			WHERE %s
			ORDER BY created_at DESC, id DESC
			LIMIT $%d OFFSET $%d`, wb.sql(), len(wb.args)+1, len(wb.args)+2)
		rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()
		for rows.Next() {
			var sz Size
			if err := rows.Scan(&sz.ID, &sz.StoreID, &sz.Name, &sz.Value, &sz.CreatedAt, &sz.UpdatedAt); err != nil {
				return nil, 0, err
			}
			items = append(items, sz)
		}
		if err := rows.Err(); err != nil {
			return nil, 0, err
		}

		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sizes WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	out := make([]sizeRow, 0, len(items))
	for _, sz := range items {
		out = append(out, sizeRow{
			ID:        sz.ID,
			StoreID:   sz.StoreID,
			Name:      sz.Name,
			Value:     sz.Value,
			CreatedAt: dateOnly(sz.CreatedAt),
		})
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleSizeList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listSizes(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[SIZE_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[sizeRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleSizeCreate(w http.ResponseWriter, r *http.Request) {
	var in SizeInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	if fe := in.validate(); len(fe) > 0 {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	sz, err := s.createSize(r.Context(), storeID, in)
	if err != nil {
		log.Printf("[SIZE_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, sz)
}

func (s *Service) handleSizeGet(w http.ResponseWriter, r *http.Request) {
	sz, err := s.getSize(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[SIZE_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, sz)
}

func (s *Service) handleSizeUpdate(w http.ResponseWriter, r *http.Request) {
	var in SizeInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	if fe := in.validate(); len(fe) > 0 {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	sz, err := s.updateSize(r.Context(), storeID, r.PathValue("id"), in)
	if err != nil {
		log.Printf("[SIZE_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, sz)
}

func (s *Service) handleSizeDelete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	count, err := s.deleteSize(r.Context(), storeID, r.PathValue("id"))
	if err != nil {
		log.Printf("[SIZE_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
