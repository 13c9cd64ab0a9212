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
// Categories
// ---------------------------------------------------------------------------

func (s *Service) createCategory(ctx context.Context, storeID string, in CategoryInput) (Category, error) {
	now := time.Now().UTC()
	c := Category{
		ID:          newID("cat"),
		StoreID:     storeID,
		BillboardID: strings.TrimSpace(in.BillboardID),
		Name:        strings.TrimSpace(in.Name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		if _, ok := s.mem.billboards[c.BillboardID]; !ok {
			return Category{}, errConstraint
		}
		s.mem.categories[c.ID] = c
		return c, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, store_id, billboard_id, name, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.StoreID, c.BillboardID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

// getCategory resolves the linked billboard as well; the category form needs
// it.
func (s *Service) getCategory(ctx context.Context, storeID, id string) (Category, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		c, ok := s.mem.categories[id]
		if !ok || c.StoreID != storeID {
			return Category{}, sql.ErrNoRows
		}
		if bb, ok := s.mem.billboards[c.BillboardID]; ok {
			c.Billboard = &bb
		}
		return c, nil
	}

	var c Category
	var bb Billboard
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.store_id, c.billboard_id, c.name, c.created_at, c.updated_at,
		       b.id, b.store_id, b.label, b.image_url, b.created_at, b.updated_at
		FROM categories c
		JOIN billboards b ON b.id = c.billboard_id
		WHERE c.id = $1 AND c.store_id = $2`, id, storeID).
		Scan(&c.ID, &c.StoreID, &c.BillboardID, &c.Name, &c.CreatedAt, &c.UpdatedAt,
			&bb.ID, &bb.StoreID, &bb.Label, &bb.ImageURL, &bb.CreatedAt, &bb.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	c.Billboard = &bb
	return c, nil
}

func (s *Service) updateCategory(ctx context.Context, storeID, id string, in CategoryInput) (Category, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		c, ok := s.mem.categories[id]
		if !ok || c.StoreID != storeID {
			return Category{}, sql.ErrNoRows
		}
		if _, ok := s.mem.billboards[strings.TrimSpace(in.BillboardID)]; !ok {
			return Category{}, errConstraint
		}
		c.Name = strings.TrimSpace(in.Name)
		c.BillboardID = strings.TrimSpace(in.BillboardID)
		c.UpdatedAt = time.Now().UTC()
		s.mem.categories[id] = c
		return c, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = $3, billboard_id = $4, updated_at = $5 WHERE id = $1 AND store_id = $2`,
		id, storeID, strings.TrimSpace(in.Name), strings.TrimSpace(in.BillboardID), time.Now().UTC())
	if err != nil {
		return Category{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Category{}, err
	}
	if affected == 0 {
		return Category{}, sql.ErrNoRows
	}
	return s.getCategory(ctx, storeID, id)
}

func (s *Service) deleteCategory(ctx context.Context, storeID, id string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		c, ok := s.mem.categories[id]
		if !ok || c.StoreID != storeID {
			return 0, nil
		}
		for _, p := range s.mem.products {
			if p.CategoryID == id {
				return 0, errConstraint
			}
		}
		delete(s.mem.categories, id)
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Service) listCategories(ctx context.Context, p listParams) ([]categoryRow, int, error) {
	out := make([]categoryRow, 0)
	var total int

	if s.db == nil {
		s.mem.mu.RLock()
		var items []Category
		for _, c := range s.mem.categories {
			if c.StoreID != p.StoreID {
				continue
			}
			if p.SearchTerm != "" && !containsFold(c.Name, p.SearchTerm) {
				continue
			}
			items = append(items, c)
		}
		labels := make(map[string]string, len(items))
		for _, c := range items {
			if bb, ok := s.mem.billboards[c.BillboardID]; ok {
				labels[c.ID] = bb.Label
			}
		}
		s.mem.mu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		total = len(items)
		for _, c := range pageSlice(items, p.Skip, p.Take) {
			out = append(out, categoryRow{
				ID:             c.ID,
				StoreID:        c.StoreID,
				BillboardID:    c.BillboardID,
				Name:           c.Name,
				BillboardLabel: labels[c.ID],
				CreatedAt:      dateOnly(c.CreatedAt),
			})
		}
		return out, total, nil
	}

	wb := newAliasedWhere("c", p.StoreID)
	if p.SearchTerm != "" {
		wb.add("c.name ILIKE $?", likePattern(p.SearchTerm))
	}

	q := fmt.Sprintf(`
		SELECT c.id, c.store_id, c.billboard_id, c.name, c.created_at, b.label
		FROM categories c
		JOIN billboards b ON b.id = c.billboard_id
		WHERE %s
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $%d OFFSET $%d`,
		wb.sql(), len(wb.args)+1, len(wb.args)+2)
	rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var row categoryRow
		var created time.Time
		if err := rows.Scan(&row.ID, &row.StoreID, &row.BillboardID, &row.Name, &created, &row.BillboardLabel); err != nil {
			return nil, 0, err
		}
		row.CreatedAt = dateOnly(created)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories c WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listCategories(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[CATEGORY_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[categoryRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
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
	c, err := s.createCategory(r.Context(), storeID, in)
	if err != nil {
		log.Printf("[CATEGORY_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleCategoryGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.getCategory(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[CATEGORY_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
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
	c, err := s.updateCategory(r.Context(), storeID, r.PathValue("id"), in)
	if err != nil {
		log.Printf("[CATEGORY_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	count, err := s.deleteCategory(r.Context(), storeID, r.PathValue("id"))
	if err != nil {
		log.Printf("[CATEGORY_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
