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
// Colors
// ---------------------------------------------------------------------------

func (s *Service) createColor(ctx context.Context, storeID string, in ColorInput) (Color, error) {
	now := time.Now().UTC()
	c := Color{
		ID:        newID("col"),
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
			return Color{}, errConstraint
		}
		s.mem.colors[c.ID] = c
		return c, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO colors (id, store_id, name, value, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.StoreID, c.Name, c.Value, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Color{}, err
	}
	return c, nil
}

func (s *Service) getColor(ctx context.Context, storeID, id string) (Color, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		c, ok := s.mem.colors[id]
		if !ok || c.StoreID != storeID {
			return Color{}, sql.ErrNoRows
		}
		return c, nil
	}

	var c Color
	err := s.db.QueryRowContext(ctx,
		`SELECT id, store_id, name, value, created_at, updated_at FROM colors WHERE id = $1 AND store_id = $2`,
		id, storeID).
		Scan(&c.ID, &c.StoreID, &c.Name, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Color{}, err
	}
	return c, nil
}

func (s *Service) updateColor(ctx context.Context, storeID, id string, in ColorInput) (Color, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		c, ok := s.mem.colors[id]
		if !ok || c.StoreID != storeID {
			return Color{}, sql.ErrNoRows
		}
		c.Name = strings.TrimSpace(in.Name)
		c.Value = strings.TrimSpace(in.Value)
		c.UpdatedAt = time.Now().UTC()
		s.mem.colors[id] = c
		return c, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE colors SET name = $3, value = $4, updated_at = $5 WHERE id = $1 AND store_id = $2`,
		id, storeID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Value), time.Now().UTC())
	if err != nil {
		return Color{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Color{}, err
	}
	if affected == 0 {
		return Color{}, sql.ErrNoRows
	}
	return s.getColor(ctx, storeID, id)
}

func (s *Service) deleteColor(ctx context.Context, storeID, id string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		c, ok := s.mem.colors[id]
		if !ok || c.StoreID != storeID {
			return 0, nil
		}
		for _, p := range s.mem.products {
			if p.ColorID == id {
				return 0, errConstraint
			}
		}
		delete(s.mem.colors, id)
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM colors WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// listColors matches the search term against name or value.
func (s *Service) listColors(ctx context.Context, p listParams) ([]colorRow, int, error) {
	var items []Color
	var total int

	if s.db == nil {
		s.mem.mu.RLock()
		for _, c := range s.mem.colors {
			if c.StoreID != p.StoreID {
				continue
			}
			if p.SearchTerm != "" && !containsFold(c.Name, p.SearchTerm) && !containsFold(c.Value, p.SearchTerm) {
				continue
			}
			items = append(items, c)
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
			wb.add("(name ILIKE $? OR value ILIKE $?)",
				likePattern(p.SearchTerm), likePattern(p.SearchTerm))
		}

		q := fmt.Sprintf(`
			SELECT id, store_id, name, value, created_at, updated_at
			FROM colors
			WHERE %s
			ORDER BY created_at DESC, id DESC
			LIMIT $%d OFFSET $%d`, wb.sql(), len(wb.args)+1, len(wb.args)+2)
		rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()
		for rows.Next() {
			var c Color
			if err := rows.Scan(&c.ID, &c.StoreID, &c.Name, &c.Value, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return nil, 0, err
			}
			items = append(items, c)
		}
		if err := rows.Err(); err != nil {
			return nil, 0, err
		}

		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM colors WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	out := make([]colorRow, 0, len(items))
	for _, c := range items {
		out = append(out, colorRow{
			ID:        c.ID,
			StoreID:   c.StoreID,
			Name:      c.Name,
			Value:     c.Value,
			CreatedAt: dateOnly(c.CreatedAt),
		})
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleColorList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listColors(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[COLOR_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[colorRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleColorCreate(w http.ResponseWriter, r *http.Request) {
	var in ColorInput
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
	c, err := s.createColor(r.Context(), storeID, in)
	if err != nil {
		log.Printf("[COLOR_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleColorGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.getColor(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[COLOR_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleColorUpdate(w http.ResponseWriter, r *http.Request) {
	var in ColorInput
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
	c, err := s.updateColor(r.Context(), storeID, r.PathValue("id"), in)
	if err != nil {
		log.Printf("[COLOR_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleColorDelete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	count, err := s.deleteColor(r.Context(), storeID, r.PathValue("id"))
	if err != nil {
		log.Printf("[COLOR_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
