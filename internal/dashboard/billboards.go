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
// Billboards
// ---------------------------------------------------------------------------

func (s *Service) createBillboard(ctx context.Context, storeID string, in BillboardInput) (Billboard, error) {
	now := time.Now().UTC()
	bb := Billboard{
		ID:        newID("bb"),
		StoreID:   storeID,
		Label:     strings.TrimSpace(in.Label),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		if _, ok := s.mem.stores[storeID]; !ok {
			return Billboard{}, errConstraint
		}
		s.mem.billboards[bb.ID] = bb
		return bb, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO billboards (id, store_id, label, image_url, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		bb.ID, bb.StoreID, bb.Label, bb.ImageURL, bb.CreatedAt, bb.UpdatedAt)
	if err != nil {
		return Billboard{}, err
	}
	return bb, nil
}

func (s *Service) getBillboard(ctx context.Context, storeID, id string) (Billboard, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		bb, ok := s.mem.billboards[id]
		if !ok || bb.StoreID != storeID {
			return Billboard{}, sql.ErrNoRows
		}
		return bb, nil
	}

	var bb Billboard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, store_id, label, image_url, created_at, updated_at FROM billboards WHERE id = $1 AND store_id = $2`,
		id, storeID).
		Scan(&bb.ID, &bb.StoreID, &bb.Label, &bb.ImageURL, &bb.CreatedAt, &bb.UpdatedAt)
	if err != nil {
		return Billboard{}, err
	}
	return bb, nil
}

// updateBillboard is a full replace of the declared fields.
func (s *Service) updateBillboard(ctx context.Context, storeID, id string, in BillboardInput) (Billboard, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		bb, ok := s.mem.billboards[id]
		if !ok || bb.StoreID != storeID {
			return Billboard{}, sql.ErrNoRows
		}
		bb.Label = strings.TrimSpace(in.Label)
		bb.ImageURL = strings.TrimSpace(in.ImageURL)
		bb.UpdatedAt = time.Now().UTC()
		s.mem.billboards[id] = bb
		return bb, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE billboards SET label = $3, image_url = $4, updated_at = $5 WHERE id = $1 AND store_id = $2`,
		id, storeID, strings.TrimSpace(in.Label), strings.TrimSpace(in.ImageURL), time.Now().UTC())
	if err != nil {
		return Billboard{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Billboard{}, err
	}
	if affected == 0 {
		return Billboard{}, sql.ErrNoRows
	}
	return s.getBillboard(ctx, storeID, id)
}

func (s *Service) deleteBillboard(ctx context.Context, storeID, id string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		bb, ok := s.mem.billboards[id]
		if !ok || bb.StoreID != storeID {
			return 0, nil
		}
		for _, c := range s.mem.categories {
			if c.BillboardID == id {
				return 0, errConstraint
			}
		}
		delete(s.mem.billboards, id)
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM billboards WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Service) listBillboards(ctx context.Context, p listParams) ([]billboardRow, int, error) {
	var items []Billboard
	var total int

	if s.db == nil {
		s.mem.mu.RLock()
		for _, bb := range s.mem.billboards {
			if bb.StoreID != p.StoreID {
				continue
			}
			if p.SearchTerm != "" && !containsFold(bb.Label, p.SearchTerm) {
				continue
			}
			items = append(items, bb)
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
			wb.add("label ILIKE $?", likePattern(p.SearchTerm))
		}

		q := fmt.Sprintf(`
			SELECT id, store_id, label, image_url, created_at, updated_at
			FROM billboards
			WHERE %s
			ORDER BY created_at DESC, id DESC
			LIMIT $%d OFFSET $%d`, wb.sql(), len(wb.args)+1, len(wb.args)+2)
		rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()
		for rows.Next() {
			var bb Billboard
			if err := rows.Scan(&bb.ID, &bb.StoreID, &bb.Label, &bb.ImageURL, &bb.CreatedAt, &bb.UpdatedAt); err != nil {
				return nil, 0, err
			}
			items = append(items, bb)
		}
		if err := rows.Err(); err != nil {
			return nil, 0, err
		}

		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM billboards WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	out := make([]billboardRow, 0, len(items))
	for _, bb := range items {
		out = append(out, billboardRow{
			ID:        bb.ID,
			StoreID:   bb.StoreID,
			Label:     bb.Label,
			ImageURL:  bb.ImageURL,
			CreatedAt: dateOnly(bb.CreatedAt),
		})
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleBillboardList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listBillboards(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[BILLBOARD_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[billboardRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleBillboardCreate(w http.ResponseWriter, r *http.Request) {
	var in BillboardInput
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
	bb, err := s.createBillboard(r.Context(), storeID, in)
	if err != nil {
		log.Printf("[BILLBOARD_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, bb)
}

func (s *Service) handleBillboardGet(w http.ResponseWriter, r *http.Request) {
	bb, err := s.getBillboard(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		// Absent records read as a null body, not a 404.
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[BILLBOARD_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, bb)
}

func (s *Service) handleBillboardUpdate(w http.ResponseWriter, r *http.Request) {
	var in BillboardInput
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
	bb, err := s.updateBillboard(r.Context(), storeID, r.PathValue("id"), in)
	if err != nil {
		log.Printf("[BILLBOARD_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, bb)
}

func (s *Service) handleBillboardDelete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	count, err := s.deleteBillboard(r.Context(), storeID, r.PathValue("id"))
	if err != nil {
		log.Printf("[BILLBOARD_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
