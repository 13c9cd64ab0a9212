package dashboard

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Stores (tenants)
// ---------------------------------------------------------------------------

func (s *Service) createStore(ctx context.Context, userID, name string) (Store, error) {
	now := time.Now().UTC()
	st := Store{
		ID:        newID("store"),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.db == nil {
		s.mem.mu.Lock()
		s.mem.stores[st.ID] = st
		s.mem.mu.Unlock()
		return st, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stores (id, user_id, name, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`,
		st.ID, st.UserID, st.Name, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return Store{}, err
	}
	return st, nil
}

// updateStore renames every store matching id+owner and reports how many rows
// that touched. A non-owner simply gets count 0.
func (s *Service) updateStore(ctx context.Context, userID, storeID, name string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		st, ok := s.mem.stores[storeID]
		if !ok || st.UserID != userID {
			return 0, nil
		}
		st.Name = strings.TrimSpace(name)
		st.UpdatedAt = time.Now().UTC()
		s.mem.stores[storeID] = st
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE stores SET name = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`,
		storeID, userID, strings.TrimSpace(name), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// deleteStore removes the store if id+owner match and nothing references it.
// The store's referential constraints reject the delete while dependent
// billboards, categories, colors, sizes, products, or orders exist.
func (s *Service) deleteStore(ctx context.Context, userID, storeID string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		st, ok := s.mem.stores[storeID]
		if !ok || st.UserID != userID {
			return 0, nil
		}
		for _, b := range s.mem.billboards {
			if b.StoreID == storeID {
				return 0, errConstraint
			}
		}
		for _, c := range s.mem.categories {
			if c.StoreID == storeID {
				return 0, errConstraint
			}
		}
		for _, c := range s.mem.colors {
			if c.StoreID == storeID {
				return 0, errConstraint
			}
		}
		for _, sz := range s.mem.sizes {
			if sz.StoreID == storeID {
				return 0, errConstraint
			}
		}
		for _, p := range s.mem.products {
			if p.StoreID == storeID {
				return 0, errConstraint
			}
		}
		for _, o := range s.mem.orders {
			if o.StoreID == storeID {
				return 0, errConstraint
			}
		}
		delete(s.mem.stores, storeID)
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stores WHERE id = $1 AND user_id = $2`, storeID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleStoreCreate(w http.ResponseWriter, r *http.Request) {
	var in StoreInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	if fe := in.validate(); len(fe) > 0 {
		writeJSON(w, http.StatusBadRequest, "Invalid fields")
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	st, err := s.createStore(r.Context(), userID, in.Name)
	if err != nil {
		log.Printf("[STORES_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleStoreUpdate(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	var in StoreInput
	if err := decodeJSON(r, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, "Name is required")
		return
	}
	count, err := s.updateStore(r.Context(), userID, r.PathValue("storeId"), in.Name)
	if err != nil {
		log.Printf("[STORE_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Service) handleStoreDelete(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	count, err := s.deleteStore(r.Context(), userID, r.PathValue("storeId"))
	if err != nil {
		log.Printf("[STORE_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
