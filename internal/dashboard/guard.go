package dashboard

import (
	"context"
	"database/sql"
	"errors"
)

// ---------------------------------------------------------------------------
// Tenant guard
// ---------------------------------------------------------------------------

type authResult int

const (
	authOwner authResult = iota
	authUnauthenticated
	authUnauthorized
)

// authorize resolves whether userID owns storeID. Write handlers require
// authOwner; listing and single-record reads intentionally skip this check
// entirely, matching the deployed behavior.
func (s *Service) authorize(ctx context.Context, userID, storeID string) (authResult, error) {
	if userID == "" {
		return authUnauthenticated, nil
	}

	if s.db == nil {
		s.mem.mu.RLock()
		st, ok := s.mem.stores[storeID]
		s.mem.mu.RUnlock()
		if !ok || st.UserID != userID {
			return authUnauthorized, nil
		}
		return authOwner, nil
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM stores WHERE id = $1 AND user_id = $2`, storeID, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return authUnauthorized, nil
	}
	if err != nil {
		return authUnauthorized, err
	}
	return authOwner, nil
}
