package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// HTTP surface
// ---------------------------------------------------------------------------

// Handler wires every route. Resource CRUD lives under /api/{storeId}/...,
// store management under /api/stores, payment events under /api/webhook.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /api/stores", s.handleStoreCreate)
	mux.HandleFunc("PATCH /api/stores/{storeId}", s.handleStoreUpdate)
	mux.HandleFunc("DELETE /api/stores/{storeId}", s.handleStoreDelete)

	mux.HandleFunc("GET /api/{storeId}/billboards", s.handleBillboardList)
	mux.HandleFunc("POST /api/{storeId}/billboards", s.handleBillboardCreate)
	mux.HandleFunc("GET /api/{storeId}/billboards/{id}", s.handleBillboardGet)
	mux.HandleFunc("PATCH /api/{storeId}/billboards/{id}", s.handleBillboardUpdate)
	mux.HandleFunc("DELETE /api/{storeId}/billboards/{id}", s.handleBillboardDelete)

	mux.HandleFunc("GET /api/{storeId}/categories", s.handleCategoryList)
	mux.HandleFunc("POST /api/{storeId}/categories", s.handleCategoryCreate)
	mux.HandleFunc("GET /api/{storeId}/categories/{id}", s.handleCategoryGet)
	mux.HandleFunc("PATCH /api/{storeId}/categories/{id}", s.handleCategoryUpdate)
	mux.HandleFunc("DELETE /api/{storeId}/categories/{id}", s.handleCategoryDelete)

	mux.HandleFunc("GET /api/{storeId}/colors", s.handleColorList)
	mux.HandleFunc("POST /api/{storeId}/colors", s.handleColorCreate)
	mux.HandleFunc("GET /api/{storeId}/colors/{id}", s.handleColorGet)
	mux.HandleFunc("PATCH /api/{storeId}/colors/{id}", s.handleColorUpdate)
	mux.HandleFunc("DELETE /api/{storeId}/colors/{id}", s.handleColorDelete)

	mux.HandleFunc("GET /api/{storeId}/sizes", s.handleSizeList)
	mux.HandleFunc("POST /api/{storeId}/sizes", s.handleSizeCreate)
	mux.HandleFunc("GET /api/{storeId}/sizes/{id}", s.handleSizeGet)
	mux.HandleFunc("PATCH /api/{storeId}/sizes/{id}", s.handleSizeUpdate)
	mux.HandleFunc("DELETE /api/{storeId}/sizes/{id}", s.handleSizeDelete)

	mux.HandleFunc("GET /api/{storeId}/products", s.handleProductList)
	mux.HandleFunc("POST /api/{storeId}/products", s.handleProductCreate)
	mux.HandleFunc("GET /api/{storeId}/products/{id}", s.handleProductGet)
	mux.HandleFunc("PATCH /api/{storeId}/products/{id}", s.handleProductUpdate)
	mux.HandleFunc("DELETE /api/{storeId}/products/{id}", s.handleProductDelete)

	// Orders come into being through the webhook only; the HTTP surface is
	// read-only.
	mux.HandleFunc("GET /api/{storeId}/orders", s.handleOrderList)
	mux.HandleFunc("GET /api/{storeId}/orders/{id}", s.handleOrderGet)

	mux.HandleFunc("GET /api/{storeId}/revenue", s.handleRevenue)

	mux.HandleFunc("POST /api/webhook", s.handleWebhook)

	return withServerDefaults(mux)
}

// Server returns an http.Server with the usual timeout set around Handler.
func (s *Service) Server(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	mode := "postgres"
	if s.db == nil {
		mode = "memory"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "admin-api", "mode": mode})
}

// ---------------------------------------------------------------------------
// Guard plumbing
// ---------------------------------------------------------------------------

// userIDFrom reads the identity the session gate in front of this service
// resolved for the request. Absent header means unauthenticated.
func userIDFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// guardWrite enforces Authenticated+Owner for mutation handlers. It writes
// the error response itself and reports whether the handler may proceed. Not
// being the owner answers 404, never 403, so store existence does not leak.
func (s *Service) guardWrite(w http.ResponseWriter, r *http.Request, storeID string) bool {
	result, err := s.authorize(r.Context(), userIDFrom(r), storeID)
	if err != nil {
		log.Printf("[GUARD] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return false
	}
	switch result {
	case authUnauthenticated:
		writeJSON(w, http.StatusUnauthorized, "Unauthenticated")
		return false
	case authUnauthorized:
		writeJSON(w, http.StatusNotFound, "Unauthorized")
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func withServerDefaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
