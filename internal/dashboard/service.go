package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// errConstraint mirrors a Postgres foreign-key rejection in memory mode:
// the targeted row still has dependents, or a referenced row does not exist.
var errConstraint = errors.New("constraint violation: dependent or missing rows")

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service is the whole admin API: one explicitly constructed handle passed
// into every handler. With a nil db it runs against in-process maps with the
// same constraint semantics, which is how the tests exercise it.
type Service struct {
	db            *sql.DB
	webhookSecret string

	mem memoryState
}

type memoryState struct {
	mu         sync.RWMutex
	stores     map[string]Store
	billboards map[string]Billboard
	categories map[string]Category
	colors     map[string]Color
	sizes      map[string]Size
	products   map[string]Product
	orders     map[string]Order
}

// New constructs a Service over db. A nil db selects memory mode.
func New(db *sql.DB, webhookSecret string) *Service {
	return &Service{
		db:            db,
		webhookSecret: webhookSecret,
		mem: memoryState{
			stores:     make(map[string]Store),
			billboards: make(map[string]Billboard),
			categories: make(map[string]Category),
			colors:     make(map[string]Color),
			sizes:      make(map[string]Size),
			products:   make(map[string]Product),
			orders:     make(map[string]Order),
		},
	}
}

// Close releases the underlying database handle, if any.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// DB / Schema
// ---------------------------------------------------------------------------

// ConnectDB opens the pool from DATABASE_URL or the DB_* variables and
// verifies it with a short ping.
func ConnectDB() (*sql.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		host := Env("DB_HOST", "")
		if host == "" {
			return nil, errors.New("missing DATABASE_URL or DB_HOST")
		}
		port := Env("DB_PORT", "5432")
		user := Env("DB_USER", "postgres")
		pass := Env("DB_PASSWORD", "postgres")
		name := Env("DB_NAME", "store_admin")
		ssl := Env("DB_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(intEnv("DB_MAX_OPEN_CONNS", 60))
	db.SetMaxIdleConns(intEnv("DB_MAX_IDLE_CONNS", 20))
	db.SetConnMaxIdleTime(durationEnv("DB_CONN_MAX_IDLE", 5*time.Minute))
	db.SetConnMaxLifetime(durationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables and indexes if they are missing. Plain
// REFERENCES everywhere, so deleting a row that still has dependents fails at
// the store; images and order items cascade with their parent.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stores_user ON stores (user_id)`,
		`CREATE TABLE IF NOT EXISTS billboards (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			label TEXT NOT NULL,
			image_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_billboards_store_created ON billboards (store_id, created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			billboard_id TEXT NOT NULL REFERENCES billboards (id),
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_store_created ON categories (store_id, created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS colors (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_colors_store_created ON colors (store_id, created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS sizes (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sizes_store_created ON sizes (store_id, created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			category_id TEXT NOT NULL REFERENCES categories (id),
			color_id TEXT NOT NULL REFERENCES colors (id),
			size_id TEXT NOT NULL REFERENCES sizes (id),
			name TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_store_created ON products (store_id, created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_products_store_category ON products (store_id, category_id)`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
			url TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images (product_id)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES stores (id),
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_store_created ON orders (store_id, created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_store_paid_created ON orders (store_id, is_paid, created_at)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
			product_id TEXT NOT NULL REFERENCES products (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items (product_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func Env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
