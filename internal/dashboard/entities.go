package dashboard

import "time"

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

// Store is the tenancy root. Every other entity carries its id and every
// query is scoped by it.
type Store struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Billboard struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Label     string    `json:"label"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Category struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"storeId"`
	BillboardID string    `json:"billboardId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Populated on single reads, empty elsewhere.
	Billboard *Billboard `json:"billboard,omitempty"`
}

type Color struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Size struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"storeId"`
	CategoryID string    `json:"categoryId"`
	ColorID    string    `json:"colorId"`
	SizeID     string    `json:"sizeId"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	IsFeatured bool      `json:"isFeatured"`
	IsArchived bool      `json:"isArchived"`
	Images     []Image   `json:"images"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Image struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	URL       string `json:"url"`
}

// Order carries no stored total; its value is derived from the referenced
// products' current prices at read time.
type Order struct {
	ID        string      `json:"id"`
	StoreID   string      `json:"storeId"`
	IsPaid    bool        `json:"isPaid"`
	Address   string      `json:"address"`
	Phone     string      `json:"phone"`
	Items     []OrderItem `json:"orderItems"`
	CreatedAt time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
}

// ---------------------------------------------------------------------------
// Shaped listing rows
// ---------------------------------------------------------------------------

// Listing calls return shaped rows: createdAt collapsed to YYYY-MM-DD and
// related records resolved into the fields the dashboard tables render.

type billboardRow struct {
	ID        string `json:"id"`
	StoreID   string `json:"storeId"`
	Label     string `json:"label"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt string `json:"createdAt"`
}

type categoryRow struct {
	ID             string `json:"id"`
	StoreID        string `json:"storeId"`
	BillboardID    string `json:"billboardId"`
	Name           string `json:"name"`
	BillboardLabel string `json:"billboardLabel"`
	CreatedAt      string `json:"createdAt"`
}

type colorRow struct {
	ID        string `json:"id"`
	StoreID   string `json:"storeId"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	CreatedAt string `json:"createdAt"`
}

type sizeRow struct {
	ID        string `json:"id"`
	StoreID   string `json:"storeId"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	CreatedAt string `json:"createdAt"`
}

type productRow struct {
	ID         string   `json:"id"`
	StoreID    string   `json:"storeId"`
	CategoryID string   `json:"categoryId"`
	ColorID    string   `json:"colorId"`
	SizeID     string   `json:"sizeId"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	IsFeatured bool     `json:"isFeatured"`
	IsArchived bool     `json:"isArchived"`
	Category   Category `json:"category"`
	Size       Size     `json:"size"`
	Color      Color    `json:"color"`
	Images     []Image  `json:"images"`
	CreatedAt  string   `json:"createdAt"`
}

type orderRow struct {
	ID         string `json:"id"`
	StoreID    string `json:"storeId"`
	IsPaid     bool   `json:"isPaid"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Products   string `json:"products"`
	TotalPrice string `json:"totalPrice"`
	CreatedAt  string `json:"createdAt"`
}

// GraphPoint is one month bucket of the revenue chart. The aggregator always
// emits exactly twelve, Jan through Dec.
type GraphPoint struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// listPage is the envelope every listing endpoint returns.
type listPage[T any] struct {
	Data         []T `json:"data"`
	TotalRecords int `json:"totalRecords"`
}

func dateOnly(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
