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
// Products
// ---------------------------------------------------------------------------

// createProduct writes the product and its image rows in one transaction;
// either everything lands or nothing does.
func (s *Service) createProduct(ctx context.Context, storeID string, in ProductInput) (Product, error) {
	now := time.Now().UTC()
	p := Product{
		ID:         newID("prod"),
		StoreID:    storeID,
		CategoryID: strings.TrimSpace(in.CategoryID),
		ColorID:    strings.TrimSpace(in.ColorID),
		SizeID:     strings.TrimSpace(in.SizeID),
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		IsFeatured: in.IsFeatured,
		IsArchived: in.IsArchived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, img := range in.Images {
		p.Images = append(p.Images, Image{ID: newID("img"), ProductID: p.ID, URL: img.URL})
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		if _, ok := s.mem.categories[p.CategoryID]; !ok {
			return Product{}, errConstraint
		}
		if _, ok := s.mem.colors[p.ColorID]; !ok {
			return Product{}, errConstraint
		}
		if _, ok := s.mem.sizes[p.SizeID]; !ok {
			return Product{}, errConstraint
		}
		s.mem.products[p.ID] = p
		return p, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, store_id, category_id, color_id, size_id, name, price, is_featured, is_archived, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.StoreID, p.CategoryID, p.ColorID, p.SizeID, p.Name, p.Price, p.IsFeatured, p.IsArchived, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	for _, img := range p.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url) VALUES ($1,$2,$3)`,
			img.ID, img.ProductID, img.URL); err != nil {
			return Product{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) getProduct(ctx context.Context, storeID, id string) (Product, error) {
	if s.db == nil {
		s.mem.mu.RLock()
		defer s.mem.mu.RUnlock()
		p, ok := s.mem.products[id]
		if !ok || p.StoreID != storeID {
			return Product{}, sql.ErrNoRows
		}
		return p, nil
	}

	var p Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, store_id, category_id, color_id, size_id, name, price, is_featured, is_archived, created_at, updated_at
		FROM products WHERE id = $1 AND store_id = $2`, id, storeID).
		Scan(&p.ID, &p.StoreID, &p.CategoryID, &p.ColorID, &p.SizeID, &p.Name, &p.Price, &p.IsFeatured, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	images, err := s.productImages(ctx, []string{p.ID})
	if err != nil {
		return Product{}, err
	}
	p.Images = images[p.ID]
	return p, nil
}

// updateProduct is a full replace: field values and the whole image set, the
// latter dropped and recreated inside the transaction.
func (s *Service) updateProduct(ctx context.Context, storeID, id string, in ProductInput) (Product, error) {
	images := make([]Image, 0, len(in.Images))
	for _, img := range in.Images {
		images = append(images, Image{ID: newID("img"), ProductID: id, URL: img.URL})
	}

	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		p, ok := s.mem.products[id]
		if !ok || p.StoreID != storeID {
			return Product{}, sql.ErrNoRows
		}
		if _, ok := s.mem.categories[strings.TrimSpace(in.CategoryID)]; !ok {
			return Product{}, errConstraint
		}
		if _, ok := s.mem.colors[strings.TrimSpace(in.ColorID)]; !ok {
			return Product{}, errConstraint
		}
		if _, ok := s.mem.sizes[strings.TrimSpace(in.SizeID)]; !ok {
			return Product{}, errConstraint
		}
		p.Name = strings.TrimSpace(in.Name)
		p.Price = in.Price
		p.CategoryID = strings.TrimSpace(in.CategoryID)
		p.ColorID = strings.TrimSpace(in.ColorID)
		p.SizeID = strings.TrimSpace(in.SizeID)
		p.IsFeatured = in.IsFeatured
		p.IsArchived = in.IsArchived
		p.Images = images
		p.UpdatedAt = time.Now().UTC()
		s.mem.products[id] = p
		return p, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET category_id = $3, color_id = $4, size_id = $5, name = $6, price = $7, is_featured = $8, is_archived = $9, updated_at = $10
		WHERE id = $1 AND store_id = $2`,
		id, storeID, strings.TrimSpace(in.CategoryID), strings.TrimSpace(in.ColorID), strings.TrimSpace(in.SizeID),
		strings.TrimSpace(in.Name), in.Price, in.IsFeatured, in.IsArchived, time.Now().UTC())
	if err != nil {
		return Product{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
		return Product{}, err
	}
	for _, img := range images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url) VALUES ($1,$2,$3)`,
			img.ID, img.ProductID, img.URL); err != nil {
			return Product{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Product{}, err
	}
	return s.getProduct(ctx, storeID, id)
}

func (s *Service) deleteProduct(ctx context.Context, storeID, id string) (int64, error) {
	if s.db == nil {
		s.mem.mu.Lock()
		defer s.mem.mu.Unlock()
		p, ok := s.mem.products[id]
		if !ok || p.StoreID != storeID {
			return 0, nil
		}
		for _, o := range s.mem.orders {
			for _, it := range o.Items {
				if it.ProductID == id {
					return 0, errConstraint
				}
			}
		}
		delete(s.mem.products, id)
		return 1, nil
	}

	// Images cascade; order items do not, so a purchased product stays put.
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// listProducts applies the product-only extra filters, hides archived rows
// unconditionally, and matches the search term against the name or, when it
// parses as a number, the exact price.
func (s *Service) listProducts(ctx context.Context, p listParams) ([]productRow, int, error) {
	out := make([]productRow, 0)
	var total int

	searchPrice, priceOK := 0.0, false
	if p.SearchTerm != "" {
		if v, err := strconv.ParseFloat(p.SearchTerm, 64); err == nil {
			searchPrice, priceOK = v, true
		}
	}

	if s.db == nil {
		s.mem.mu.RLock()
		var items []Product
		for _, prod := range s.mem.products {
			if prod.StoreID != p.StoreID || prod.IsArchived {
				continue
			}
			if p.CategoryID != "" && prod.CategoryID != p.CategoryID {
				continue
			}
			if p.ColorID != "" && prod.ColorID != p.ColorID {
				continue
			}
			if p.SizeID != "" && prod.SizeID != p.SizeID {
				continue
			}
			if p.SearchTerm != "" && !containsFold(prod.Name, p.SearchTerm) && !(priceOK && prod.Price == searchPrice) {
				continue
			}
			items = append(items, prod)
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		total = len(items)
		for _, prod := range pageSlice(items, p.Skip, p.Take) {
			out = append(out, shapeProduct(prod,
				s.mem.categories[prod.CategoryID], s.mem.sizes[prod.SizeID], s.mem.colors[prod.ColorID]))
		}
		s.mem.mu.RUnlock()
		return out, total, nil
	}

	wb := newAliasedWhere("p", p.StoreID)
	wb.clauses = append(wb.clauses, "p.is_archived = FALSE")
	if p.CategoryID != "" {
		wb.add("p.category_id = $?", p.CategoryID)
	}
	if p.ColorID != "" {
		wb.add("p.color_id = $?", p.ColorID)
	}
	if p.SizeID != "" {
		wb.add("p.size_id = $?", p.SizeID)
	}
	if p.SearchTerm != "" {
		if priceOK {
			wb.add("(p.name ILIKE $? OR p.price = $?)", likePattern(p.SearchTerm), searchPrice)
		} else {
			wb.add("p.name ILIKE $?", likePattern(p.SearchTerm))
		}
	}

	q := fmt.Sprintf(`
		SELECT p.id, p.store_id, p.category_id, p.color_id, p.size_id, p.name, p.price, p.is_featured, p.is_archived, p.created_at, p.updated_at,
		       c.id, c.store_id, c.billboard_id, c.name, c.created_at, c.updated_at,
		       sz.id, sz.store_id, sz.name, sz.value, sz.created_at, sz.updated_at,
		       col.id, col.store_id, col.name, col.value, col.created_at, col.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN sizes sz ON sz.id = p.size_id
		JOIN colors col ON col.id = p.color_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, wb.sql(), len(wb.args)+1, len(wb.args)+2)
	rows, err := s.db.QueryContext(ctx, q, append(wb.args, p.Take, p.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	cats := make(map[string]Category)
	sizes := make(map[string]Size)
	colors := make(map[string]Color)
	for rows.Next() {
		var prod Product
		var cat Category
		var sz Size
		var col Color
		if err := rows.Scan(
			&prod.ID, &prod.StoreID, &prod.CategoryID, &prod.ColorID, &prod.SizeID, &prod.Name, &prod.Price, &prod.IsFeatured, &prod.IsArchived, &prod.CreatedAt, &prod.UpdatedAt,
			&cat.ID, &cat.StoreID, &cat.BillboardID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt,
			&sz.ID, &sz.StoreID, &sz.Name, &sz.Value, &sz.CreatedAt, &sz.UpdatedAt,
			&col.ID, &col.StoreID, &col.Name, &col.Value, &col.CreatedAt, &col.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		products = append(products, prod)
		cats[prod.ID] = cat
		sizes[prod.ID] = sz
		colors[prod.ID] = col
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(products))
	for _, prod := range products {
		ids = append(ids, prod.ID)
	}
	images, err := s.productImages(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Images = images[products[i].ID]
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products p WHERE `+wb.sql(), wb.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	for _, prod := range products {
		out = append(out, shapeProduct(prod, cats[prod.ID], sizes[prod.ID], colors[prod.ID]))
	}
	return out, total, nil
}

func shapeProduct(p Product, cat Category, sz Size, col Color) productRow {
	images := p.Images
	if images == nil {
		images = []Image{}
	}
	return productRow{
		ID:         p.ID,
		StoreID:    p.StoreID,
		CategoryID: p.CategoryID,
		ColorID:    p.ColorID,
		SizeID:     p.SizeID,
		Name:       p.Name,
		Price:      p.Price,
		IsFeatured: p.IsFeatured,
		IsArchived: p.IsArchived,
		Category:   cat,
		Size:       sz,
		Color:      col,
		Images:     images,
		CreatedAt:  dateOnly(p.CreatedAt),
	}
}

// productImages fetches image rows for a set of products keyed by product id.
func (s *Service) productImages(ctx context.Context, productIDs []string) (map[string][]Image, error) {
	byProduct := make(map[string][]Image, len(productIDs))
	if len(productIDs) == 0 {
		return byProduct, nil
	}

	placeholders := make([]string, len(productIDs))
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	q := fmt.Sprintf(`SELECT id, product_id, url FROM product_images WHERE product_id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL); err != nil {
			return nil, err
		}
		byProduct[img.ProductID] = append(byProduct[img.ProductID], img)
	}
	return byProduct, rows.Err()
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) handleProductList(w http.ResponseWriter, r *http.Request) {
	rows, total, err := s.listProducts(r.Context(), listParamsFromRequest(r))
	if err != nil {
		log.Printf("[PRODUCT_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPage[productRow]{Data: rows, TotalRecords: total})
}

func (s *Service) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
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
	// Checked before any row is written.
	if len(in.Images) == 0 {
		writeJSON(w, http.StatusBadRequest, "At least one image is required")
		return
	}
	p, err := s.createProduct(r.Context(), storeID, in)
	if err != nil {
		log.Printf("[PRODUCT_POST] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleProductGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.getProduct(r.Context(), r.PathValue("storeId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		log.Printf("[PRODUCT_GET] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
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
	if len(in.Images) == 0 {
		writeJSON(w, http.StatusBadRequest, "At least one image is required")
		return
	}
	p, err := s.updateProduct(r.Context(), storeID, r.PathValue("id"), in)
	if err != nil {
		log.Printf("[PRODUCT_PATCH] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	if !s.guardWrite(w, r, storeID) {
		return
	}
	count, err := s.deleteProduct(r.Context(), storeID, r.PathValue("id"))
	if err != nil {
		log.Printf("[PRODUCT_DELETE] %v", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
