package dashboard

import (
	"net/http"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Query building
// ---------------------------------------------------------------------------

// listParams is the store-scoped page window plus filters for one listing
// call. Skip and Take come straight from pageIndex*pageSize and pageSize.
type listParams struct {
	StoreID    string
	Skip       int
	Take       int
	SearchTerm string

	// Product-only exact-match filters.
	CategoryID string
	ColorID    string
	SizeID     string
}

// pageWindow parses pageIndex/pageSize permissively: anything malformed or
// out of range falls back to 0 and 10 instead of erroring. Clients depend on
// this, so it must not become strict.
func pageWindow(r *http.Request) (pageIndex, pageSize int) {
	pageIndex, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("pageIndex")))
	if err != nil || pageIndex < 0 {
		pageIndex = 0
	}
	pageSize, err = strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("pageSize")))
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	return pageIndex, pageSize
}

func listParamsFromRequest(r *http.Request) listParams {
	pageIndex, pageSize := pageWindow(r)
	return listParams{
		StoreID:    r.PathValue("storeId"),
		Skip:       pageIndex * pageSize,
		Take:       pageSize,
		SearchTerm: r.URL.Query().Get("searchTerm"),
		CategoryID: r.URL.Query().Get("categoryId"),
		ColorID:    r.URL.Query().Get("colorId"),
		SizeID:     r.URL.Query().Get("sizeId"),
	}
}

// whereBuilder accumulates "$n" positional WHERE fragments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhere(storeID string) *whereBuilder {
	return &whereBuilder{clauses: []string{"store_id = $1"}, args: []any{storeID}}
}

// newAliasedWhere scopes by store through a table alias for joined queries.
func newAliasedWhere(alias, storeID string) *whereBuilder {
	return &whereBuilder{clauses: []string{alias + ".store_id = $1"}, args: []any{storeID}}
}

// add appends a clause; "$?" placeholders are rewritten to the next positional
// argument in order.
func (w *whereBuilder) add(clause string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "$?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.clauses, " AND ")
}

// likePattern wraps a search term for a substring ILIKE match.
func likePattern(term string) string {
	return "%" + term + "%"
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

// pageSlice applies the (skip, take) window to an already sorted slice.
func pageSlice[T any](items []T, skip, take int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if take < len(items) {
		items = items[:take]
	}
	return items
}

// formatUSD renders the derived order total the way the dashboard shows it:
// dollar sign, thousands separators, two decimals.
func formatUSD(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String() + "." + fracPart
}
