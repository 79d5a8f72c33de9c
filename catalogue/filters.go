package catalogue

import (
	"fmt"
	"strings"
)

// Price sort orders accepted by the API. An empty sort falls back to
// ordering by card name.
const (
	PriceSortAsc  = "low-to-high"
	PriceSortDesc = "high-to-low"
)

// MaxPageSize bounds the number of rows a single list request can return,
// regardless of the limit the caller asked for.
const MaxPageSize = 20

// Filters is the optional conjunctive predicate for card list queries.
// Zero values mean "not filtered".
type Filters struct {
	Search    string
	Set       string
	Rarity    string
	CardType  string
	MinPrice  *float64
	MaxPrice  *float64
	PriceSort string
}

// ValidPriceSort reports whether s is one of the accepted sort orders.
func ValidPriceSort(s string) bool {
	return s == "" || s == PriceSortAsc || s == PriceSortDesc
}

// whereClause assembles the WHERE fragment and its positional arguments.
// Every present filter contributes exactly one parameterized condition;
// user input never reaches the SQL text itself. The same fragment must be
// used for both the page query and the count query, otherwise total and
// data drift apart.
func (f Filters) whereClause() (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Search != "" {
		add("name ILIKE $%d", "%"+f.Search+"%")
	}
	if f.Set != "" {
		add("set_name = $%d", f.Set)
	}
	if f.Rarity != "" {
		add("rarity = $%d", f.Rarity)
	}
	if f.CardType != "" {
		add("$%d = ANY(types)", f.CardType)
	}
	if f.MinPrice != nil {
		add("price_market >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_market <= $%d", *f.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// orderClause returns the ORDER BY fragment for the page query. Cards
// without a market price sort last under either price order.
func (f Filters) orderClause() string {
	switch f.PriceSort {
	case PriceSortAsc:
		return "ORDER BY price_market ASC NULLS LAST, name"
	case PriceSortDesc:
		return "ORDER BY price_market DESC NULLS LAST, name"
	default:
		return "ORDER BY name"
	}
}
