package binderclient

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

const (
	// DefaultDebounce is the quiescence window for free-text search.
	DefaultDebounce = 500 * time.Millisecond

	DefaultMinPrice = 0
	DefaultMaxPrice = 500
)

// QueryKey is the derived value the data-fetch layer reacts to. Two equal
// keys mean no refetch is required; it is comparable so it can serve as a
// cache or subscription key.
type QueryKey struct {
	Page      int
	Limit     int
	Search    string
	Set       string
	Rarity    string
	CardType  string
	MinPrice  float64
	MaxPrice  float64
	PriceSort string
}

// Filters owns the catalogue browse state: free-text search (debounced),
// set/rarity/type/price/sort selections and the current page.
//
// Invariants:
//   - any filter change resets the page to 1; a page change alone leaves
//     every filter untouched
//   - search only enters the query key after the debounce window elapses
//   - Clear resets everything in a single observable transition
type Filters struct {
	mu sync.Mutex

	limit     int
	page      int
	search    string // raw input, pre-debounce
	effective string // debounced search, part of the key
	set       string
	rarity    string
	cardType  string
	minPrice  float64
	maxPrice  float64
	priceSort string

	// gen invalidates in-flight debounce callbacks on Clear.
	gen uint64

	debounced func(func())
	onChange  func(QueryKey)
	lastKey   QueryKey
}

type FilterOption func(*Filters)

// WithDebounce overrides the search debounce window.
func WithDebounce(d time.Duration) FilterOption {
	return func(f *Filters) { f.debounced = debounce.New(d) }
}

// NewFilters creates the browse state for a page view. onChange fires once
// per effective query-key change; it may be nil.
func NewFilters(limit int, onChange func(QueryKey), opts ...FilterOption) *Filters {
	f := &Filters{
		limit:     limit,
		page:      1,
		minPrice:  DefaultMinPrice,
		maxPrice:  DefaultMaxPrice,
		debounced: debounce.New(DefaultDebounce),
		onChange:  onChange,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastKey = f.keyLocked()
	return f
}

// SetSearch records the raw search text. The query key only picks it up
// after the debounce window passes with no further keystrokes.
func (f *Filters) SetSearch(text string) {
	f.mu.Lock()
	f.search = text
	gen := f.gen
	f.mu.Unlock()

	f.debounced(func() {
		f.commitSearch(text, gen)
	})
}

func (f *Filters) commitSearch(text string, gen uint64) {
	f.mu.Lock()
	if gen != f.gen {
		// A Clear happened after this keystroke; drop it.
		f.mu.Unlock()
		return
	}
	if f.effective != text {
		f.effective = text
		f.page = 1
	}
	f.notifyLocked()
}

// Search returns the raw (not yet debounced) search text, for rendering
// the input box.
func (f *Filters) Search() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search
}

func (f *Filters) SetSet(set string) {
	f.mu.Lock()
	f.set = set
	f.page = 1
	f.notifyLocked()
}

func (f *Filters) SetRarity(rarity string) {
	f.mu.Lock()
	f.rarity = rarity
	f.page = 1
	f.notifyLocked()
}

func (f *Filters) SetCardType(cardType string) {
	f.mu.Lock()
	f.cardType = cardType
	f.page = 1
	f.notifyLocked()
}

func (f *Filters) SetPriceRange(min, max float64) {
	f.mu.Lock()
	f.minPrice, f.maxPrice = min, max
	f.page = 1
	f.notifyLocked()
}

func (f *Filters) SetPriceSort(sort string) {
	f.mu.Lock()
	f.priceSort = sort
	f.page = 1
	f.notifyLocked()
}

// SetPage changes only the page; all filter values stay as they are.
func (f *Filters) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	f.mu.Lock()
	f.page = page
	f.notifyLocked()
}

// Clear resets every filter, the debounced search and the page in one
// state transition. A pending debounce callback from before the clear is
// discarded, so no stale search text can resurface afterwards.
func (f *Filters) Clear() {
	f.mu.Lock()
	f.gen++
	f.search = ""
	f.effective = ""
	f.set = ""
	f.rarity = ""
	f.cardType = ""
	f.minPrice = DefaultMinPrice
	f.maxPrice = DefaultMaxPrice
	f.priceSort = ""
	f.page = 1
	f.notifyLocked()
}

// QueryKey returns the current effective key.
func (f *Filters) QueryKey() QueryKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keyLocked()
}

// Query translates the current key into request parameters. The price
// range is only sent when it narrows the default bounds.
func (f *Filters) Query() Query {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := Query{
		Page:      f.page,
		Limit:     f.limit,
		Search:    f.effective,
		Set:       f.set,
		Rarity:    f.rarity,
		CardType:  f.cardType,
		PriceSort: f.priceSort,
	}
	if f.minPrice > DefaultMinPrice {
		min := f.minPrice
		q.MinPrice = &min
	}
	if f.maxPrice < DefaultMaxPrice {
		max := f.maxPrice
		q.MaxPrice = &max
	}
	return q
}

func (f *Filters) keyLocked() QueryKey {
	return QueryKey{
		Page:      f.page,
		Limit:     f.limit,
		Search:    f.effective,
		Set:       f.set,
		Rarity:    f.rarity,
		CardType:  f.cardType,
		MinPrice:  f.minPrice,
		MaxPrice:  f.maxPrice,
		PriceSort: f.priceSort,
	}
}

// notifyLocked releases the lock and fires onChange when the effective key
// changed. Callers must hold f.mu.
func (f *Filters) notifyLocked() {
	key := f.keyLocked()
	changed := key != f.lastKey
	f.lastKey = key
	cb := f.onChange
	f.mu.Unlock()

	if changed && cb != nil {
		cb(key)
	}
}

// Draft is a staged copy of the selection filters, used by the mobile
// filter sheet: edits accumulate in the draft and only reach the live
// state on Apply, as one transition.
type Draft struct {
	Set       string
	Rarity    string
	CardType  string
	MinPrice  float64
	MaxPrice  float64
	PriceSort string
}

// BeginDraft snapshots the live selections.
func (f *Filters) BeginDraft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Draft{
		Set:       f.set,
		Rarity:    f.rarity,
		CardType:  f.cardType,
		MinPrice:  f.minPrice,
		MaxPrice:  f.maxPrice,
		PriceSort: f.priceSort,
	}
}

// Apply commits a draft to the live filters in a single transition,
// resetting the page.
func (f *Filters) Apply(d Draft) {
	f.mu.Lock()
	f.set = d.Set
	f.rarity = d.Rarity
	f.cardType = d.CardType
	f.minPrice = d.MinPrice
	f.maxPrice = d.MaxPrice
	f.priceSort = d.PriceSort
	f.page = 1
	f.notifyLocked()
}
