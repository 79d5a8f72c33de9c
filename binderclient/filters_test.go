package binderclient

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

// settle waits long enough for a pending debounce window to fire.
func settle() {
	time.Sleep(5 * testDebounce)
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []QueryKey
}

func (r *keyRecorder) record(k QueryKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, k)
}

func (r *keyRecorder) all() []QueryKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]QueryKey, len(r.keys))
	copy(out, r.keys)
	return out
}

func newTestFilters(rec *keyRecorder) *Filters {
	var onChange func(QueryKey)
	if rec != nil {
		onChange = rec.record
	}
	return NewFilters(20, onChange, WithDebounce(testDebounce))
}

func TestInitialKey(t *testing.T) {
	f := newTestFilters(nil)

	key := f.QueryKey()
	assert.Equal(t, 1, key.Page)
	assert.Equal(t, 20, key.Limit)
	assert.Equal(t, "", key.Search)
	assert.Equal(t, float64(DefaultMinPrice), key.MinPrice)
	assert.Equal(t, float64(DefaultMaxPrice), key.MaxPrice)
}

func TestSearchIsDebounced(t *testing.T) {
	rec := &keyRecorder{}
	f := newTestFilters(rec)

	f.SetSearch("c")
	f.SetSearch("ch")
	f.SetSearch("char")

	assert.Equal(t, "", f.QueryKey().Search, "search must not take effect before the window elapses")
	assert.Equal(t, "char", f.Search(), "raw input is visible immediately")

	settle()

	keys := rec.all()
	require.Len(t, keys, 1, "rapid keystrokes must produce one effective change")
	assert.Equal(t, "char", keys[0].Search)
	assert.Equal(t, 1, keys[0].Page)
}

func TestSearchRevertedProducesNoChange(t *testing.T) {
	rec := &keyRecorder{}
	f := newTestFilters(rec)

	f.SetSearch("x")
	f.SetSearch("")
	settle()

	assert.Empty(t, rec.all(), "search that ends at its prior value must not change the key")
}

func TestSearchResetsPage(t *testing.T) {
	f := newTestFilters(nil)

	f.SetPage(4)
	f.SetSearch("pikachu")
	settle()

	key := f.QueryKey()
	assert.Equal(t, "pikachu", key.Search)
	assert.Equal(t, 1, key.Page)
}

func TestFilterChangeResetsPage(t *testing.T) {
	set := func(f *Filters, name string) {
		switch name {
		case "set":
			f.SetSet("Base")
		case "rarity":
			f.SetRarity("Rare")
		case "cardType":
			f.SetCardType("Fire")
		case "price":
			f.SetPriceRange(5, 100)
		case "sort":
			f.SetPriceSort("low-to-high")
		}
	}

	for _, name := range []string{"set", "rarity", "cardType", "price", "sort"} {
		f := newTestFilters(nil)
		f.SetPage(7)

		set(f, name)

		assert.Equal(t, 1, f.QueryKey().Page, name)
	}
}

func TestPageChangeLeavesFilters(t *testing.T) {
	f := newTestFilters(nil)

	f.SetRarity("Rare")
	f.SetSet("Base")
	f.SetPage(3)

	key := f.QueryKey()
	assert.Equal(t, 3, key.Page)
	assert.Equal(t, "Rare", key.Rarity)
	assert.Equal(t, "Base", key.Set)
}

func TestClearIsAtomic(t *testing.T) {
	rec := &keyRecorder{}
	f := newTestFilters(rec)

	f.SetSet("Base")
	f.SetRarity("Rare")
	f.SetSearch("char")
	settle()
	before := len(rec.all())

	f.Clear()

	keys := rec.all()
	require.Len(t, keys, before+1, "clear must be one observable transition")
	cleared := keys[len(keys)-1]
	assert.Equal(t, QueryKey{Page: 1, Limit: 20, MinPrice: DefaultMinPrice, MaxPrice: DefaultMaxPrice}, cleared)
}

func TestClearDiscardsPendingSearch(t *testing.T) {
	f := newTestFilters(nil)

	f.SetSearch("zzz")
	f.Clear()
	settle()

	assert.Equal(t, "", f.QueryKey().Search, "a keystroke from before the clear must not resurface")
}

func TestDraftApplyIsOneTransition(t *testing.T) {
	rec := &keyRecorder{}
	f := newTestFilters(rec)
	f.SetPage(5)
	before := len(rec.all())

	d := f.BeginDraft()
	d.Set = "Jungle"
	d.Rarity = "Rare Holo"
	d.PriceSort = "high-to-low"

	f.Apply(d)

	keys := rec.all()
	require.Len(t, keys, before+1, "apply must commit the whole draft at once")
	applied := keys[len(keys)-1]
	assert.Equal(t, "Jungle", applied.Set)
	assert.Equal(t, "Rare Holo", applied.Rarity)
	assert.Equal(t, "high-to-low", applied.PriceSort)
	assert.Equal(t, 1, applied.Page)
}

func TestDraftDoesNotLeakBeforeApply(t *testing.T) {
	f := newTestFilters(nil)

	d := f.BeginDraft()
	d.Set = "Jungle"

	assert.Equal(t, "", f.QueryKey().Set, "draft edits must not reach live state before apply")
}

func TestClearThenBeginDraftIsCleared(t *testing.T) {
	f := newTestFilters(nil)

	f.SetSet("Base")
	f.SetPriceRange(10, 100)
	f.Clear()

	d := f.BeginDraft()
	assert.Equal(t, Draft{MinPrice: DefaultMinPrice, MaxPrice: DefaultMaxPrice}, d)
}

func TestQueryOmitsDefaultPriceRange(t *testing.T) {
	f := newTestFilters(nil)

	q := f.Query()
	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.MaxPrice)

	f.SetPriceRange(5, 100)
	q = f.Query()
	require.NotNil(t, q.MinPrice)
	require.NotNil(t, q.MaxPrice)
	assert.Equal(t, 5.0, *q.MinPrice)
	assert.Equal(t, 100.0, *q.MaxPrice)
}

func TestQueryCarriesEffectiveSearch(t *testing.T) {
	f := newTestFilters(nil)

	f.SetSearch("eevee")
	assert.Equal(t, "", f.Query().Search)

	settle()
	assert.Equal(t, "eevee", f.Query().Search)
}
