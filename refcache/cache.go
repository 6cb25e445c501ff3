// Package refcache resolves foreign-key identifiers to the display
// objects they reference, so autocomplete-style fields never force a
// network round trip per keystroke or per render. Caches are additive
// for the owning screen's lifetime: entries are never evicted, staleness
// is the accepted price of avoiding redundant fetches.
package refcache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/fieldserve/adminsdk/api"
)

// FetchFunc fetches a single record of the given kind by identifier.
// Wired to a resource client's Get at the composition root.
type FetchFunc func(ctx context.Context, kind, id string) (api.Record, error)

// SuggestFunc returns autocomplete candidates of the given kind for a
// query string.
type SuggestFunc func(ctx context.Context, kind, query string) ([]api.Record, error)

// IDString renders a record identifier for cache keying. JSON numbers
// arrive as float64; integral values print without a fraction.
func IDString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// QueryCache is the shared lookup keyed by (kind, id). It outlives
// individual resolvers and is only ever appended to.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]api.Record
}

// NewQueryCache creates an empty shared cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]api.Record)}
}

// Get returns the cached record for (kind, id) when populated.
func (qc *QueryCache) Get(kind, id string) (api.Record, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	rec, ok := qc.entries[kind+"/"+id]
	return rec, ok
}

// Put stores the record for (kind, id).
func (qc *QueryCache) Put(kind, id string, rec api.Record) {
	if id == "" || rec == nil {
		return
	}
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.entries[kind+"/"+id] = rec
}

// Resolver is the tiered lookup owned by one screen. It is discarded on
// remount; nothing is persisted across navigation.
type Resolver struct {
	mu          sync.RWMutex
	selected    map[string]api.Record
	suggestions []api.Record
	byKind      map[string]map[string]api.Record

	shared  *QueryCache
	fetch   FetchFunc
	suggest SuggestFunc
}

// NewResolver creates a resolver over the shared query cache. fetch and
// suggest may be nil when the embedder wires those paths elsewhere.
func NewResolver(shared *QueryCache, fetch FetchFunc, suggest SuggestFunc) *Resolver {
	return &Resolver{
		selected: make(map[string]api.Record),
		byKind:   make(map[string]map[string]api.Record),
		shared:   shared,
		fetch:    fetch,
		suggest:  suggest,
	}
}

// Select records an explicit user pick for a field and seeds both cache
// tiers, so the pick resolves without any fetch for the rest of the
// screen's life.
func (r *Resolver) Select(field, kind string, rec api.Record) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	r.selected[field] = rec
	r.mu.Unlock()
	r.seed(kind, rec)
}

// ClearSelection forgets the explicit pick for a field.
func (r *Resolver) ClearSelection(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selected, field)
}

// Seed caches an object already embedded on a parent record, so a
// freshly-loaded form can display its references without fetching them.
func (r *Resolver) Seed(kind string, rec api.Record) {
	r.seed(kind, rec)
}

func (r *Resolver) seed(kind string, rec api.Record) {
	if rec == nil {
		return
	}
	id := IDString(rec["id"])
	if id == "" {
		return
	}
	r.mu.Lock()
	byID, ok := r.byKind[kind]
	if !ok {
		byID = make(map[string]api.Record)
		r.byKind[kind] = byID
	}
	byID[id] = rec
	r.mu.Unlock()

	if r.shared != nil {
		r.shared.Put(kind, id, rec)
	}
}

// CacheSuggestions replaces the current suggestion list and caches every
// candidate, not just the one eventually chosen.
func (r *Resolver) CacheSuggestions(kind string, recs []api.Record) {
	r.mu.Lock()
	r.suggestions = recs
	r.mu.Unlock()
	for _, rec := range recs {
		r.seed(kind, rec)
	}
}

// Suggest runs the autocomplete query and stores the results. A
// superseded query is not cancelled; responses arriving out of order can
// overwrite newer suggestions (known race, unmitigated).
func (r *Resolver) Suggest(ctx context.Context, kind, query string) ([]api.Record, error) {
	if r.suggest == nil {
		return nil, fmt.Errorf("refcache: no suggest function wired")
	}
	recs, err := r.suggest(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	r.CacheSuggestions(kind, recs)
	return recs, nil
}

// Resolve turns a bare foreign-key value into a display object. Tiers,
// first match wins: explicit selection for this exact field, the current
// suggestion list, the per-kind cache, the shared query cache. A miss
// returns (nil, false); the caller decides whether to EnsureResolved.
func (r *Resolver) Resolve(field, kind, id string) (api.Record, bool) {
	if id == "" {
		return nil, false
	}

	r.mu.RLock()
	if rec, ok := r.selected[field]; ok && IDString(rec["id"]) == id {
		r.mu.RUnlock()
		return rec, true
	}
	for _, rec := range r.suggestions {
		if IDString(rec["id"]) == id {
			r.mu.RUnlock()
			return rec, true
		}
	}
	if byID, ok := r.byKind[kind]; ok {
		if rec, ok := byID[id]; ok {
			r.mu.RUnlock()
			return rec, true
		}
	}
	r.mu.RUnlock()

	if r.shared != nil {
		if rec, ok := r.shared.Get(kind, id); ok {
			return rec, true
		}
	}
	return nil, false
}

// EnsureResolved resolves through the tiers and, on a full miss, runs
// the explicit single-record fetch, caching the result.
func (r *Resolver) EnsureResolved(ctx context.Context, field, kind, id string) (api.Record, error) {
	if rec, ok := r.Resolve(field, kind, id); ok {
		return rec, nil
	}
	if r.fetch == nil {
		return nil, fmt.Errorf("refcache: %s %s not cached and no fetch function wired", kind, id)
	}
	rec, err := r.fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		r.seed(kind, rec)
	}
	return rec, nil
}
