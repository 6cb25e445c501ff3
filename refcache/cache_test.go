package refcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/adminsdk/api"
)

func TestIDString(t *testing.T) {
	testCases := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{7.0, "7"},
		{7.5, "7.5"},
		{42, "42"},
		{int64(9), "9"},
		{nil, ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, IDString(tc.in))
	}
}

func TestResolver_SeedThenResolve(t *testing.T) {
	r := NewResolver(NewQueryCache(), nil, nil)

	// Seeding from an embedded parent object, then a lookup with no
	// suggestion list and no explicit selection.
	r.Seed("client", api.Record{"id": 3.0, "name": "Acme"})

	rec, ok := r.Resolve("client_id", "client", "3")
	require.True(t, ok)
	assert.Equal(t, "Acme", rec["name"])
}

func TestResolver_SelectionWinsOverCache(t *testing.T) {
	r := NewResolver(NewQueryCache(), nil, nil)
	r.Seed("client", api.Record{"id": 3.0, "name": "Cached"})
	r.Select("client_id", "client", api.Record{"id": 3.0, "name": "Picked"})

	rec, ok := r.Resolve("client_id", "client", "3")
	require.True(t, ok)
	assert.Equal(t, "Picked", rec["name"])
}

func TestResolver_SelectionScopedToField(t *testing.T) {
	r := NewResolver(NewQueryCache(), nil, nil)
	r.Select("client_id", "client", api.Record{"id": 3.0, "name": "Picked"})

	_, ok := r.Resolve("other_field", "currency", "3")
	assert.False(t, ok, "a pick on one field must not resolve another")
}

func TestResolver_SuggestionsTier(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	r.CacheSuggestions("currency", []api.Record{
		{"id": 1.0, "code": "USD"},
		{"id": 2.0, "code": "EUR"},
	})

	rec, ok := r.Resolve("currency_id", "currency", "2")
	require.True(t, ok)
	assert.Equal(t, "EUR", rec["code"])
}

func TestResolver_SuggestCachesEveryCandidate(t *testing.T) {
	shared := NewQueryCache()
	var calls int
	suggest := func(ctx context.Context, kind, query string) ([]api.Record, error) {
		calls++
		return []api.Record{
			{"id": 1.0, "code": "USD"},
			{"id": 2.0, "code": "EUR"},
		}, nil
	}
	r := NewResolver(shared, nil, suggest)

	_, err := r.Suggest(context.Background(), "currency", "u")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Every returned candidate lands in both the kind cache and the
	// shared cache, not just the chosen one.
	rec, ok := shared.Get("currency", "2")
	require.True(t, ok)
	assert.Equal(t, "EUR", rec["code"])

	fresh := NewResolver(shared, nil, nil)
	rec, ok = fresh.Resolve("f", "currency", "1")
	require.True(t, ok)
	assert.Equal(t, "USD", rec["code"])
}

func TestResolver_SharedCacheFallback(t *testing.T) {
	shared := NewQueryCache()
	shared.Put("site", "9", api.Record{"id": 9.0, "name": "Depot"})

	r := NewResolver(shared, nil, nil)
	rec, ok := r.Resolve("site_id", "site", "9")
	require.True(t, ok)
	assert.Equal(t, "Depot", rec["name"])
}

func TestResolver_MissWithoutFetch(t *testing.T) {
	r := NewResolver(NewQueryCache(), nil, nil)
	_, ok := r.Resolve("site_id", "site", "404")
	assert.False(t, ok)
}

func TestResolver_EnsureResolvedFetchesOnce(t *testing.T) {
	var fetches int
	fetch := func(ctx context.Context, kind, id string) (api.Record, error) {
		fetches++
		return api.Record{"id": 5.0, "name": "Fetched"}, nil
	}
	r := NewResolver(NewQueryCache(), fetch, nil)

	rec, err := r.EnsureResolved(context.Background(), "client_id", "client", "5")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", rec["name"])

	// Second resolution hits the cache.
	_, err = r.EnsureResolved(context.Background(), "client_id", "client", "5")
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

func TestResolver_EnsureResolvedPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("boom")
	fetch := func(ctx context.Context, kind, id string) (api.Record, error) {
		return nil, fetchErr
	}
	r := NewResolver(nil, fetch, nil)

	_, err := r.EnsureResolved(context.Background(), "f", "client", "5")
	assert.ErrorIs(t, err, fetchErr)
}

func TestResolver_ClearSelection(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	r.Select("client_id", "client", api.Record{"id": 3.0, "name": "Picked"})
	r.ClearSelection("client_id")

	// The seed written by Select still resolves through the kind cache.
	rec, ok := r.Resolve("client_id", "client", "3")
	require.True(t, ok)
	assert.Equal(t, "Picked", rec["name"])
}

func TestResolver_AdditiveNoEviction(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	for i := 0; i < 100; i++ {
		r.Seed("client", api.Record{"id": float64(i), "name": "c"})
	}
	for i := 0; i < 100; i++ {
		_, ok := r.Resolve("f", "client", IDString(float64(i)))
		if !ok {
			t.Fatalf("entry %d evicted; cache must be additive only", i)
		}
	}
}
