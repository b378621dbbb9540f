package usecase

import (
	"context"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 30 * time.Millisecond

func newTestFetcher(t *testing.T, api *fakeListingsAPI, mutate func(cfg *FetcherConfig)) *ListingFetcher {
	t.Helper()
	cfg := FetcherConfig{
		View:            ViewAll,
		PageSize:        2,
		Debounce:        testDebounce,
		GenerationGuard: true,
		DedupeOnAppend:  true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f := NewListingFetcher(context.Background(), api, &recordingNotifier{}, cfg)
	t.Cleanup(f.Close)
	return f
}

func mustSet(t *testing.T, f domain.FilterState, key, value string) domain.FilterState {
	t.Helper()
	out, err := f.Set(key, value)
	require.NoError(t, err)
	return out
}

func TestFetchReplacesFirstPageAndAppendsNext(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{
		1: {lst("a"), lst("b")},
		2: {lst("c"), lst("d")},
	}, 2)}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
	state := f.Snapshot()
	assert.Equal(t, []string{"a", "b"}, cardIDs(state.Items))
	assert.True(t, state.HasNextPage)
	assert.False(t, state.Loading)

	require.NoError(t, f.Fetch(ctx, 2, domain.EmptyFilters, false))
	state = f.Snapshot()
	assert.Equal(t, []string{"a", "b", "c", "d"}, cardIDs(state.Items))
	assert.Equal(t, 2, state.CurrentPage)
	assert.False(t, state.HasNextPage)
	assert.Equal(t, 4, state.TotalCount)

	// Повторная первая страница заменяет окно целиком
	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, false))
	assert.Equal(t, []string{"a", "b"}, cardIDs(f.Snapshot().Items))
}

func TestFeaturedBadgeDerivation(t *testing.T) {
	api := &fakeListingsAPI{
		pages:    staticPages(map[int][]domain.Listing{1: {lst("a"), lst("b")}}, 1),
		featured: []domain.Listing{lst("a"), lst("x")},
	}
	f := newTestFetcher(t, api, func(cfg *FetcherConfig) {
		cfg.Liked = func(id string) bool { return id == "b" }
	})
	ctx := context.Background()

	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
	require.NoError(t, f.Retry(ctx))

	state := f.Snapshot()
	require.Len(t, state.Items, 2)
	assert.True(t, state.Items[0].IsFeatured, "listing in featured carousel is badged even without server flag")
	assert.False(t, state.Items[0].Listing.IsFeatured)
	assert.False(t, state.Items[1].IsFeatured)
	assert.True(t, state.Items[1].IsLiked)
	assert.Equal(t, []string{"a", "x"}, cardIDs(state.Featured))
	assert.Equal(t, 1, api.featuredCalls, "featured is fetched only with the very first page")
}

func TestFeaturedFailureDoesNotBreakPage(t *testing.T) {
	api := &fakeListingsAPI{
		pages:       staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1),
		featuredErr: errBackend,
	}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
	state := f.Snapshot()
	assert.Equal(t, []string{"a"}, cardIDs(state.Items))
	assert.Empty(t, state.Featured)
	assert.Empty(t, state.Error)

	// Неудачная подборка запрашивается снова со следующей первой страницей
	require.NoError(t, f.Retry(ctx))
	assert.Equal(t, 2, api.featuredCalls)
}

func TestFetchFailureKeepsLastGoodItems(t *testing.T) {
	var fail atomic.Bool
	good := staticPages(map[int][]domain.Listing{1: {lst("a"), lst("b")}}, 2)
	api := &fakeListingsAPI{pages: func(page int, f domain.FilterState) (*domain.ListingPage, error) {
		if fail.Load() {
			return nil, errBackend
		}
		return good(page, f)
	}}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
	fail.Store(true)

	err := f.LoadMore(ctx)
	require.ErrorIs(t, err, errBackend)

	state := f.Snapshot()
	assert.Equal(t, []string{"a", "b"}, cardIDs(state.Items))
	assert.Contains(t, state.Error, "backend unavailable")
	assert.False(t, state.Refreshing)

	fail.Store(false)
	require.NoError(t, f.Retry(ctx))
	assert.Empty(t, f.Snapshot().Error)
}

func TestOnFilterChangeCoalescesToLastSnapshot(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1)}

	var applied []domain.FilterState
	var mu sync.Mutex
	f := newTestFetcher(t, api, func(cfg *FetcherConfig) {
		cfg.OnFiltersApplied = func(ctx context.Context, filters domain.FilterState) {
			mu.Lock()
			applied = append(applied, filters)
			mu.Unlock()
		}
	})

	for _, price := range []string{"1", "10", "100", "1000", "10000"} {
		f.OnFilterChange(mustSet(t, domain.EmptyFilters, domain.FilterPriceMin, price))
	}
	assert.Empty(t, api.callsSnapshot(), "nothing is fetched while the user is typing")

	require.Eventually(t, func() bool { return len(api.callsSnapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)

	calls := api.callsSnapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "10000", calls[0].filters.PriceMin)
	assert.Equal(t, 1, calls[0].page)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, "10000", applied[0].PriceMin)
	mu.Unlock()
	assert.Equal(t, 1, f.Snapshot().ActiveFilterCount)
}

func TestOnFilterApplyBypassesDebounce(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1)}
	f := newTestFetcher(t, api, nil)

	f.OnFilterChange(mustSet(t, domain.EmptyFilters, domain.FilterPriceMin, "100"))
	final := mustSet(t, domain.EmptyFilters, domain.FilterPropertyType, "house")
	require.NoError(t, f.OnFilterApply(context.Background(), final))

	calls := api.callsSnapshot()
	require.Len(t, calls, 1, "explicit apply fetches immediately")
	assert.Equal(t, final, calls[0].filters)

	time.Sleep(3 * testDebounce)
	assert.Len(t, api.callsSnapshot(), 1, "cancelled debounced call never fires")
	assert.Equal(t, final, f.Snapshot().Filters)
}

func TestExplicitApplyWinsOverDebouncedChangeAlreadyFiring(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1)}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	typed := mustSet(t, domain.EmptyFilters, domain.FilterPriceMin, "100")
	f.OnFilterChange(typed)
	// Таймер уже сработал и прошел свою проверку, но запрос еще не выпущен
	firing := f.debounced.Latest()
	f.debounced.Cancel()

	final := mustSet(t, domain.EmptyFilters, domain.FilterPropertyType, "house")
	require.NoError(t, f.OnFilterApply(ctx, final))
	f.applyDebounced(firing)

	calls := api.callsSnapshot()
	require.Len(t, calls, 1, "superseded debounced change issues no request")
	assert.Equal(t, final, calls[0].filters)
	assert.Equal(t, final, f.Snapshot().Filters)

	t.Run("change after explicit apply still fires", func(t *testing.T) {
		next := mustSet(t, final, domain.FilterPriceMax, "500")
		f.OnFilterChange(next)
		require.Eventually(t, func() bool {
			return len(api.callsSnapshot()) == 2
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, next.Normalized(), f.Snapshot().Filters)
	})
}

// staleScenario: медленный ответ на первые фильтры приходит после быстрого ответа на вторые.
func staleScenario(t *testing.T, guard bool) []string {
	t.Helper()
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeListingsAPI{pages: func(page int, f domain.FilterState) (*domain.ListingPage, error) {
		if f.District == "slow" {
			close(started)
			<-release
			return &domain.ListingPage{Results: []domain.Listing{lst("stale")}, TotalCount: 1}, nil
		}
		return &domain.ListingPage{Results: []domain.Listing{lst("fresh")}, TotalCount: 1}, nil
	}}
	f := newTestFetcher(t, api, func(cfg *FetcherConfig) { cfg.GenerationGuard = guard })
	ctx := context.Background()

	slow := mustSet(t, domain.EmptyFilters, domain.FilterDistrict, "slow")
	fast := mustSet(t, domain.EmptyFilters, domain.FilterDistrict, "fast")

	done := make(chan error, 1)
	go func() {
		done <- f.ApplyFilters(ctx, slow)
	}()
	<-started

	require.NoError(t, f.ApplyFilters(ctx, fast))
	close(release)
	require.NoError(t, <-done)

	return cardIDs(f.Snapshot().Items)
}

func TestGenerationGuardDropsStaleResponse(t *testing.T) {
	assert.Equal(t, []string{"fresh"}, staleScenario(t, true))
}

func TestWithoutGenerationGuardStaleResponseWins(t *testing.T) {
	assert.Equal(t, []string{"stale"}, staleScenario(t, false))
}

func TestAppendDeduplication(t *testing.T) {
	pages := map[int][]domain.Listing{
		1: {lst("a"), lst("b")},
		2: {lst("b"), lst("c")},
	}
	tests := []struct {
		name   string
		dedupe bool
		want   []string
	}{
		{name: "dedupe on", dedupe: true, want: []string{"a", "b", "c"}},
		{name: "dedupe off", dedupe: false, want: []string{"a", "b", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeListingsAPI{pages: staticPages(pages, 2)}
			f := newTestFetcher(t, api, func(cfg *FetcherConfig) { cfg.DedupeOnAppend = tt.dedupe })
			ctx := context.Background()

			require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
			require.NoError(t, f.LoadMore(ctx))
			assert.Equal(t, tt.want, cardIDs(f.Snapshot().Items))
		})
	}
}

func TestLoadMoreIsNoopWithoutNextPage(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1)}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	require.NoError(t, f.Fetch(ctx, 1, domain.EmptyFilters, true))
	require.NoError(t, f.LoadMore(ctx))
	assert.Len(t, api.callsSnapshot(), 1)
}

func TestLoadMoreUsesActiveFilters(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}, 2: {lst("b")}}, 2)}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	filters := mustSet(t, domain.EmptyFilters, domain.FilterRoomsMin, "2")
	require.NoError(t, f.ApplyFilters(ctx, filters))
	require.NoError(t, f.LoadMore(ctx))

	calls := api.callsSnapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[1].page)
	assert.Equal(t, filters, calls[1].filters)
}

func TestClearOneFilter(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("a")}}, 1)}
	f := newTestFetcher(t, api, nil)
	ctx := context.Background()

	filters := mustSet(t, domain.EmptyFilters, domain.FilterPropertyType, "apartment")
	filters = mustSet(t, filters, domain.FilterPriceMin, "100")
	require.NoError(t, f.ApplyFilters(ctx, filters))
	assert.Equal(t, 2, f.Snapshot().ActiveFilterCount)

	require.NoError(t, f.ClearOneFilter(ctx, domain.FilterPriceMin))

	calls := api.callsSnapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[1].page)
	assert.Equal(t, "apartment", calls[1].filters.PropertyType)
	assert.Empty(t, calls[1].filters.PriceMin)
	assert.Equal(t, 1, f.Snapshot().ActiveFilterCount)

	err := f.ClearOneFilter(ctx, "color")
	assert.ErrorIs(t, err, domain.ErrUnknownFilterKey)
	assert.Len(t, api.callsSnapshot(), 2)
}

func TestViewRegistry(t *testing.T) {
	api := &fakeListingsAPI{pages: staticPages(map[int][]domain.Listing{1: {lst("mine")}}, 1)}
	notifier := &recordingNotifier{}
	registry := NewViewRegistry(context.Background(), api, notifier, FetcherConfig{Debounce: testDebounce, GenerationGuard: true}, DefaultViews())
	t.Cleanup(registry.Close)

	profile, err := registry.View(ViewProfile)
	require.NoError(t, err)
	again, err := registry.View(ViewProfile)
	require.NoError(t, err)
	assert.Same(t, profile, again)

	require.NoError(t, profile.ApplyFilters(context.Background(), domain.EmptyFilters))
	calls := api.callsSnapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]string{"owner": "me"}, calls[0].fixed)
	assert.Contains(t, notifier.types(), port.EventFiltersApplied)
	assert.Equal(t, ViewProfile, profile.Snapshot().View)

	_, err = registry.View("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownView)
	assert.Equal(t, []string{ViewAll, ViewProfile}, registry.Names())
}
