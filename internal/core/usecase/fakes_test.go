package usecase

import (
	"context"
	"errors"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"sync"
)

var errBackend = errors.New("backend unavailable")

func lst(id string) domain.Listing {
	return domain.Listing{ID: id, Title: "listing " + id, PropertyType: domain.PropertyApartment, ListingType: domain.ListingSale, Price: "100", Currency: domain.CurrencyUSD}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func cardIDs(cards []domain.ListingCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// recordingNotifier запоминает события
type recordingNotifier struct {
	mu     sync.Mutex
	events []port.StateEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, event port.StateEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

// fakeFavoritesAPI - бэкенд избранного в памяти
type fakeFavoritesAPI struct {
	mu          sync.Mutex
	records     []domain.FavoriteRecord
	listErr     error
	addErr      error
	removeErr   error
	nextID      string
	onAdd       func(listingID string)
	onRemove    func(recordID string)
	addCalls    []string
	removeCalls []string
}

func (f *fakeFavoritesAPI) ListFavorites(ctx context.Context) ([]domain.FavoriteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.FavoriteRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeFavoritesAPI) AddFavorite(ctx context.Context, listingID string) (string, error) {
	if f.onAdd != nil {
		f.onAdd(listingID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, listingID)
	if f.addErr != nil {
		return "", f.addErr
	}
	return f.nextID, nil
}

func (f *fakeFavoritesAPI) RemoveFavorite(ctx context.Context, favoriteRecordID string) error {
	if f.onRemove != nil {
		f.onRemove(favoriteRecordID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, favoriteRecordID)
	return f.removeErr
}

type listCall struct {
	page    int
	filters domain.FilterState
	fixed   map[string]string
}

// fakeListingsAPI: ответ на страницу задается функцией pages, она может блокироваться.
type fakeListingsAPI struct {
	mu            sync.Mutex
	pages         func(page int, filters domain.FilterState) (*domain.ListingPage, error)
	calls         []listCall
	featured      []domain.Listing
	featuredErr   error
	featuredCalls int
	details       map[string]domain.Listing
	detailErr     map[string]error
}

func (f *fakeListingsAPI) ListAnnouncements(ctx context.Context, page, pageSize int, filters domain.FilterState, fixed map[string]string) (*domain.ListingPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, listCall{page: page, filters: filters, fixed: fixed})
	pages := f.pages
	f.mu.Unlock()
	return pages(page, filters)
}

func (f *fakeListingsAPI) ListFeatured(ctx context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featuredCalls++
	return f.featured, f.featuredErr
}

func (f *fakeListingsAPI) GetAnnouncement(ctx context.Context, id string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.detailErr[id]; err != nil {
		return nil, err
	}
	l, ok := f.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &l, nil
}

func (f *fakeListingsAPI) callsSnapshot() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]listCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func staticPages(pages map[int][]domain.Listing, lastPage int) func(int, domain.FilterState) (*domain.ListingPage, error) {
	total := 0
	for _, p := range pages {
		total += len(p)
	}
	return func(page int, _ domain.FilterState) (*domain.ListingPage, error) {
		return &domain.ListingPage{Results: pages[page], TotalCount: total, HasNext: page < lastPage}, nil
	}
}

type fakeDistrictsAPI struct {
	mu        sync.Mutex
	districts []domain.District
	err       error
	calls     int
}

func (f *fakeDistrictsAPI) ListDistricts(ctx context.Context) ([]domain.District, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.districts, f.err
}
