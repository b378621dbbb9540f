package usecase

import (
	"context"
	"fmt"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"
	"sort"
	"sync"
)

const (
	ViewAll     = "all"
	ViewProfile = "profile"
)

// ViewOptions - то, чем экраны отличаются друг от друга.
type ViewOptions struct {
	PageSize   int
	FixedQuery map[string]string
}

// DefaultViews - общая лента и "Мои объявления" в профиле.
func DefaultViews() map[string]ViewOptions {
	return map[string]ViewOptions{
		ViewAll:     {},
		ViewProfile: {FixedQuery: map[string]string{"owner": "me"}},
	}
}

// ViewRegistry создает окна выдачи лениво, по одному на экран.
type ViewRegistry struct {
	baseCtx  context.Context
	api      port.ListingsAPIPort
	notifier port.NotifierPort
	defaults FetcherConfig
	options  map[string]ViewOptions

	mu    sync.Mutex
	views map[string]*ListingFetcher
}

// NewViewRegistry: defaults задает общие настройки (debounce, guard, dedupe, Liked),
// View и FixedQuery берутся из options.
func NewViewRegistry(baseCtx context.Context, api port.ListingsAPIPort, notifier port.NotifierPort, defaults FetcherConfig, options map[string]ViewOptions) *ViewRegistry {
	return &ViewRegistry{
		baseCtx:  baseCtx,
		api:      api,
		notifier: notifier,
		defaults: defaults,
		options:  options,
		views:    make(map[string]*ListingFetcher),
	}
}

func (r *ViewRegistry) View(name string) (usecases_port.ListingFetcherPort, error) {
	return r.Fetcher(name)
}

// Fetcher возвращает конкретный тип, нужен для Close.
func (r *ViewRegistry) Fetcher(name string) (*ListingFetcher, error) {
	opts, ok := r.options[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownView, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.views[name]; ok {
		return f, nil
	}

	cfg := r.defaults
	cfg.View = name
	cfg.FixedQuery = opts.FixedQuery
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}
	cfg.OnFiltersApplied = func(ctx context.Context, filters domain.FilterState) {
		r.notifier.Notify(ctx, port.StateEvent{Type: port.EventFiltersApplied, View: name, Data: filters})
	}

	f := NewListingFetcher(r.baseCtx, r.api, r.notifier, cfg)
	r.views[name] = f
	return f, nil
}

// Names - зарегистрированные экраны в алфавитном порядке.
func (r *ViewRegistry) Names() []string {
	names := make([]string, 0, len(r.options))
	for name := range r.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close останавливает таймеры всех созданных окон.
func (r *ViewRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.views {
		f.Close()
	}
}
