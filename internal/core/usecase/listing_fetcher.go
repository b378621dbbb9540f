package usecase

import (
	"context"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/pkg/debounce"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultFilterDebounce = 300 * time.Millisecond
	DefaultPageSize       = 20
)

// FetcherConfig - настройки окна выдачи.
type FetcherConfig struct {
	View     string
	PageSize int
	// FixedQuery - параметры экрана, которые пользователь не может изменить (owner=me в профиле).
	FixedQuery map[string]string
	Debounce   time.Duration
	// GenerationGuard отбрасывает ответы устаревших запросов.
	// Без него медленный ответ на старые фильтры может перезаписать более новый.
	GenerationGuard bool
	DedupeOnAppend  bool

	// Liked - признак "в избранном" для карточек. Может быть nil.
	Liked func(listingID string) bool
	// OnFiltersApplied вызывается после каждого ApplyFilters, чтобы соседние компоненты
	// (например, панель фильтров) оставались синхронными.
	OnFiltersApplied func(ctx context.Context, filters domain.FilterState)
}

// ListingFetcher держит окно выдачи для одного экрана.
// Два пути запуска: немедленный (ApplyFilters/OnFilterApply) и с задержкой (OnFilterChange).
type ListingFetcher struct {
	api      port.ListingsAPIPort
	notifier port.NotifierPort
	cfg      FetcherConfig
	// baseCtx нужен запросам, запущенным таймером debounce, а не HTTP-запросом
	baseCtx context.Context

	debounced *debounce.Func[pendingFilters]

	mu             sync.Mutex
	window         *domain.PageWindow
	featured       []domain.Listing
	featuredIDs    map[string]struct{}
	featuredLoaded bool
	filters        domain.FilterState
	loading        bool
	refreshing     bool
	lastErr        string
	generation     uint64
	// applyEpoch растет при каждом явном применении (OnFilterApply, ClearOneFilter).
	// Отложенное изменение, запланированное до него, не применяется.
	applyEpoch uint64
}

// pendingFilters - фильтры, ждущие таймера, и эпоха явных применений на момент вызова.
type pendingFilters struct {
	filters domain.FilterState
	epoch   uint64
}

func NewListingFetcher(baseCtx context.Context, api port.ListingsAPIPort, notifier port.NotifierPort, cfg FetcherConfig) *ListingFetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultFilterDebounce
	}

	f := &ListingFetcher{
		api:         api,
		notifier:    notifier,
		cfg:         cfg,
		baseCtx:     baseCtx,
		window:      domain.NewPageWindow(),
		featuredIDs: make(map[string]struct{}),
		filters:     domain.EmptyFilters,
	}
	f.debounced = debounce.NewFunc(cfg.Debounce, f.applyDebounced)
	return f
}

// fetchTicket - то, что известно о запросе в момент его выпуска.
type fetchTicket struct {
	page         int
	filters      domain.FilterState
	generation   uint64
	withFeatured bool
}

// issueLocked выпускает запрос: выставляет флаги и номер поколения. Вызывать под f.mu.
func (f *ListingFetcher) issueLocked(page int, filters domain.FilterState, isInitialLoad bool) fetchTicket {
	if page == 1 {
		// Новая первая страница делает устаревшими все запросы, выпущенные до нее
		f.generation++
		f.filters = filters
	}
	t := fetchTicket{
		page:         page,
		filters:      filters,
		generation:   f.generation,
		withFeatured: page == 1 && !f.featuredLoaded,
	}
	if t.withFeatured {
		f.featuredLoaded = true
	}
	if isInitialLoad {
		f.loading = true
	} else {
		f.refreshing = true
	}
	return t
}

// Fetch загружает страницу page. Первая страница заменяет окно, следующие дописываются в конец.
// При ошибке окно остается последним удачным.
func (f *ListingFetcher) Fetch(ctx context.Context, page int, filters domain.FilterState, isInitialLoad bool) error {
	if page < 1 {
		page = 1
	}
	filters = filters.Normalized()

	f.mu.Lock()
	t := f.issueLocked(page, filters, isInitialLoad)
	f.mu.Unlock()

	return f.run(ctx, t)
}

func (f *ListingFetcher) run(ctx context.Context, t fetchTicket) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "ListingFetcher",
		"view":       f.cfg.View,
		"page":       t.page,
		"generation": t.generation,
	})
	f.notifier.Notify(ctx, port.StateEvent{Type: port.EventListingsChanged, View: f.cfg.View})

	var (
		result      *domain.ListingPage
		featured    []domain.Listing
		featuredErr error
	)

	// Ошибка подборки featured не должна отменять основной запрос, поэтому без WithContext
	var g errgroup.Group
	g.Go(func() error {
		var err error
		result, err = f.api.ListAnnouncements(ctx, t.page, f.cfg.PageSize, t.filters, f.cfg.FixedQuery)
		return err
	})
	if t.withFeatured {
		g.Go(func() error {
			featured, featuredErr = f.api.ListFeatured(ctx)
			return nil
		})
	}
	err := g.Wait()

	f.mu.Lock()
	if t.withFeatured {
		if featuredErr != nil {
			f.featuredLoaded = false
		} else {
			f.mergeFeaturedLocked(featured)
		}
	}

	if f.cfg.GenerationGuard && t.generation != f.generation {
		latest := f.generation
		f.mu.Unlock()
		logger.Debug("Dropping stale page response", port.Fields{"latest_generation": latest})
		return nil
	}

	f.loading = false
	f.refreshing = false
	if err != nil {
		f.lastErr = fmt.Sprintf("failed to load listings: %v", err)
		f.mu.Unlock()
		logger.Error("Failed to fetch listings page", err, nil)
		f.notifier.Notify(ctx, port.StateEvent{Type: port.EventListingsChanged, View: f.cfg.View})
		return fmt.Errorf("failed to fetch page %d: %w", t.page, err)
	}

	dropped := 0
	if t.page == 1 {
		f.window.Replace(*result)
	} else {
		dropped = f.window.Append(t.page, *result, f.cfg.DedupeOnAppend)
	}
	f.lastErr = ""
	total := f.window.Len()
	f.mu.Unlock()

	if featuredErr != nil {
		logger.Warn("Failed to fetch featured listings", port.Fields{"error": featuredErr.Error()})
	}
	logger.Info("Listings page applied", port.Fields{
		"received":           len(result.Results),
		"duplicates_dropped": dropped,
		"window_size":        total,
		"has_next_page":      result.HasNext,
	})
	f.notifier.Notify(ctx, port.StateEvent{Type: port.EventListingsChanged, View: f.cfg.View})
	return nil
}

func (f *ListingFetcher) mergeFeaturedLocked(featured []domain.Listing) {
	f.featured = featured
	for _, l := range featured {
		f.featuredIDs[l.ID] = struct{}{}
	}
}

// ApplyFilters - основной путь: запоминает фильтры, загружает первую страницу и уведомляет родителя.
func (f *ListingFetcher) ApplyFilters(ctx context.Context, filters domain.FilterState) error {
	filters = filters.Normalized()

	f.mu.Lock()
	t := f.issueLocked(1, filters, false)
	f.mu.Unlock()

	return f.runApplied(ctx, t)
}

func (f *ListingFetcher) runApplied(ctx context.Context, t fetchTicket) error {
	err := f.run(ctx, t)
	if f.cfg.OnFiltersApplied != nil {
		f.cfg.OnFiltersApplied(ctx, t.filters)
	}
	return err
}

// OnFilterChange перезапускает таймер. Когда он сработает, в ApplyFilters уйдут
// последние переданные фильтры, а не те, что были при первом вызове.
func (f *ListingFetcher) OnFilterChange(filters domain.FilterState) {
	f.mu.Lock()
	epoch := f.applyEpoch
	f.mu.Unlock()

	f.debounced.Call(pendingFilters{filters: filters, epoch: epoch})
}

func (f *ListingFetcher) applyDebounced(p pendingFilters) {
	ctx, _ := contextkeys.EnsureTraceID(f.baseCtx)
	filters := p.filters.Normalized()

	// Проверка эпохи и выпуск запроса под одной блокировкой: явное применение,
	// пришедшее после срабатывания таймера, все равно побеждает
	f.mu.Lock()
	if p.epoch != f.applyEpoch {
		f.mu.Unlock()
		contextkeys.LoggerFromContext(ctx).Debug("Debounced filter change superseded by explicit apply", port.Fields{
			"component": "ListingFetcher",
			"view":      f.cfg.View,
		})
		return
	}
	t := f.issueLocked(1, filters, false)
	f.mu.Unlock()

	// Ошибка уже в состоянии экрана и в логе
	_ = f.runApplied(ctx, t)
}

// OnFilterApply - явное подтверждение фильтров: отложенный вызов отменяется и больше не сработает.
func (f *ListingFetcher) OnFilterApply(ctx context.Context, filters domain.FilterState) error {
	f.mu.Lock()
	f.applyEpoch++
	f.mu.Unlock()

	if f.debounced.Cancel() {
		contextkeys.LoggerFromContext(ctx).Debug("Pending debounced filter change cancelled", port.Fields{
			"component": "ListingFetcher",
			"view":      f.cfg.View,
		})
	}
	return f.ApplyFilters(ctx, filters)
}

// LoadMore ничего не делает, если идет загрузка или страниц больше нет.
func (f *ListingFetcher) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.loading || f.refreshing || !f.window.HasNextPage {
		f.mu.Unlock()
		return nil
	}
	t := f.issueLocked(f.window.CurrentPage+1, f.filters, false)
	f.mu.Unlock()

	return f.run(ctx, t)
}

// ClearOneFilter сбрасывает один фильтр и сразу перезагружает первую страницу.
func (f *ListingFetcher) ClearOneFilter(ctx context.Context, key string) error {
	f.mu.Lock()
	filters, err := f.filters.Clear(key)
	if err == nil {
		f.applyEpoch++
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.debounced.Cancel()
	return f.ApplyFilters(ctx, filters)
}

// Retry повторяет загрузку с нуля: первая страница, текущие фильтры.
func (f *ListingFetcher) Retry(ctx context.Context) error {
	f.mu.Lock()
	filters := f.filters
	initial := f.window.Len() == 0
	f.mu.Unlock()

	return f.Fetch(ctx, 1, filters, initial)
}

func (f *ListingFetcher) Snapshot() domain.ListingsState {
	f.mu.Lock()
	items := f.window.Items()
	featured := make([]domain.Listing, len(f.featured))
	copy(featured, f.featured)
	featuredIDs := make(map[string]struct{}, len(f.featuredIDs))
	for id := range f.featuredIDs {
		featuredIDs[id] = struct{}{}
	}
	state := domain.ListingsState{
		View:              f.cfg.View,
		CurrentPage:       f.window.CurrentPage,
		HasNextPage:       f.window.HasNextPage,
		TotalCount:        f.window.TotalCount,
		Loading:           f.loading,
		Refreshing:        f.refreshing,
		Filters:           f.filters,
		ActiveFilterCount: f.filters.ActiveCount(),
		Error:             f.lastErr,
	}
	f.mu.Unlock()

	// IsLiked берет блокировку избранного, поэтому карточки собираются вне f.mu
	state.Items = make([]domain.ListingCard, len(items))
	for i, l := range items {
		state.Items[i] = domain.NewListingCard(l, featuredIDs, f.cfg.Liked)
	}
	state.Featured = make([]domain.ListingCard, len(featured))
	for i, l := range featured {
		state.Featured[i] = domain.NewListingCard(l, featuredIDs, f.cfg.Liked)
	}
	return state
}

// Close останавливает таймер debounce. Запросы в полете не отменяются.
func (f *ListingFetcher) Close() {
	f.debounced.Stop()
}
