package domain

// PageWindow - окно выдачи для одного экрана со списком.
// Элементы хранятся в порядке вставки, при dedupe повторный ID на дозагрузке отбрасывается.
type PageWindow struct {
	items       []Listing
	index       map[string]struct{}
	CurrentPage int
	HasNextPage bool
	TotalCount  int
}

func NewPageWindow() *PageWindow {
	return &PageWindow{index: make(map[string]struct{})}
}

// Replace заменяет окно целиком (первая страница, смена фильтров, обновление).
func (w *PageWindow) Replace(page ListingPage) {
	w.items = make([]Listing, 0, len(page.Results))
	w.index = make(map[string]struct{}, len(page.Results))
	w.push(page.Results, true)
	w.CurrentPage = 1
	w.HasNextPage = page.HasNext
	w.TotalCount = page.TotalCount
}

// Append дописывает следующую страницу. Возвращает число отброшенных дубликатов.
func (w *PageWindow) Append(pageNum int, page ListingPage, dedupe bool) int {
	dropped := w.push(page.Results, dedupe)
	w.CurrentPage = pageNum
	w.HasNextPage = page.HasNext
	w.TotalCount = page.TotalCount
	return dropped
}

func (w *PageWindow) push(listings []Listing, dedupe bool) int {
	dropped := 0
	for _, l := range listings {
		if _, seen := w.index[l.ID]; seen && dedupe {
			dropped++
			continue
		}
		w.index[l.ID] = struct{}{}
		w.items = append(w.items, l)
	}
	return dropped
}

// Items возвращает копию элементов.
func (w *PageWindow) Items() []Listing {
	out := make([]Listing, len(w.items))
	copy(out, w.items)
	return out
}

func (w *PageWindow) Len() int { return len(w.items) }
