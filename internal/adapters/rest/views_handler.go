package rest

import (
	"errors"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ViewsHandler struct {
	views   usecases_port.ViewRegistryPort
	pillsUC usecases_port.FilterPillsUseCasePort
}

func NewViewsHandler(views usecases_port.ViewRegistryPort, pillsUC usecases_port.FilterPillsUseCasePort) *ViewsHandler {
	return &ViewsHandler{views: views, pillsUC: pillsUC}
}

// fetcher достает окно выдачи по {view}. Неизвестный экран - 404.
func (h *ViewsHandler) fetcher(w http.ResponseWriter, r *http.Request) (usecases_port.ListingFetcherPort, port.LoggerPort, bool) {
	view := chi.URLParam(r, "view")
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"view": view})

	f, err := h.views.View(view)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownView) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return nil, nil, false
		}
		logger.Error("Failed to resolve view", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to resolve view")
		return nil, nil, false
	}
	return f, logger, true
}

// respondListingsState: ошибка загрузки уже лежит в снимке, поэтому статус 200
func respondListingsState(w http.ResponseWriter, status int, f usecases_port.ListingFetcherPort) {
	RespondWithJSON(w, status, toListingsStateResponse(f.Snapshot()))
}

// decodeFilters читает фильтры из тела; неизвестный ключ - 400.
func decodeFilters(w http.ResponseWriter, raw map[string]string, logger port.LoggerPort) (domain.FilterState, bool) {
	filters, err := domain.FilterStateFromMap(raw)
	if err != nil {
		logger.Warn("Invalid filters in request", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return domain.EmptyFilters, false
	}
	return filters, true
}

// GetView - GET /api/v1/views/{view}
func (h *ViewsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	respondListingsState(w, http.StatusOK, f)
}

// Fetch - POST /api/v1/views/{view}/fetch
func (h *ViewsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"handler": "Fetch"})

	var req FetchRequest
	if err := decodeJSON(r, &req, true); err != nil {
		logger.Warn("Failed to decode fetch request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Page < 0 {
		WriteJSONError(w, http.StatusBadRequest, "Field 'page' must be positive")
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	filters, ok := decodeFilters(w, req.Filters, logger)
	if !ok {
		return
	}

	if err := f.Fetch(r.Context(), req.Page, filters, req.Initial); err != nil {
		logger.Debug("Fetch finished with error", port.Fields{"error": err.Error()})
	}
	respondListingsState(w, http.StatusOK, f)
}

// ChangeFilters - POST /api/v1/views/{view}/filters/change
// Ответ приходит сразу, перезагрузка случится после паузы во вводе (события по SSE).
func (h *ViewsHandler) ChangeFilters(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"handler": "ChangeFilters"})

	var req FiltersRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.Warn("Failed to decode filters request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	filters, ok := decodeFilters(w, req.Filters, logger)
	if !ok {
		return
	}

	f.OnFilterChange(filters)
	respondListingsState(w, http.StatusAccepted, f)
}

// ApplyFilters - POST /api/v1/views/{view}/filters/apply
func (h *ViewsHandler) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"handler": "ApplyFilters"})

	var req FiltersRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.Warn("Failed to decode filters request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	filters, ok := decodeFilters(w, req.Filters, logger)
	if !ok {
		return
	}

	if err := f.OnFilterApply(r.Context(), filters); err != nil {
		logger.Debug("Apply filters finished with error", port.Fields{"error": err.Error()})
	}
	respondListingsState(w, http.StatusOK, f)
}

// ClearFilter - DELETE /api/v1/views/{view}/filters/{key}
func (h *ViewsHandler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	if err := f.ClearOneFilter(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrUnknownFilterKey) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Debug("Clear filter finished with error", port.Fields{"key": key, "error": err.Error()})
	}
	respondListingsState(w, http.StatusOK, f)
}

// LoadMore - POST /api/v1/views/{view}/more
func (h *ViewsHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	if err := f.LoadMore(r.Context()); err != nil {
		logger.Debug("Load more finished with error", port.Fields{"error": err.Error()})
	}
	respondListingsState(w, http.StatusOK, f)
}

// Retry - POST /api/v1/views/{view}/retry
func (h *ViewsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}
	if err := f.Retry(r.Context()); err != nil {
		logger.Debug("Retry finished with error", port.Fields{"error": err.Error()})
	}
	respondListingsState(w, http.StatusOK, f)
}

// GetPills - GET /api/v1/views/{view}/pills
func (h *ViewsHandler) GetPills(w http.ResponseWriter, r *http.Request) {
	f, logger, ok := h.fetcher(w, r)
	if !ok {
		return
	}

	filters := f.Snapshot().Filters
	pills, err := h.pillsUC.Execute(r.Context(), filters)
	if err != nil {
		logger.Error("Failed to build filter pills", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to build filter pills")
		return
	}
	RespondWithJSON(w, http.StatusOK, FilterPillsResponse{
		Results:     toFilterPillDTOs(pills),
		ActiveCount: filters.ActiveCount(),
	})
}
