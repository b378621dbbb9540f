package usecase

import (
	"context"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"sync"
)

// FilterPillsUseCase строит "таблетки" активных фильтров.
// Названия районов подтягиваются из /districts и кэшируются после первой удачной загрузки.
type FilterPillsUseCase struct {
	districts port.DistrictsAPIPort

	mu    sync.Mutex
	names map[string]string
}

func NewFilterPillsUseCase(districts port.DistrictsAPIPort) *FilterPillsUseCase {
	return &FilterPillsUseCase{districts: districts}
}

func (uc *FilterPillsUseCase) Execute(ctx context.Context, filters domain.FilterState) ([]domain.FilterPill, error) {
	active := filters.Active()
	pills := make([]domain.FilterPill, 0, len(active))

	for _, kv := range active {
		pill := domain.FilterPill{Key: kv[0], Value: kv[1], Label: kv[1]}
		if kv[0] == domain.FilterDistrict {
			pill.Label = uc.districtName(ctx, kv[1])
		}
		pills = append(pills, pill)
	}
	return pills, nil
}

// districtName при ошибке загрузки возвращает сам ID: подпись - не повод ломать экран.
func (uc *FilterPillsUseCase) districtName(ctx context.Context, id string) string {
	uc.mu.Lock()
	names := uc.names
	uc.mu.Unlock()

	if names == nil {
		districts, err := uc.districts.ListDistricts(ctx)
		if err != nil {
			contextkeys.LoggerFromContext(ctx).Error("Failed to load districts for filter pills", err, port.Fields{
				"component":   "FilterPillsUseCase",
				"district_id": id,
			})
			return id
		}

		names = make(map[string]string, len(districts))
		for _, d := range districts {
			names[d.ID] = d.Name
		}
		uc.mu.Lock()
		uc.names = names
		uc.mu.Unlock()
	}

	if name, ok := names[id]; ok {
		return name
	}
	return id
}
