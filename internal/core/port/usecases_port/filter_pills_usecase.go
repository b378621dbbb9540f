package usecases_port

import (
	"context"
	"listings-agent/internal/core/domain"
)

type FilterPillsUseCasePort interface {
	Execute(ctx context.Context, filters domain.FilterState) ([]domain.FilterPill, error)
}
