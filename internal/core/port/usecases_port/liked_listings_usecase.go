package usecases_port

import (
	"context"
	"listings-agent/internal/core/domain"
)

type LikedListingsUseCasePort interface {
	Execute(ctx context.Context) ([]domain.Listing, error)
}
