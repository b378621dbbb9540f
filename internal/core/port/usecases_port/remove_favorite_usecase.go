package usecases_port

import "context"

type RemoveFavoriteUseCasePort interface {
	Execute(ctx context.Context, listingID string) error
}
