package usecases_port

import "context"

type LanguagePreferenceUseCasePort interface {
	Get(ctx context.Context) (string, error)
	// Set возвращает сохраненное (нормализованное) значение
	Set(ctx context.Context, language string) (string, error)
}
