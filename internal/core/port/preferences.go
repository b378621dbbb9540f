package port

import "context"

// PreferencesPort - локальное хранилище пользовательских настроек на устройстве.
type PreferencesPort interface {
	GetLanguage(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, language string) error
}
