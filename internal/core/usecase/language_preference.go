package usecase

import (
	"context"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
)

// LanguagePreferenceUseCase хранит выбранный язык и применяет его к сессии (Accept-Language).
type LanguagePreferenceUseCase struct {
	store port.PreferencesPort
	apply func(language string)
}

func NewLanguagePreferenceUseCase(store port.PreferencesPort, apply func(language string)) *LanguagePreferenceUseCase {
	return &LanguagePreferenceUseCase{store: store, apply: apply}
}

func (uc *LanguagePreferenceUseCase) Get(ctx context.Context) (string, error) {
	return uc.store.GetLanguage(ctx)
}

func (uc *LanguagePreferenceUseCase) Set(ctx context.Context, language string) (string, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "LanguagePreference",
		"language": language,
	})

	if err := uc.store.SetLanguage(ctx, language); err != nil {
		ucLogger.Warn("Language preference rejected", port.Fields{"error": err.Error()})
		return "", err
	}

	// Хранилище нормализует значение, поэтому читаем обратно
	stored, err := uc.store.GetLanguage(ctx)
	if err != nil {
		return "", err
	}
	uc.apply(stored)

	ucLogger.Info("Language preference updated", port.Fields{"stored": stored})
	return stored, nil
}

// Restore применяет сохраненный язык при старте приложения
func (uc *LanguagePreferenceUseCase) Restore(ctx context.Context) error {
	stored, err := uc.store.GetLanguage(ctx)
	if err != nil {
		return err
	}
	uc.apply(stored)
	return nil
}
