package domain

import "errors"

var (
	// ErrUnknownFilterKey - ключ фильтра не входит в FilterState.
	ErrUnknownFilterKey = errors.New("unknown filter key")

	// ErrFavoriteRecordUnknown - объявление в избранном, но id записи избранного еще неизвестен
	// (добавление не подтверждено сервером). Удаление в этом случае не выполняется.
	ErrFavoriteRecordUnknown = errors.New("favorite record id is unknown")

	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session token expired")

	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrUnknownView - экран со списком не зарегистрирован.
	ErrUnknownView = errors.New("unknown view")
)
