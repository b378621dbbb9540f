package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"listings-agent/internal/core/domain"
	"time"

	"golang.org/x/text/language"
)

const keyLanguage = "language"

// DefaultLanguage - язык, пока пользователь его не выбрал
const DefaultLanguage = "uz"

var (
	supportedLanguages = []language.Tag{language.Uzbek, language.Russian, language.English}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// NormalizeLanguage приводит тег ("ru-RU", "uz-Latn", "EN") к одному из поддерживаемых: uz, ru, en.
func NormalizeLanguage(raw string) (string, error) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, raw)
	}
	_, index, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, raw)
	}
	base, _ := supportedLanguages[index].Base()
	return base.String(), nil
}

// PreferencesRepository реализует PreferencesPort поверх sqlite.
type PreferencesRepository struct {
	db *sql.DB
}

func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

func (r *PreferencesRepository) GetLanguage(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", keyLanguage).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultLanguage, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read language preference: %w", err)
	}
	return value, nil
}

func (r *PreferencesRepository) SetLanguage(ctx context.Context, lang string) error {
	normalized, err := NormalizeLanguage(lang)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, keyLanguage, normalized, now); err != nil {
		return fmt.Errorf("failed to save language preference: %w", err)
	}
	return nil
}
