package rest

import (
	"errors"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"
	"net/http"
	"strings"
)

// SessionPort - сессия API-клиента; токен приходит от UI после входа
type SessionPort interface {
	SetToken(token string) error
	UserID() string
}

type SessionHandler struct {
	session    SessionPort
	favorites  usecases_port.FavoritesSyncPort
	languageUC usecases_port.LanguagePreferenceUseCasePort
}

func NewSessionHandler(session SessionPort, favorites usecases_port.FavoritesSyncPort, languageUC usecases_port.LanguagePreferenceUseCasePort) *SessionHandler {
	return &SessionHandler{session: session, favorites: favorites, languageUC: languageUC}
}

// SetSession - PUT /api/v1/session. Пустой токен означает выход.
// После входа избранное загружается заново, после выхода или смены пользователя сбрасывается.
func (h *SessionHandler) SetSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetSession"})

	var req SessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.Warn("Failed to decode session request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token := strings.TrimSpace(req.Token)
	prevUserID := h.session.UserID()
	if err := h.session.SetToken(token); err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			logger.Warn("Rejected expired session token", nil)
			WriteJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.Error("Failed to set session token", err, nil)
		WriteJSONError(w, http.StatusBadRequest, "Invalid session token")
		return
	}

	userID := h.session.UserID()
	logger.Info("Session updated", port.Fields{"authenticated": token != "", "user_id": userID})

	resp := SessionResponse{Authenticated: token != "", UserID: userID}
	// Непрозрачный токен без user_id не позволяет понять, тот ли это пользователь
	if token == "" || userID == "" || userID != prevUserID {
		h.favorites.Reset(r.Context())
	}
	if token != "" {
		if err := h.favorites.LoadFavorites(r.Context()); err != nil {
			logger.Warn("Favorites load after login failed", port.Fields{"error": err.Error()})
			resp.FavoritesError = err.Error()
		}
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// GetLanguage - GET /api/v1/preferences/language
func (h *SessionHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetLanguage"})

	lang, err := h.languageUC.Get(r.Context())
	if err != nil {
		logger.Error("Failed to read language preference", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to read language preference")
		return
	}
	RespondWithJSON(w, http.StatusOK, LanguageResponse{Language: lang})
}

// SetLanguage - PUT /api/v1/preferences/language
func (h *SessionHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetLanguage"})

	var req LanguageRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.Warn("Failed to decode language request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	lang, err := h.languageUC.Set(r.Context(), req.Language)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedLanguage) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to save language preference", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to save language preference")
		return
	}
	RespondWithJSON(w, http.StatusOK, LanguageResponse{Language: lang})
}
