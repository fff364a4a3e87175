package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/server/storage"
	"github.com/iudanet/notifsync/pkg/api"
)

// DefaultPageLimit is used when the request carries no limit.
const DefaultPageLimit = 50

// FeedReader определяет интерфейс для чтения ленты
type FeedReader interface {
	Page(ctx context.Context, cursor string, limit int) ([]api.Notification, string, error)
}

// NotificationsHandler serves the cursor-paginated notification listing
type NotificationsHandler struct {
	logger *zap.Logger
	feed   FeedReader
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(logger *zap.Logger, feed FeedReader) *NotificationsHandler {
	return &NotificationsHandler{
		logger: logger,
		feed:   feed,
	}
}

// List обрабатывает GET /api/v1/notifications?limit=N&cursor=C
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := DefaultPageLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.logger.Warn("Invalid limit parameter", zap.String("limit", raw))
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		// Слишком большие страницы урезаются до максимума
		limit = min(parsed, api.MaxLimit)
	}

	cursor := query.Get("cursor")
	clientID, _ := GetClientID(r.Context())

	items, next, err := h.feed.Page(r.Context(), cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor), errors.Is(err, storage.ErrInvalidLimit):
			h.logger.Warn("Rejected page request", zap.String("client_id", clientID), zap.Error(err))
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled):
			h.logger.Debug("Page request cancelled", zap.String("client_id", clientID))
		default:
			h.logger.Error("Failed to read feed page", zap.String("client_id", clientID), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := api.ListNotificationsResponse{
		Notifications: items,
		Cursor:        next,
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		return
	}

	h.logger.Debug("Page served",
		zap.String("client_id", clientID),
		zap.Bool("first_page", cursor == ""),
		zap.Int("items", len(items)),
		zap.Bool("has_more", next != ""))
}
