package media

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
)

type MediaHandlers struct {
	store storage.Storage
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(store storage.Storage) *MediaHandlers {
	return &MediaHandlers{store: store}
}

// ListUserMedia lists the attachments uploaded by the authenticated user
// @Summary List user attachments
// @Description List all attachments uploaded by the authenticated user, newest first
// @Tags media
// @Produce json
// @Success 200 {array} media.Attachment "Attachments retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media [get]
func (h *MediaHandlers) ListUserMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		attachments, err := h.store.ListAttachmentsByOwner(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to list attachments", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to list media files")))
			return
		}
		if attachments == nil {
			attachments = []media.Attachment{}
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Media files retrieved successfully", attachments))
	}
}

// GetMedia returns one attachment owned by the authenticated user
// @Summary Get attachment
// @Description Get an attachment record with its generated metadata
// @Tags media
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} media.Attachment "Attachment retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media/{id} [get]
func (h *MediaHandlers) GetMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id := r.PathValue("id")
		attachment, err := h.store.GetAttachment(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
			return
		}
		if err != nil {
			slog.Error("Failed to get attachment", slog.String("error", err.Error()), slog.String("id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get media file")))
			return
		}

		// Other users' attachments are reported as missing.
		if attachment.OwnerID != userID {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Media file retrieved successfully", attachment))
	}
}
