package upload

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/auth"
	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/types"
	uploadService "github.com/princekumarofficial/dropzone-service/internal/upload"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
)

// Multipart parts above this size are spooled to disk by net/http.
const maxMemory = 8 << 20

// Form fields sent by the widget.
const (
	FieldNonce       = "nonce"
	FieldFile        = "file"
	FieldUUID        = "dzuuid"
	FieldChunkIndex  = "dzchunkindex"
	FieldTotalChunks = "dztotalchunkcount"
	FieldOrigType    = "origtype"
)

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}

func filePart(form *multipart.Form) *uploadService.FilePart {
	if form == nil || len(form.File[FieldFile]) == 0 {
		return nil
	}
	fh := form.File[FieldFile][0]
	return &uploadService.FilePart{
		Name: fh.Filename,
		Type: fh.Header.Get("Content-Type"),
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Upload receives one direct upload or one chunk of a chunked upload
// @Summary Upload a file or chunk
// @Description Accepts the widget's multipart post. A request carrying dzuuid, dzchunkindex and dztotalchunkcount is one chunk of a session; otherwise the file is stored directly.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param nonce formData string true "Upload nonce from GET /nonce"
// @Param file formData file true "File or chunk bytes"
// @Param dzuuid formData string false "Chunk session token"
// @Param dzchunkindex formData int false "Zero-based chunk index"
// @Param dztotalchunkcount formData int false "Total chunk count"
// @Param origtype formData string false "Client-observed MIME type"
// @Success 200 {object} response.Envelope "Chunk accepted or file stored"
// @Failure 400 {object} response.Envelope "Missing file, disallowed type or malformed session"
// @Failure 403 {object} response.Envelope "Security check failed or not allowed to upload"
// @Failure 500 {object} response.Envelope "Storage failure"
// @Router /upload [post]
func Upload(orchestrator *uploadService.Orchestrator, maxRequestSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeResult(w, uploadService.Failed(apperror.FileTooLarge(err)))
				return
			}
			writeResult(w, uploadService.Failed(apperror.MissingFile(err)))
			return
		}
		defer r.MultipartForm.RemoveAll()

		form := r.MultipartForm
		res := orchestrator.Handle(r.Context(), uploadService.Request{
			Nonce:        formValue(form, FieldNonce),
			Actor:        middleware.GetActorFromContext(r.Context()),
			File:         filePart(form),
			SessionToken: formValue(form, FieldUUID),
			ChunkIndex:   formValue(form, FieldChunkIndex),
			TotalChunks:  formValue(form, FieldTotalChunks),
			OrigType:     formValue(form, FieldOrigType),
		})

		writeResult(w, res)
	}
}

func writeResult(w http.ResponseWriter, res uploadService.Result) {
	if err := response.WriteEnvelope(w, res.Status, res.Success, res.Data); err != nil {
		slog.Warn("Failed to write upload response", slog.String("error", err.Error()))
	}
}

// Nonce issues an upload nonce for the current actor
// @Summary Issue upload nonce
// @Description Returns a short-lived anti-forgery token bound to the caller. Anonymous callers receive one too, but uploads still require the upload_files capability.
// @Tags upload
// @Produce json
// @Success 200 {object} types.NonceResponse "Nonce issued"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /nonce [get]
func Nonce(nonces *auth.Nonces) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.GetActorFromContext(r.Context())

		token, expiresAt, err := nonces.Issue(actor.ID)
		if err != nil {
			slog.Error("Failed to issue nonce", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to issue nonce")))
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		response.WriteJSON(w, http.StatusOK, types.NonceResponse{
			Nonce:     token,
			ExpiresAt: expiresAt.Unix(),
		})
	}
}
