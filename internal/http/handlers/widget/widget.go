package widget

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/dropzone-service/internal/auth"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
	"github.com/princekumarofficial/dropzone-service/internal/widget"
)

const initScriptPath = "/assets/dropzone-init.js"

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Upload</title>
<link rel="stylesheet" href="{{.CSS}}">
</head>
<body>
{{.Widget}}
<script src="{{.JS}}"></script>
<script src="{{.Init}}"></script>
</body>
</html>
`))

// Render serves the drop zone for the current visitor
// @Summary Render upload widget
// @Description Renders the drop zone configured by query options (id, callback, title, desc, max-file-size, remove-links, clickable, accepted-files, max-files, max-files-alert, auto-process, upload-button-text, dom-id, resize-*, thumbnail-*, border-*, background, margin-bottom). With fragment=true only the widget markup is returned.
// @Tags widget
// @Produce html
// @Param id query string false "Widget id"
// @Param fragment query bool false "Return only the widget markup"
// @Success 200 {string} string "Widget HTML"
// @Failure 400 {object} response.Response "Invalid widget options"
// @Router /widget [get]
func Render(nonces *auth.Nonces, uploadCfg config.Upload, widgetCfg config.Widget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := widget.FromQuery(r.URL.Query(), widget.DefaultOptions(uploadCfg.MaxFileSize))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		actor := middleware.GetActorFromContext(r.Context())
		nonce, _, err := nonces.Issue(actor.ID)
		if err != nil {
			slog.Error("Failed to issue widget nonce", slog.String("error", err.Error()))
			http.Error(w, "failed to render widget", http.StatusInternalServerError)
			return
		}

		fragment, err := widget.Render(opts, widget.Context{
			UploadURL: widgetCfg.UploadPath,
			Nonce:     nonce,
			LoggedIn:  actor.LoggedIn(),
		})
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		if r.URL.Query().Get("fragment") == "true" {
			w.Write([]byte(fragment))
			return
		}

		err = page.Execute(w, struct {
			CSS, JS, Init string
			Widget        template.HTML
		}{
			CSS:    widgetCfg.DropzoneCSS,
			JS:     widgetCfg.DropzoneJS,
			Init:   initScriptPath,
			Widget: fragment,
		})
		if err != nil {
			slog.Warn("Failed to write widget page", slog.String("error", err.Error()))
		}
	}
}

// InitScript serves the script that boots every widget on a page.
func InitScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(widget.InitScript)
	}
}
