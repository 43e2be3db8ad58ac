// Package widget renders the drop zone markup for a page: a div carrying its
// own JSON configuration, inline styles and the optional manual upload button.
package widget

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Options are the recognised widget settings.
type Options struct {
	ID       string `validate:"required,max=32,widgetid"`
	Callback string `validate:"max=2048"`
	Title    string `validate:"max=200"`
	Desc     string `validate:"max=500"`

	BorderWidth  string `validate:"max=64,cssvalue"`
	BorderStyle  string `validate:"max=64,cssvalue"`
	BorderColor  string `validate:"max=64,cssvalue"`
	Background   string `validate:"max=256,cssvalue"`
	MarginBottom string `validate:"max=64,cssvalue"`

	// MaxFileSize is in bytes.
	MaxFileSize      int64 `validate:"min=0"`
	RemoveLinks      bool
	Clickable        bool
	AcceptedFiles    string `validate:"max=512"`
	MaxFiles         int    `validate:"min=0"`
	MaxFilesAlert    string `validate:"max=200"`
	AutoProcess      bool
	UploadButtonText string `validate:"max=100"`
	DomID            string `validate:"max=64"`

	ResizeWidth     int     `validate:"min=0"`
	ResizeHeight    int     `validate:"min=0"`
	ResizeQuality   float64 `validate:"gte=0,lte=1"`
	ResizeMethod    string  `validate:"oneof=contain crop"`
	ThumbnailWidth  int     `validate:"min=0"`
	ThumbnailHeight int     `validate:"min=0"`
	ThumbnailMethod string  `validate:"oneof=contain crop"`

	Chunking  bool
	ChunkSize int64 `validate:"min=0"`
}

// DefaultOptions returns the settings used for anything the page omits.
func DefaultOptions(maxFileSize int64) Options {
	return Options{
		ID:               randomID(),
		MaxFileSize:      maxFileSize,
		Clickable:        true,
		MaxFilesAlert:    "Max file limit exceeded.",
		AutoProcess:      true,
		UploadButtonText: "Upload",
		ResizeQuality:    0.8,
		ResizeMethod:     "contain",
		ThumbnailWidth:   120,
		ThumbnailHeight:  120,
		ThumbnailMethod:  "crop",
		Chunking:         true,
		ChunkSize:        2 << 20,
	}
}

func randomID() string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "dz"
	}
	return hex.EncodeToString(b)
}

var (
	widgetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	cssValuePattern = regexp.MustCompile(`^[A-Za-z0-9#%.,()\s/-]*$`)
	handlerPattern  = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("widgetid", func(fl validator.FieldLevel) bool {
		return widgetIDPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("cssvalue", func(fl validator.FieldLevel) bool {
		return cssValuePattern.MatchString(fl.Field().String())
	})
	return v
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	_, err := ParseCallbacks(o.Callback)
	return err
}

// FromQuery overlays query parameters on defaults. Keys are accepted with
// dashes or underscores (max-file-size, max_file_size).
func FromQuery(q url.Values, defaults Options) (Options, error) {
	o := defaults
	get := func(key string) (string, bool) {
		for _, k := range []string{key, strings.ReplaceAll(key, "-", "_")} {
			if vs, ok := q[k]; ok && len(vs) > 0 {
				return strings.TrimSpace(vs[0]), true
			}
		}
		return "", false
	}

	var errs []string
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := get(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = n
		}
	}
	int64v := func(key string, dst *int64) {
		if v, ok := get(key); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = n
		}
	}

	str("id", &o.ID)
	str("callback", &o.Callback)
	str("title", &o.Title)
	str("desc", &o.Desc)
	str("border-width", &o.BorderWidth)
	str("border-style", &o.BorderStyle)
	str("border-color", &o.BorderColor)
	str("background", &o.Background)
	str("margin-bottom", &o.MarginBottom)
	int64v("max-file-size", &o.MaxFileSize)
	boolean("remove-links", &o.RemoveLinks)
	boolean("clickable", &o.Clickable)
	str("accepted-files", &o.AcceptedFiles)
	integer("max-files", &o.MaxFiles)
	str("max-files-alert", &o.MaxFilesAlert)
	boolean("auto-process", &o.AutoProcess)
	str("upload-button-text", &o.UploadButtonText)
	str("dom-id", &o.DomID)
	integer("resize-width", &o.ResizeWidth)
	integer("resize-height", &o.ResizeHeight)
	if v, ok := get("resize-quality"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, "resize-quality")
		} else {
			o.ResizeQuality = f
		}
	}
	str("resize-method", &o.ResizeMethod)
	integer("thumbnail-width", &o.ThumbnailWidth)
	integer("thumbnail-height", &o.ThumbnailHeight)
	str("thumbnail-method", &o.ThumbnailMethod)
	boolean("chunking", &o.Chunking)
	int64v("chunk-size", &o.ChunkSize)

	if len(errs) > 0 {
		return o, fmt.Errorf("invalid widget options: %s", strings.Join(errs, ", "))
	}
	return o, o.Validate()
}

// Events a callback may be registered for.
var callbackEvents = map[string]struct{}{
	"addedfile": {}, "addedfiles": {}, "removedfile": {}, "thumbnail": {},
	"error": {}, "errormultiple": {}, "processing": {}, "processingmultiple": {},
	"uploadprogress": {}, "totaluploadprogress": {}, "sending": {}, "sendingmultiple": {},
	"success": {}, "successmultiple": {}, "canceled": {}, "canceledmultiple": {},
	"complete": {}, "completemultiple": {}, "maxfilesexceeded": {}, "maxfilesreached": {},
	"queuecomplete": {}, "reset": {}, "drop": {}, "dragstart": {}, "dragend": {},
	"dragenter": {}, "dragover": {}, "dragleave": {},
}

// ParseCallbacks reads "event: handlerName, event2: other.handler" into a
// map. Handlers are global function names resolved in the browser; code is
// never accepted.
func ParseCallbacks(raw string) (map[string]string, error) {
	callbacks := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return callbacks, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		event, handler, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("callback %q: expected event:handler", entry)
		}
		event = strings.ToLower(strings.TrimSpace(event))
		handler = strings.TrimSpace(handler)

		if _, known := callbackEvents[event]; !known {
			return nil, fmt.Errorf("callback %q: unknown event", event)
		}
		if !handlerPattern.MatchString(handler) {
			return nil, fmt.Errorf("callback %q: handler must be a function name", event)
		}
		callbacks[event] = handler
	}
	return callbacks, nil
}
