package widget

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

//go:embed assets/dropzone-init.js
var InitScript []byte

const loginNote = "Please login to upload files."

// Context is the per-request state the markup depends on.
type Context struct {
	UploadURL string
	Nonce     string
	LoggedIn  bool
}

// Config is serialised into the element's data-config attribute and read by
// the init script, one object per widget.
type Config struct {
	UploadURL       string            `json:"upload_url"`
	Nonce           string            `json:"nonce"`
	IsUserLoggedIn  bool              `json:"is_user_logged_in"`
	ID              string            `json:"id"`
	Callbacks       map[string]string `json:"callbacks"`
	Title           string            `json:"title"`
	Desc            string            `json:"desc"`
	MaxFileSize     *float64          `json:"max_file_size"`
	RemoveLinks     bool              `json:"remove_links"`
	Clickable       bool              `json:"clickable"`
	AcceptedFiles   *string           `json:"accepted_files"`
	MaxFiles        *int              `json:"max_files"`
	MaxFilesAlert   string            `json:"max_files_alert"`
	AutoProcess     bool              `json:"auto_process"`
	DomID           string            `json:"dom_id"`
	ResizeWidth     *int              `json:"resize_width"`
	ResizeHeight    *int              `json:"resize_height"`
	ResizeQuality   float64           `json:"resize_quality"`
	ResizeMethod    string            `json:"resize_method"`
	ThumbnailWidth  int               `json:"thumbnail_width"`
	ThumbnailHeight int               `json:"thumbnail_height"`
	ThumbnailMethod string            `json:"thumbnail_method"`
	Chunking        bool              `json:"chunking"`
	ChunkSize       int64             `json:"chunk_size"`
}

func optionalInt(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

// megabytes converts to the unit Dropzone expects, which uses a base of 1000.
func megabytes(n int64) *float64 {
	if n <= 0 {
		return nil
	}
	mb := float64(n) / 1e6
	return &mb
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BuildConfig derives the client configuration. Anonymous visitors see the
// login note instead of the description.
func BuildConfig(o Options, c Context) (Config, error) {
	callbacks, err := ParseCallbacks(o.Callback)
	if err != nil {
		return Config{}, err
	}

	desc := o.Desc
	if !c.LoggedIn {
		desc = loginNote
	}

	return Config{
		UploadURL:       c.UploadURL,
		Nonce:           c.Nonce,
		IsUserLoggedIn:  c.LoggedIn,
		ID:              o.ID,
		Callbacks:       callbacks,
		Title:           o.Title,
		Desc:            desc,
		MaxFileSize:     megabytes(o.MaxFileSize),
		RemoveLinks:     o.RemoveLinks,
		Clickable:       o.Clickable,
		AcceptedFiles:   optionalString(o.AcceptedFiles),
		MaxFiles:        optionalInt(o.MaxFiles),
		MaxFilesAlert:   o.MaxFilesAlert,
		AutoProcess:     o.AutoProcess,
		DomID:           o.DomID,
		ResizeWidth:     optionalInt(o.ResizeWidth),
		ResizeHeight:    optionalInt(o.ResizeHeight),
		ResizeQuality:   o.ResizeQuality,
		ResizeMethod:    o.ResizeMethod,
		ThumbnailWidth:  o.ThumbnailWidth,
		ThumbnailHeight: o.ThumbnailHeight,
		ThumbnailMethod: o.ThumbnailMethod,
		Chunking:        o.Chunking,
		ChunkSize:       o.ChunkSize,
	}, nil
}

var (
	minifySymbols   = regexp.MustCompile(`\s*([{}|:;,])\s*`)
	minifySemicolon = regexp.MustCompile(`;}`)
	minifySpaces    = regexp.MustCompile(`\s\s+`)
)

// MinifyCSS strips whitespace around punctuation and trailing semicolons.
func MinifyCSS(css string) string {
	css = minifySymbols.ReplaceAllString(css, "$1")
	css = minifySemicolon.ReplaceAllString(css, "}")
	css = minifySpaces.ReplaceAllString(css, " ")
	return strings.TrimSpace(css)
}

// Stylesheet builds the widget's inline CSS. Option values were checked by
// the cssvalue rule.
func Stylesheet(o Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, ".dropzone-%s {\n", o.ID)
	for _, decl := range []struct{ prop, value string }{
		{"border-width", o.BorderWidth},
		{"border-style", o.BorderStyle},
		{"border-color", o.BorderColor},
		{"background", o.Background},
		{"margin-bottom", o.MarginBottom},
	} {
		if decl.value != "" {
			fmt.Fprintf(&b, "  %s: %s;\n", decl.prop, decl.value)
		}
	}
	b.WriteString("}\n")

	if o.ThumbnailWidth > 0 && o.ThumbnailHeight > 0 {
		fmt.Fprintf(&b, ".dropzone-%s .dz-preview .dz-image {\n  width: 100%%;\n  max-width: %dpx;\n  height: auto;\n  max-height: %dpx;\n}\n",
			o.ID, o.ThumbnailWidth, o.ThumbnailHeight)
	}
	return MinifyCSS(b.String())
}

var markup = template.Must(template.New("widget").Parse(
	`<div class="dropzone dropzone-{{.ID}}" id="wp-dz-{{.ID}}" data-config="{{.ConfigJSON}}">` +
		`{{if or .Title .Desc}}<div class="dz-message">` +
		`<h3 class="dropzone-title">{{.Title}}</h3>` +
		`<p class="dropzone-note">{{.Desc}}</p>` +
		`<div class="dropzone-mobile-trigger needsclick"></div>` +
		`</div>{{end}}</div>` +
		`<style>{{.CSS}}</style>` +
		`{{if not .AutoProcess}}<button type="button" class="process-upload" id="process-{{.ID}}">{{.ButtonText}}</button>{{end}}`,
))

// Render returns the widget fragment.
func Render(o Options, c Context) (template.HTML, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}

	cfg, err := BuildConfig(o, c)
	if err != nil {
		return "", err
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode widget config: %w", err)
	}

	var buf bytes.Buffer
	err = markup.Execute(&buf, struct {
		ID          string
		ConfigJSON  string
		Title       string
		Desc        string
		CSS         template.CSS
		AutoProcess bool
		ButtonText  string
	}{
		ID:          o.ID,
		ConfigJSON:  string(configJSON),
		Title:       o.Title,
		Desc:        cfg.Desc,
		CSS:         template.CSS(Stylesheet(o)),
		AutoProcess: o.AutoProcess,
		ButtonText:  o.UploadButtonText,
	})
	if err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return template.HTML(buf.String()), nil
}
