package policy

import (
	"path/filepath"
	"strings"
)

type Verdict int

const (
	Allowed Verdict = iota
	Denied
)

func (v Verdict) String() string {
	if v == Allowed {
		return "allowed"
	}
	return "denied"
}

type Decision struct {
	Verdict   Verdict
	Extension string
	Reason    string
}

func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

// dangerousExtensions are refused even when the allow-list contains them.
var dangerousExtensions = map[string]struct{}{
	// server-side scripts
	"php": {}, "php3": {}, "php4": {}, "php5": {}, "php7": {}, "php8": {},
	"phtml": {}, "phar": {}, "pht": {}, "phps": {}, "shtml": {}, "shtm": {},
	"asp": {}, "aspx": {}, "ascx": {}, "ashx": {}, "asmx": {}, "cer": {},
	"jsp": {}, "jspx": {}, "cfm": {}, "cfml": {},
	// interpreters and shells
	"cgi": {}, "pl": {}, "py": {}, "pyc": {}, "rb": {},
	"sh": {}, "bash": {}, "zsh": {}, "ksh": {}, "csh": {}, "fish": {},
	// web scripts
	"js": {}, "mjs": {}, "vbs": {}, "vbe": {}, "wsf": {}, "wsh": {}, "hta": {},
	"html": {}, "htm": {}, "xhtml": {}, "svg": {}, "svgz": {},
	// binaries
	"exe": {}, "com": {}, "bat": {}, "cmd": {}, "msi": {}, "dll": {}, "scr": {},
	"jar": {}, "ps1": {}, "psm1": {}, "app": {}, "elf": {}, "so": {},
	// server config overrides
	"htaccess": {}, "htpasswd": {}, "ini": {}, "config": {},
}

// defaultMimeTypes mirrors the host's allowed upload types.
var defaultMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jpe":  "image/jpeg",
	"gif":  "image/gif",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"avif": "image/avif",
	"heic": "image/heic",
	"ico":  "image/x-icon",

	"asf":  "video/x-ms-asf",
	"wmv":  "video/x-ms-wmv",
	"avi":  "video/avi",
	"mov":  "video/quicktime",
	"qt":   "video/quicktime",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"ogv":  "video/ogg",
	"webm": "video/webm",
	"3gp":  "video/3gpp",
	"3g2":  "video/3gpp2",

	"txt": "text/plain",
	"csv": "text/csv",
	"tsv": "text/tab-separated-values",
	"ics": "text/calendar",
	"rtx": "text/richtext",
	"vtt": "text/vtt",
	"srt": "application/x-subrip",

	"mp3":  "audio/mpeg",
	"m4a":  "audio/mpeg",
	"m4b":  "audio/mpeg",
	"aac":  "audio/aac",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"flac": "audio/flac",
	"mid":  "audio/midi",
	"midi": "audio/midi",
	"wma":  "audio/x-ms-wma",

	"rtf":     "application/rtf",
	"pdf":     "application/pdf",
	"doc":     "application/msword",
	"docx":    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":     "application/vnd.ms-excel",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":     "application/vnd.ms-powerpoint",
	"pptx":    "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":     "application/vnd.oasis.opendocument.text",
	"ods":     "application/vnd.oasis.opendocument.spreadsheet",
	"odp":     "application/vnd.oasis.opendocument.presentation",
	"key":     "application/vnd.apple.keynote",
	"numbers": "application/vnd.apple.numbers",
	"pages":   "application/vnd.apple.pages",
	"psd":     "application/octet-stream",
	"xcf":     "application/octet-stream",
	"zip":     "application/zip",
	"gz":      "application/x-gzip",
	"gzip":    "application/x-gzip",
	"tar":     "application/x-tar",
	"7z":      "application/x-7z-compressed",
	"rar":     "application/rar",
}

// Policy classifies filenames against the dangerous set and an allow-list.
type Policy struct {
	allowed map[string]string
}

// New builds a policy allowing the given extensions. An empty list allows
// every extension of the default MIME table.
func New(allowedExtensions []string) *Policy {
	allowed := make(map[string]string)

	if len(allowedExtensions) == 0 {
		for ext, mime := range defaultMimeTypes {
			allowed[ext] = mime
		}
		return &Policy{allowed: allowed}
	}

	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		mime, ok := defaultMimeTypes[ext]
		if !ok {
			mime = "application/octet-stream"
		}
		allowed[ext] = mime
	}

	return &Policy{allowed: allowed}
}

// Extension returns the lowercase extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsDangerous reports whether ext belongs to the fixed refusal set.
func IsDangerous(ext string) bool {
	_, ok := dangerousExtensions[strings.ToLower(ext)]
	return ok
}

func (p *Policy) Classify(filename string) Decision {
	ext := Extension(filename)

	switch {
	case ext == "":
		return Decision{Verdict: Denied, Reason: "file has no extension"}
	case IsDangerous(ext):
		return Decision{Verdict: Denied, Extension: ext, Reason: "executable or script extension"}
	}

	if _, ok := p.allowed[ext]; !ok {
		return Decision{Verdict: Denied, Extension: ext, Reason: "extension not in allowed upload types"}
	}

	return Decision{Verdict: Allowed, Extension: ext}
}

// IsAllowedExtension reports whether ext passes Classify.
func (p *Policy) IsAllowedExtension(ext string) bool {
	return p.Classify("f." + ext).Allowed()
}

// MimeType returns the registered MIME type for an allowed extension.
func (p *Policy) MimeType(ext string) (string, bool) {
	mime, ok := p.allowed[strings.ToLower(ext)]
	return mime, ok
}
