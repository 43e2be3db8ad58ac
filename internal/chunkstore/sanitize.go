package chunkstore

import (
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/policy"
)

const fallbackFilename = "unnamed-file"

var (
	tokenPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	dashRuns        = regexp.MustCompile(`-{2,}`)
	extPart         = regexp.MustCompile(`^[A-Za-z0-9]{2,5}$`)
)

// SanitizeToken validates a client supplied session token or owner id for
// use as a path component.
func SanitizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if !tokenPattern.MatchString(token) {
		return "", apperror.MalformedSession("Invalid upload session.", errors.New("token must match [A-Za-z0-9_-]{1,64}"))
	}
	return token, nil
}

// SanitizeFilename reduces a declared filename to a safe basename.
// Intermediate parts that look like script extensions get a trailing
// underscore so "shell.php.jpg" cannot be served as php.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return fallbackFilename
	}

	name = strings.ReplaceAll(name, " ", "-")
	name = unsafeFileChars.ReplaceAllString(name, "")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, ".-_")

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		for i := 1; i < len(parts)-1; i++ {
			if extPart.MatchString(parts[i]) && policy.IsDangerous(parts[i]) {
				parts[i] += "_"
			}
		}
		name = strings.Join(parts, ".")
	}

	if name == "" {
		return fallbackFilename
	}

	if len(name) > 200 {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:200-len(ext)] + ext
	}

	return name
}
