package customize

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/impresiones-magicas/storefront/pkg/config"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

// Uploader validates customization artwork and converts it to a data URL.
// The MIME type is sniffed from content, not taken from the client's header.
type Uploader struct {
	maxBytes int64
	allowed  []string
}

// NewUploader builds the artwork validator from config.
func NewUploader(cfg config.UploadConfig) *Uploader {
	allowed := make([]string, 0, len(cfg.AllowedMimes))
	for _, mime := range cfg.AllowedMimes {
		clean := strings.ToLower(strings.TrimSpace(mime))
		if clean != "" {
			allowed = append(allowed, clean)
		}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &Uploader{maxBytes: maxBytes, allowed: allowed}
}

// DataURL validates the uploaded bytes and returns the inline encoding. On
// any rejection it returns a MEDIA_ERROR with a user-facing message and no
// partial result.
func (u *Uploader) DataURL(content []byte) (string, error) {
	if len(content) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeMedia, "uploaded file is empty")
	}
	if int64(len(content)) > u.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeMedia,
			fmt.Sprintf("file exceeds the %s limit", humanSize(u.maxBytes)))
	}

	detected := mimetype.Detect(content)
	if !u.mimeAllowed(detected) {
		return "", pkgerrors.New(pkgerrors.CodeMedia,
			fmt.Sprintf("file type %s is not supported; use %s", detected.String(), humanReadableList(u.allowed)))
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	return fmt.Sprintf("data:%s;base64,%s", detected.String(), encoded), nil
}

func (u *Uploader) mimeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range u.allowed {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func humanSize(bytes int64) string {
	const mib = 1024 * 1024
	if bytes%mib == 0 {
		return fmt.Sprintf("%d MB", bytes/mib)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
