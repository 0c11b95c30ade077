package customize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/impresiones-magicas/storefront/pkg/config"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

func defaultUploader() *Uploader {
	return NewUploader(config.UploadConfig{
		MaxBytes:     5 * 1024 * 1024,
		AllowedMimes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	})
}

// minimal valid magic prefixes; mimetype sniffs from the first bytes
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	gifHeader  = []byte("GIF89a")
)

func TestDataURLAcceptsSupportedImages(t *testing.T) {
	uploader := defaultUploader()

	cases := []struct {
		name    string
		content []byte
		prefix  string
	}{
		{name: "png", content: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 32)...), prefix: "data:image/png;base64,"},
		{name: "jpeg", content: append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0}, 32)...), prefix: "data:image/jpeg;base64,"},
		{name: "gif", content: append(append([]byte{}, gifHeader...), bytes.Repeat([]byte{0}, 32)...), prefix: "data:image/gif;base64,"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url, err := uploader.DataURL(tc.content)
			if err != nil {
				t.Fatalf("expected acceptance: %v", err)
			}
			if url == "" || !strings.HasPrefix(url, tc.prefix) {
				t.Fatalf("unexpected data url %.60q", url)
			}
		})
	}
}

func TestDataURLRejectsOversizedFile(t *testing.T) {
	uploader := defaultUploader()

	oversized := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0}, 6*1024*1024)...)
	url, err := uploader.DataURL(oversized)
	if url != "" {
		t.Fatalf("oversized upload must not produce a data url")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeMedia) {
		t.Fatalf("expected media error, got %v", err)
	}
	if typed := pkgerrors.As(err); !strings.Contains(typed.Message(), "5 MB") {
		t.Fatalf("expected oversized message, got %q", typed.Message())
	}
}

func TestDataURLRejectsUnsupportedType(t *testing.T) {
	uploader := defaultUploader()

	url, err := uploader.DataURL([]byte("%PDF-1.4 not an image"))
	if url != "" {
		t.Fatalf("unsupported upload must not produce a data url")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeMedia) {
		t.Fatalf("expected media error, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() == "" {
		t.Fatal("rejection must carry a descriptive message")
	}
}

func TestDataURLRejectsEmptyFile(t *testing.T) {
	uploader := defaultUploader()
	if _, err := uploader.DataURL(nil); !pkgerrors.IsCode(err, pkgerrors.CodeMedia) {
		t.Fatalf("expected media error for empty upload, got %v", err)
	}
}

func TestLookupPrintAreaFamilies(t *testing.T) {
	cases := map[string]PrintArea{
		"Premium Hoodie Black":  printAreas["hoodie"],
		"Classic Cotton Shirt":  printAreas["shirt"],
		"Ceramic Mug 11oz":      printAreas["mug"],
		"Sticker Pack Deluxe":   printAreas["default"],
		"MUG of the year":       printAreas["mug"],
		"baseball cap snapback": printAreas["default"],
	}
	for name, want := range cases {
		if got := LookupPrintArea(name); got != want {
			t.Fatalf("product %q resolved to %+v, want %+v", name, got, want)
		}
	}
}

func TestPrintAreasStayInsideUnitBox(t *testing.T) {
	for family, area := range printAreas {
		if area.Left+area.Width > 100 || area.Top+area.Height > 100 {
			t.Fatalf("print area %s escapes the bounding box: %+v", family, area)
		}
		if area.Left < 0 || area.Top < 0 || area.Width <= 0 || area.Height <= 0 {
			t.Fatalf("print area %s malformed: %+v", family, area)
		}
	}
}
