package whatsapp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewMedia(t *testing.T) {
	m, err := NewMedia(writeFile(t, "offer.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != Visual || m.MIME != "image/png" {
		t.Errorf("png: kind %v mime %q", m.Kind, m.MIME)
	}

	m, err = NewMedia(writeFile(t, "brochure.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")))
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != Document {
		t.Errorf("pdf kind = %v", m.Kind)
	}
	if !filepath.IsAbs(m.Path) {
		t.Errorf("path %q not absolute", m.Path)
	}
}

func TestNewMediaDisguisedImage(t *testing.T) {
	m, err := NewMedia(writeFile(t, "notes.jpg", []byte("just some text, not a picture")))
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != Document {
		t.Errorf("text content with .jpg name should go as a document, got %v", m.Kind)
	}
}

func TestNewMediaRejects(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.png") }, "not found"},
		{"directory", func(t *testing.T) string { return t.TempDir() }, "directory"},
		{"extension", func(t *testing.T) string { return writeFile(t, "run.exe", []byte("MZ")) }, "unsupported media format"},
		{"too large", func(t *testing.T) string {
			path := writeFile(t, "big.pdf", nil)
			if err := os.Truncate(path, MaxMediaSize+1); err != nil {
				t.Fatal(err)
			}
			return path
		}, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMedia(tt.path(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
