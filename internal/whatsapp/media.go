package whatsapp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxMediaSize is WhatsApp's attachment limit.
const MaxMediaSize = 64 << 20

type MediaKind int

const (
	// Visual media goes through "Photos & videos" and gets a preview.
	Visual MediaKind = iota
	Document
)

func (k MediaKind) String() string {
	if k == Visual {
		return "photo/video"
	}
	return "document"
}

var mediaExtensions = map[string]MediaKind{
	".jpg": Visual, ".jpeg": Visual, ".png": Visual, ".gif": Visual,
	".mp4": Visual, ".mov": Visual, ".3gp": Visual,
	".pdf": Document, ".docx": Document, ".doc": Document,
	".txt": Document, ".xlsx": Document,
}

type Media struct {
	Path string // absolute
	Kind MediaKind
	MIME string
	Size int64
}

// NewMedia validates a media file: it must exist, fit the size limit and have
// a supported extension. A file whose content is not really an image or
// video is sent as a document.
func NewMedia(path string) (*Media, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute media path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("media file not found: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media path is a directory: %s", path)
	}
	if info.Size() > MaxMediaSize {
		return nil, fmt.Errorf("media file too large: %.2fMB (max 64MB)", float64(info.Size())/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(abs))
	kind, ok := mediaExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported media format %q; allowed: %s", ext, allowedExtensions())
	}

	mtype, err := mimetype.DetectFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}
	if kind == Visual && !isVisualMIME(mtype.String()) {
		kind = Document
	}

	return &Media{Path: abs, Kind: kind, MIME: mtype.String(), Size: info.Size()}, nil
}

func isVisualMIME(m string) bool {
	return strings.HasPrefix(m, "image/") || strings.HasPrefix(m, "video/")
}

func allowedExtensions() string {
	order := []string{".jpg", ".jpeg", ".png", ".gif", ".mp4", ".mov", ".3gp", ".pdf", ".docx", ".doc", ".txt", ".xlsx"}
	return strings.Join(order, ", ")
}
