// Package device adapts the local machine's file system and capture tools
// into the document sources used by the verification wizard.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/covercare/covercare-cli/verification"
)

var (
	// ErrCancelled is returned when the user backs out of a picker without
	// choosing anything.
	ErrCancelled = errors.New("document selection cancelled")
	// ErrUnsupportedDocument is returned for files that are not images.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// ImageExtensions lists the file extensions offered by the document picker.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".heic"}

// sniffable maps extensions to the content type their bytes must carry.
// HEIC is not recognised by content sniffing and is accepted by extension.
var sniffable = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Picker returns a document chosen by the user. Implementations return
// ErrCancelled when nothing was chosen.
type Picker interface {
	Pick(ctx context.Context) (*verification.Document, error)
}

// Library turns local image paths into document references.
type Library struct {
	// StartDir is where interactive pickers open.
	StartDir string
}

// Open resolves path to a document reference. An empty path means the user
// cancelled and yields ErrCancelled.
func (l Library) Open(path string) (*verification.Document, error) {
	return openImage(path, verification.SourceLibrary)
}

// Dir returns the directory pickers should open in.
func (l Library) Dir() string {
	if l.StartDir != "" {
		return expandHome(l.StartDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func openImage(path string, source verification.DocumentSource) (*verification.Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrCancelled
	}
	path = expandHome(path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving document path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnsupportedDocument, filepath.Base(abs))
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if !isImageExt(ext) {
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedDocument, ext, strings.Join(ImageExtensions, ", "))
	}
	if want, ok := sniffable[ext]; ok {
		got, err := sniff(abs)
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, fmt.Errorf("%w: %s has content type %s", ErrUnsupportedDocument, filepath.Base(abs), got)
		}
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return &verification.Document{
		URI:    u.String(),
		Name:   filepath.Base(abs),
		Source: source,
	}, nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening document: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading document: %w", err)
	}
	ct := http.DetectContentType(head[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}

func isImageExt(ext string) bool {
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
