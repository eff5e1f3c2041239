package software

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// Supported file extensions
var supportedFormats = []string{".wav", ".wave"}

var errUnsupportedScheme = errors.New("unsupported media url scheme")

// resolvePath turns a media URL into a local file path.
// Bare paths and file:// URLs are accepted.
func resolvePath(raw string) (string, error) {
	if raw == "" {
		return "", domain.ErrNoSource
	}

	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse media url: %w", err)
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("%w: %s", errUnsupportedScheme, u.Scheme)
		}
		path = u.Path
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range supportedFormats {
		if ext == supported {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
}

// readTitle returns the embedded title of a file, or its base name without
// extension when it carries no tags.
func readTitle(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	file, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		return fallback
	}

	title := strings.TrimSpace(metadata.Title())
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" && title != "" {
		title = artist + " - " + title
	}
	if title == "" {
		return fallback
	}
	return title
}
