package content

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"viewsync/internal/hub"
)

// MediaKind selects a media collection. The dashboard carousel and the PR
// (promotion) screen keep separate folders and metadata.
type MediaKind string

const (
	MediaDashboard MediaKind = "dashboard"
	MediaPR        MediaKind = "pr"
)

// ValidMediaKind reports whether kind names a known collection.
func ValidMediaKind(kind string) bool {
	return kind == string(MediaDashboard) || kind == string(MediaPR)
}

var allowedImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

type cachedMedia struct {
	contentType string
	data        []byte
}

// MediaLibrary scans media folders, keeps per-kind metadata in sync and
// serves file bytes through an LRU cache so the display wall does not hit
// disk for every image request.
type MediaLibrary struct {
	store *Store
	cache *lru.Cache[string, cachedMedia]
}

// NewMediaLibrary creates a library over the store's media directories.
func NewMediaLibrary(store *Store, cacheSize int) (*MediaLibrary, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, cachedMedia](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("media cache: %w", err)
	}
	return &MediaLibrary{store: store, cache: cache}, nil
}

func (m *MediaLibrary) mediaDir(kind MediaKind) string {
	return filepath.Join(m.store.dir, "media", string(kind))
}

func (m *MediaLibrary) metadataFile(kind MediaKind) string {
	return filepath.Join(m.store.dir, "media", string(kind)+".json")
}

type mediaConfig struct {
	Images []Document `json:"images"`
}

func (m *MediaLibrary) loadConfig(kind MediaKind) mediaConfig {
	cfg, ok := readJSON[mediaConfig](m.metadataFile(kind))
	if !ok {
		return mediaConfig{Images: []Document{}}
	}
	if cfg.Images == nil {
		cfg.Images = []Document{}
	}
	return cfg
}

// List scans the media folder, reconciles the metadata file (new files are
// added, removed files dropped) and returns the image entries in order.
func (m *MediaLibrary) List(kind MediaKind) ([]Document, error) {
	cfg := m.loadConfig(kind)

	known := make(map[string]bool, len(cfg.Images))
	for _, img := range cfg.Images {
		if name, ok := img["filename"].(string); ok {
			known[name] = true
		}
	}

	present := make(map[string]bool)
	entries, err := os.ReadDir(m.mediaDir(kind))
	if err == nil {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !allowedImageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			present[name] = true
			if known[name] {
				continue
			}
			cfg.Images = append(cfg.Images, Document{
				"id":         len(cfg.Images) + 1,
				"filename":   name,
				"path":       "media/" + string(kind) + "/" + name,
				"name":       hub.Timestamp(),
				"order":      len(cfg.Images) + 1,
				"created_at": hub.Timestamp(),
			})
		}
	}

	kept := cfg.Images[:0]
	for _, img := range cfg.Images {
		name, _ := img["filename"].(string)
		if present[name] {
			kept = append(kept, img)
		}
	}
	cfg.Images = kept

	if err := writeJSON(m.metadataFile(kind), cfg); err != nil {
		return nil, err
	}
	return cfg.Images, nil
}

// SaveOrder replaces the metadata entries (names, ordering) after an admin
// edit. Raw payloads come straight from the frontend.
func (m *MediaLibrary) SaveOrder(kind MediaKind, images []Document) error {
	return writeJSON(m.metadataFile(kind), mediaConfig{Images: images})
}

// Read returns the bytes and content type for a media file, serving from
// cache when possible. The filename is constrained to the kind's folder.
func (m *MediaLibrary) Read(kind MediaKind, filename string) ([]byte, string, error) {
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return nil, "", fmt.Errorf("media %s/%s: %w", kind, filename, ErrNotFound)
	}

	key := string(kind) + "/" + filename
	if entry, ok := m.cache.Get(key); ok {
		return entry.data, entry.contentType, nil
	}

	path := filepath.Join(m.mediaDir(kind), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("media %s/%s: %w", kind, filename, ErrNotFound)
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	m.cache.Add(key, cachedMedia{contentType: contentType, data: data})
	return data, contentType, nil
}

// Store writes a new media file and invalidates its cache entry.
func (m *MediaLibrary) Store(kind MediaKind, filename string, data []byte) error {
	if filename != filepath.Base(filename) || !allowedImageExts[strings.ToLower(filepath.Ext(filename))] {
		return fmt.Errorf("invalid media filename %q", filename)
	}
	dir := m.mediaDir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write media %s: %w", filename, err)
	}
	m.cache.Remove(string(kind) + "/" + filename)
	return nil
}

// Remove deletes a media file, its metadata entry and its cache entry.
func (m *MediaLibrary) Remove(kind MediaKind, filename string) error {
	path := filepath.Join(m.mediaDir(kind), filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("media %s/%s: %w", kind, filename, ErrNotFound)
	}
	m.cache.Remove(string(kind) + "/" + filename)

	cfg := m.loadConfig(kind)
	kept := cfg.Images[:0]
	for _, img := range cfg.Images {
		if name, _ := img["filename"].(string); name != filename {
			kept = append(kept, img)
		}
	}
	cfg.Images = kept
	return writeJSON(m.metadataFile(kind), cfg)
}
