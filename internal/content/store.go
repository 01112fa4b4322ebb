// Package content manages the building/floor/theme/media documents the
// display network renders. Documents are schemaless JSON owned by the admin
// frontend; the server persists and redistributes them without interpreting
// more than the identifying fields.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"viewsync/internal/hub"
	"viewsync/internal/logging"
)

// ErrNotFound reports a missing building, floor or media entry.
var ErrNotFound = errors.New("content not found")

// Document is a schemaless content record.
type Document = map[string]any

// Store persists content documents under the data directory:
//
//	<dir>/buildings/<id>/building.json
//	<dir>/buildings/<id>/floors.json
//	<dir>/themes.json
//	<dir>/media/<kind>/...  with <dir>/media/<kind>.json metadata
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates a content store rooted at dir.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logging.OrNop(logger)}
}

func (s *Store) buildingsDir() string {
	return filepath.Join(s.dir, "buildings")
}

func (s *Store) buildingFile(id string) string {
	return filepath.Join(s.buildingsDir(), id, "building.json")
}

func (s *Store) floorsFile(id string) string {
	return filepath.Join(s.buildingsDir(), id, "floors.json")
}

func readJSON[T any](path string) (T, bool) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, false
	}
	return out, true
}

func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ListBuildings returns every building document, ordered by directory name.
func (s *Store) ListBuildings() []Document {
	entries, err := os.ReadDir(s.buildingsDir())
	if err != nil {
		return []Document{}
	}
	buildings := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if doc, ok := readJSON[Document](s.buildingFile(entry.Name())); ok {
			buildings = append(buildings, doc)
		}
	}
	return buildings
}

// GetBuilding returns one building document.
func (s *Store) GetBuilding(id string) (Document, error) {
	doc, ok := readJSON[Document](s.buildingFile(id))
	if !ok {
		return nil, fmt.Errorf("building %s: %w", id, ErrNotFound)
	}
	return doc, nil
}

// SaveBuilding creates or replaces a building document.
func (s *Store) SaveBuilding(id string, doc Document) error {
	doc["id"] = id
	return writeJSON(s.buildingFile(id), doc)
}

// DeleteBuilding removes a building and its floors.
func (s *Store) DeleteBuilding(id string) error {
	dir := filepath.Join(s.buildingsDir(), id)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("building %s: %w", id, ErrNotFound)
	}
	return os.RemoveAll(dir)
}

// ListFloors returns the floor documents of a building ordered by floor
// number. A building without a floors file has no floors.
func (s *Store) ListFloors(buildingID string) []Document {
	floors, ok := readJSON[[]Document](s.floorsFile(buildingID))
	if !ok {
		return []Document{}
	}
	return floors
}

func floorNumber(doc Document) (int, bool) {
	switch v := doc["floor"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// GetFloor returns one floor of a building.
func (s *Store) GetFloor(buildingID string, floor int) (Document, error) {
	for _, doc := range s.ListFloors(buildingID) {
		if n, ok := floorNumber(doc); ok && n == floor {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("building %s floor %d: %w", buildingID, floor, ErrNotFound)
}

// SaveFloor upserts one floor document, keeping the file sorted by floor
// number.
func (s *Store) SaveFloor(buildingID string, floor int, doc Document) error {
	doc["floor"] = floor
	floors := s.ListFloors(buildingID)

	replaced := false
	for i, existing := range floors {
		if n, ok := floorNumber(existing); ok && n == floor {
			floors[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		floors = append(floors, doc)
	}
	sort.SliceStable(floors, func(i, j int) bool {
		a, _ := floorNumber(floors[i])
		b, _ := floorNumber(floors[j])
		return a < b
	})
	return writeJSON(s.floorsFile(buildingID), floors)
}

// DeleteFloor removes one floor from a building.
func (s *Store) DeleteFloor(buildingID string, floor int) error {
	floors := s.ListFloors(buildingID)
	kept := floors[:0]
	found := false
	for _, doc := range floors {
		if n, ok := floorNumber(doc); ok && n == floor {
			found = true
			continue
		}
		kept = append(kept, doc)
	}
	if !found {
		return fmt.Errorf("building %s floor %d: %w", buildingID, floor, ErrNotFound)
	}
	return writeJSON(s.floorsFile(buildingID), kept)
}

func (s *Store) floorImagesDir(buildingID string) string {
	return filepath.Join(s.buildingsDir(), buildingID, "images")
}

// SaveFloorImage stores a floor plan image for one floor and records its
// path on the floor document, creating a minimal document when the floor
// has none yet. Returns the stored relative path.
func (s *Store) SaveFloorImage(buildingID string, floor int, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if filename != filepath.Base(filename) || !allowedImageExts[ext] {
		return "", fmt.Errorf("invalid image filename %q", filename)
	}
	if _, err := s.GetBuilding(buildingID); err != nil {
		return "", err
	}

	name := fmt.Sprintf("floor_%d%s", floor, ext)
	dir := s.floorImagesDir(buildingID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write floor image %s: %w", name, err)
	}

	// One image per floor: replace any prior upload with a different
	// extension.
	if entries, err := os.ReadDir(dir); err == nil {
		prefix := fmt.Sprintf("floor_%d.", floor)
		for _, entry := range entries {
			if entry.Name() != name && strings.HasPrefix(entry.Name(), prefix) {
				os.Remove(filepath.Join(dir, entry.Name()))
			}
		}
	}

	rel := "buildings/" + buildingID + "/images/" + name
	doc, err := s.GetFloor(buildingID, floor)
	if err != nil {
		doc = Document{"buildingId": buildingID}
	}
	doc["floorImage"] = rel
	doc["updatedAt"] = hub.Timestamp()
	if err := s.SaveFloor(buildingID, floor, doc); err != nil {
		return "", err
	}
	return rel, nil
}

// ReadFloorImage returns the stored floor plan bytes and content type.
func (s *Store) ReadFloorImage(buildingID string, floor int) ([]byte, string, error) {
	dir := s.floorImagesDir(buildingID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("building %s floor %d image: %w", buildingID, floor, ErrNotFound)
	}
	prefix := fmt.Sprintf("floor_%d.", floor)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, "", fmt.Errorf("building %s floor %d image: %w", buildingID, floor, ErrNotFound)
		}
		contentType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return data, contentType, nil
	}
	return nil, "", fmt.Errorf("building %s floor %d image: %w", buildingID, floor, ErrNotFound)
}

func (s *Store) themesFile() string {
	return filepath.Join(s.dir, "themes.json")
}

// defaultThemes is written on first read so fresh deployments render with
// the stock palette.
func defaultThemes() Document {
	return Document{
		"currentTheme": "default",
		"themes": map[string]any{
			"default": map[string]any{
				"id":   "default",
				"name": "Default",
				"colors": map[string]any{
					"primary":   "#256ef4",
					"bgMain":    "#f3f4f6",
					"bgCard":    "#ffffff",
					"textPrimary": "#111827",
				},
			},
		},
	}
}

// LoadThemes returns the theme configuration, seeding defaults when the
// file is missing.
func (s *Store) LoadThemes() Document {
	if doc, ok := readJSON[Document](s.themesFile()); ok {
		return doc
	}
	doc := defaultThemes()
	if err := writeJSON(s.themesFile(), doc); err != nil {
		s.logger.Warn("Failed to seed default themes: %v", err)
	}
	return doc
}

// SaveThemes replaces the theme configuration.
func (s *Store) SaveThemes(doc Document) error {
	return writeJSON(s.themesFile(), doc)
}
