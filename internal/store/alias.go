// Package store persists registry state that must survive disconnects and
// process restarts.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"viewsync/internal/logging"
)

// ErrPersist wraps durable-write failures. Callers log and continue; alias
// changes are best-effort durable.
var ErrPersist = errors.New("alias persistence failed")

const aliasesKey = "aliases"

// FileAliasStore keeps the identity -> alias mapping in a JSON document on
// disk. The document may carry unrelated keys; only the "aliases" object is
// owned by this store and other keys are preserved across saves.
type FileAliasStore struct {
	path   string
	logger logging.Logger
}

// NewFileAliasStore returns a store rooted at path (usually client.json in
// the data dir).
func NewFileAliasStore(path string, logger logging.Logger) *FileAliasStore {
	return &FileAliasStore{path: path, logger: logging.OrNop(logger)}
}

// Load reads the alias mapping. A missing or malformed file yields an empty
// mapping, never an error. A flat identity -> alias document without the
// "aliases" wrapper is accepted for backward compatibility.
func (s *FileAliasStore) Load() (map[string]string, error) {
	aliases := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read %s: %v", s.path, err)
		}
		return aliases, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Malformed alias record %s: %v", s.path, err)
		return aliases, nil
	}

	if raw, ok := doc[aliasesKey]; ok {
		if err := json.Unmarshal(raw, &aliases); err != nil {
			s.logger.Warn("Malformed aliases object in %s: %v", s.path, err)
			return map[string]string{}, nil
		}
		return aliases, nil
	}

	// Legacy layout: the whole document is the alias mapping.
	for key, raw := range doc {
		var alias string
		if err := json.Unmarshal(raw, &alias); err != nil {
			continue
		}
		aliases[key] = alias
	}
	return aliases, nil
}

// Save rewrites the alias mapping, preserving unrelated keys already in the
// document. The write is atomic (temp file + rename).
func (s *FileAliasStore) Save(aliases map[string]string) error {
	doc := make(map[string]json.RawMessage)
	if data, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			doc = make(map[string]json.RawMessage)
		} else if _, wrapped := doc[aliasesKey]; !wrapped {
			// Migrating a legacy flat document: its string values are
			// the alias entries being moved under the wrapper key.
			// A document that already carries the wrapper keeps every
			// other key untouched.
			for key, raw := range doc {
				var str string
				if json.Unmarshal(raw, &str) == nil {
					delete(doc, key)
				}
			}
		}
	}

	encoded, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("%w: encode aliases: %v", ErrPersist, err)
	}
	doc[aliasesKey] = encoded

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", ErrPersist, err)
	}
	body = append(body, '\n')

	if err := atomicWrite(s.path, body, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// atomicWrite writes via a temp file in the target directory and renames it
// into place so readers never observe a partial document.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
