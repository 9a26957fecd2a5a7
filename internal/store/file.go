package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// jsonFile persists one logical collection as a pretty-printed JSON file.
// Writes go through a temp file and rename so a crash mid-dump never leaves a
// truncated collection behind.
type jsonFile struct {
	path string
	log  *zap.Logger
}

func newJSONFile(dir, name string, log *zap.Logger) (*jsonFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &jsonFile{path: filepath.Join(dir, name+".json"), log: log}, nil
}

// load reads the collection into v. A missing or unreadable file is not an
// error: the caller's default stays in place and we start empty, trading a
// potentially lost collection for availability.
func (f *jsonFile) load(v any) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.log.Warn("store load failed, starting with default", zap.String("path", f.path), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		f.log.Warn("store unreadable, starting with default", zap.String("path", f.path), zap.Error(err))
	}
}

// dump writes the collection to disk. Failures are logged; the in-memory
// state stays authoritative until the next successful flush.
func (f *jsonFile) dump(v any) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		f.log.Error("store marshal failed", zap.String("path", f.path), zap.Error(err))
		return
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		f.log.Error("store dump failed", zap.String("path", f.path), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, f.path); err != nil {
		f.log.Error("store rename failed", zap.String("path", f.path), zap.Error(err))
	}
}
