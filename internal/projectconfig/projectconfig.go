// Package projectconfig mirrors entry type config snapshots to YAML files so
// schema changes can be reviewed and carried between environments.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"entrykit/internal/metadata"
)

const entryTypesDir = "entryTypes"

// Writer exports entry type snapshots under a project config root.
type Writer struct {
	root   string
	logger *zap.Logger
}

func NewWriter(root string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, logger: logger}
}

// FileName returns the file an entry type is written to.
func FileName(et *metadata.EntryType) string {
	return fmt.Sprintf("%s--%s.yaml", et.Handle, et.UID)
}

// WriteEntryTypes writes one file per entry type and removes files for
// entry types that no longer exist or were renamed. It returns the paths
// written.
func (w *Writer) WriteEntryTypes(types []*metadata.EntryType) ([]string, error) {
	dir := filepath.Join(w.root, entryTypesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	keep := make(map[string]bool, len(types))
	written := make([]string, 0, len(types))
	for _, et := range types {
		if et.UID == "" {
			return nil, fmt.Errorf("entry type %s has no uid", et)
		}
		data, err := yaml.Marshal(map[string]any(et.Config()))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", et, err)
		}
		name := FileName(et)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		keep[name] = true
		written = append(written, path)
	}

	stale, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		if keep[filepath.Base(path)] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove %s: %w", path, err)
		}
		w.logger.Info("Removed stale entry type config", zap.String("path", path))
	}

	w.logger.Info("Exported entry type config", zap.Int("count", len(written)), zap.String("dir", dir))
	return written, nil
}

// Read loads every entry type snapshot under root, keyed by uid. A missing
// directory yields an empty map.
func Read(root string) (map[string]map[string]any, error) {
	dir := filepath.Join(root, entryTypesDir)
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]map[string]any, len(files))
	for _, path := range files {
		uid, err := uidFromFileName(filepath.Base(path))
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var snap map[string]any
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if snap == nil {
			snap = map[string]any{}
		}
		snapshots[uid] = snap
	}
	return snapshots, nil
}

func uidFromFileName(name string) (string, error) {
	base := strings.TrimSuffix(name, ".yaml")
	i := strings.LastIndex(base, "--")
	if i < 0 || i+2 == len(base) {
		return "", fmt.Errorf("malformed entry type config file name: %s", name)
	}
	return base[i+2:], nil
}
