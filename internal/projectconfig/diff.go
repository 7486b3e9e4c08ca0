package projectconfig

import (
	"reflect"
	"sort"
	"strconv"

	"entrykit/internal/metadata"
)

// Change is one differing leaf between two snapshots.
type Change struct {
	Path string `json:"path"`
	Old  any    `json:"old"`
	New  any    `json:"new"`
}

// Status of an entry type relative to the stored project config.
type Status string

const (
	StatusAdded   Status = "added"
	StatusRemoved Status = "removed"
	StatusChanged Status = "changed"
)

// EntryTypeDiff describes how one entry type differs from its stored file.
type EntryTypeDiff struct {
	UID     string   `json:"uid"`
	Handle  string   `json:"handle"`
	Status  Status   `json:"status"`
	Changes []Change `json:"changes,omitempty"`
}

// Diff lists the dotted paths whose values differ between two snapshots,
// sorted by path.
func Diff(oldSnap, newSnap map[string]any) []Change {
	before := map[string]any{}
	after := map[string]any{}
	flatten("", oldSnap, before)
	flatten("", newSnap, after)

	paths := make(map[string]bool, len(before)+len(after))
	for p := range before {
		paths[p] = true
	}
	for p := range after {
		paths[p] = true
	}

	var changes []Change
	for p := range paths {
		o, n := before[p], after[p]
		if reflect.DeepEqual(o, n) {
			continue
		}
		changes = append(changes, Change{Path: p, Old: o, New: n})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// DiffEntryTypes compares the live entry types against stored snapshots
// keyed by uid. Unchanged entry types are omitted.
func DiffEntryTypes(stored map[string]map[string]any, current []*metadata.EntryType) []EntryTypeDiff {
	var diffs []EntryTypeDiff
	seen := make(map[string]bool, len(current))

	for _, et := range current {
		seen[et.UID] = true
		live := map[string]any(et.Config())
		old, ok := stored[et.UID]
		if !ok {
			diffs = append(diffs, EntryTypeDiff{UID: et.UID, Handle: et.Handle, Status: StatusAdded, Changes: Diff(nil, live)})
			continue
		}
		if changes := Diff(old, live); len(changes) > 0 {
			diffs = append(diffs, EntryTypeDiff{UID: et.UID, Handle: et.Handle, Status: StatusChanged, Changes: changes})
		}
	}

	for uid, old := range stored {
		if seen[uid] {
			continue
		}
		handle, _ := old["handle"].(string)
		diffs = append(diffs, EntryTypeDiff{UID: uid, Handle: handle, Status: StatusRemoved, Changes: Diff(old, nil)})
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].Handle != diffs[j].Handle {
			return diffs[i].Handle < diffs[j].Handle
		}
		return diffs[i].UID < diffs[j].UID
	})
	return diffs
}

func flatten(prefix string, v any, out map[string]any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flatten(join(prefix, k), child, out)
		}
	case metadata.ConfigSnapshot:
		flatten(prefix, map[string]any(val), out)
	case []any:
		for i, child := range val {
			flatten(join(prefix, strconv.Itoa(i)), child, out)
		}
	default:
		if prefix != "" {
			out[prefix] = normalize(val)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// normalize folds numeric types so YAML-decoded values compare equal to
// live ones.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	}
	return v
}
