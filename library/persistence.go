package library

import (
	stdjson "encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// dataJSON decodes SaveData mappings, keeping numbers as json.Number so
// integers can be told apart from floats.
var dataJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Persister saves and loads the complete library state.
type Persister interface {
	Load() (*LibraryData, error)
	Save(data *LibraryData) error
	Close() error
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// SaveData writes data to path as UTF-8 JSON, replacing the file wholesale.
func SaveData(data map[string]any, path string) error {
	return writeJSON(path, data)
}

// LoadData reads a mapping written by SaveData. Integral numbers come back as
// int, all other numbers as float64.
func LoadData(path string) (map[string]any, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data := map[string]any{}
	if err := dataJSON.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for k, v := range data {
		data[k] = fromNumbers(v)
	}
	return data, nil
}

func fromNumbers(v any) any {
	switch v := v.(type) {
	case stdjson.Number:
		if n, err := strconv.ParseInt(string(v), 10, 64); err == nil && int64(int(n)) == n {
			return int(n)
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for k, e := range v {
			v[k] = fromNumbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = fromNumbers(e)
		}
	}
	return v
}

// SnapshotFile persists the library state as a single JSON document.
type SnapshotFile struct {
	Path string
}

// Load reads the snapshot. A missing file yields an error wrapping os.ErrNotExist.
func (f SnapshotFile) Load() (*LibraryData, error) {
	var data LibraryData
	if err := readJSON(f.Path, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Save writes the snapshot, replacing any previous file.
func (f SnapshotFile) Save(data *LibraryData) error {
	return writeJSON(f.Path, data)
}

// Close is a no-op; the file is not held open between calls.
func (f SnapshotFile) Close() error { return nil }
