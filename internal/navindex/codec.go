package navindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decode reads an index document. A document without interfaceLanguages is rejected.
func Decode(r io.Reader) (*Index, error) {
	var idx Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode navigation index: %w", err)
	}
	if idx.InterfaceLanguages == nil {
		return nil, fmt.Errorf("decode navigation index: %w", ErrMissingLanguages)
	}
	return &idx, nil
}

// ReadFile reads and decodes the index at path.
func ReadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	idx, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Encode writes the index as pretty-printed JSON with a two-space indent.
// HTML characters are not escaped so titles like "Array<Element>" stay readable.
func Encode(w io.Writer, idx *Index) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(idx)
}

// Marshal returns the pretty-printed encoding of idx.
func Marshal(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes idx to path, creating the parent directory when needed.
// The file is written to a temporary sibling and renamed into place.
func WriteFile(path string, idx *Index) error {
	data, err := Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode navigation index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp navigation index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename navigation index: %w", err)
	}
	return nil
}
