package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/codalotl/benchtable/internal/types"
)

// CachePolicy decides whether the raw row cache is read and written.
type CachePolicy string

const (
	// LoadIfPresent reuses the raw cache when it exists, else scans and writes it.
	// The cache is never checked against the source reports.
	LoadIfPresent CachePolicy = "load-if-present"
	// ForceRefresh always scans and overwrites the raw cache.
	ForceRefresh CachePolicy = "force-refresh"
	// AlwaysRecompute always scans and leaves the raw cache untouched.
	AlwaysRecompute CachePolicy = "always-recompute"
)

// ParseCachePolicy parses a policy name; the empty string means LoadIfPresent.
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch p := CachePolicy(strings.TrimSpace(s)); p {
	case "":
		return LoadIfPresent, nil
	case LoadIfPresent, ForceRefresh, AlwaysRecompute:
		return p, nil
	default:
		return "", fmt.Errorf("unknown cache policy %q (want %s, %s or %s)", s, LoadIfPresent, ForceRefresh, AlwaysRecompute)
	}
}

// Store persists the raw row cache and the final table at fixed paths.
type Store struct {
	RawPath    string
	OutputPath string
	Policy     CachePolicy
}

// LoadRaw returns the raw rows, from the cache or from scan depending on the
// policy. fromCache reports whether scan was skipped.
func (s Store) LoadRaw(scan func() ([]types.FlatRow, error)) (rows []types.FlatRow, fromCache bool, err error) {
	policy := s.Policy
	if policy == "" {
		policy = LoadIfPresent
	}
	if policy == LoadIfPresent && s.RawPath != "" {
		f, err := os.Open(s.RawPath)
		switch {
		case err == nil:
			defer f.Close()
			rows, err := ReadRaw(f)
			if err != nil {
				return nil, false, fmt.Errorf("read raw cache %s: %w", s.RawPath, err)
			}
			return rows, true, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, false, err
		}
	}

	rows, err = scan()
	if err != nil {
		return nil, false, err
	}
	if policy != AlwaysRecompute && s.RawPath != "" {
		if err := writeFileAtomic(s.RawPath, func(w io.Writer) error { return WriteRaw(w, rows) }); err != nil {
			return nil, false, fmt.Errorf("write raw cache: %w", err)
		}
	}
	return rows, false, nil
}

// Save writes t to OutputPath as CSV, replacing any previous table.
func (s Store) Save(t *Table) error {
	if strings.TrimSpace(s.OutputPath) == "" {
		return errors.New("output path is required")
	}
	return writeFileAtomic(s.OutputPath, t.WriteCSV)
}

// LoadTable reads a CSV table written by Save.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return t, nil
}

// WriteRaw encodes raw rows as an indented JSON array.
func WriteRaw(w io.Writer, rows []types.FlatRow) error {
	if rows == nil {
		rows = []types.FlatRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func ReadRaw(r io.Reader) ([]types.FlatRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []types.FlatRow
	if err := json.Unmarshal(bytes.TrimSpace(data), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// writeFileAtomic writes to a temp file next to path and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
