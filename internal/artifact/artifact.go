// Package artifact manages the capture output directory: timestamped JSON
// payload files, daily CSV exports, and enumeration of previously captured
// files for harvesting.
package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bcaptain404/EtsyScraper/internal/timeutil"
	"github.com/natefinch/atomic"
)

const slugMax = 80

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Store writes artifacts into a single output directory. Writes are atomic
// so a crashed run never leaves a half-written payload behind.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir reports the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// SaveJSON writes v as indented JSON to <base>_<stamp>.json and returns the
// written path.
func (s *Store) SaveJSON(base string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.json", base, timeutil.Stamp(s.now()))
	path := filepath.Join(s.dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// SaveDailyCSV writes rows under the given header to <base>_<stamp>.csv,
// sorted by the first (date) column, and returns the written path.
func (s *Store) SaveDailyCSV(base string, header []string, rows [][]string) (string, error) {
	name := fmt.Sprintf("%s_%s.csv", base, timeutil.Stamp(s.now()))
	path := filepath.Join(s.dir, name)
	if err := WriteCSV(path, header, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV writes header plus rows (sorted by first column) to path
// atomically, creating parent directories as needed.
func WriteCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	sorted := append([][]string(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][0] < sorted[j][0]
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range sorted {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SlugURL derives an artifact base name from a URL: the query is dropped,
// runs of non-alphanumerics collapse to underscores, and only the last 80
// bytes are kept so endpoint paths stay recognizable.
func SlugURL(raw string) string {
	base, _, _ := strings.Cut(raw, "?")
	slug := slugPattern.ReplaceAllString(base, "_")
	if len(slug) > slugMax {
		slug = slug[len(slug)-slugMax:]
	}
	return slug
}

// Scan lists candidate capture files under dir. A glob of "", "*", or
// "**/*" matches everything; a "**/" prefix matches the remainder against
// file names at any depth; otherwise the pattern applies to the path
// relative to dir.
func Scan(dir, glob string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		ok, err := matchGlob(glob, rel)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func matchGlob(glob, rel string) (bool, error) {
	switch glob {
	case "", "*", "**/*":
		return true, nil
	}
	if rest, ok := strings.CutPrefix(glob, "**/"); ok {
		return filepath.Match(rest, filepath.Base(rel))
	}
	return filepath.Match(glob, rel)
}

// LoadJSON reads a scanned file and decodes it when it plausibly holds a
// JSON document. Files that are empty, binary, or undecodable are skipped
// rather than treated as errors; captures can be messy.
func LoadJSON(path string) (any, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Summary describes the current contents of an output directory.
type Summary struct {
	Files  int
	Newest time.Time
}

// Summarize counts files under dir and records the newest modification
// time. A missing directory yields an empty summary.
func Summarize(dir string) (Summary, error) {
	var sum Summary
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum.Files++
		if info.ModTime().After(sum.Newest) {
			sum.Newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return Summary{}, err
	}
	return sum, nil
}
