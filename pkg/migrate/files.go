package migrate

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

// The same files run on Postgres and, with FARMCONNECT_USE_SQLITE, on SQLite.
var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)

	postgresOnly = []struct {
		re   *regexp.Regexp
		what string
	}{
		{regexp.MustCompile(`(?i)\bJSONB\b`), "JSONB"},
		{regexp.MustCompile(`(?i)\b(BIG|SMALL)?SERIAL\b`), "SERIAL columns"},
		{regexp.MustCompile(`::\s*[a-zA-Z]`), "'::' casts"},
		{regexp.MustCompile(`(?i)\bCREATE\s+EXTENSION\b`), "CREATE EXTENSION"},
		{regexp.MustCompile(`(?i)\bALTER\s+COLUMN\b`), "ALTER COLUMN"},
	}
)

// File is one migration on disk.
type File struct {
	Version int64
	Name    string
	Path    string
}

// Slug turns a free-form description into a migration file suffix.
func Slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes an empty goose migration to dir. Its version is
// now in UTC, bumped past the newest existing file so ordering holds even
// when two are created within one second.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := ScanDir(dir)
	if err != nil {
		return "", err
	}

	stamp := time.Now().UTC()
	if n := len(existing); n > 0 {
		latest, _ := time.Parse(versionLayout, strconv.FormatInt(existing[n-1].Version, 10))
		if !stamp.After(latest) {
			stamp = latest.Add(time.Second)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", stamp.Format(versionLayout), slug))
	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %[1]s: keep to SQL that Postgres and SQLite both accept.
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`, slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks every migration in dir. See ScanDir.
func ValidateDir(dir string) error {
	_, err := ScanDir(dir)
	return err
}

// ScanDir lists the .sql migrations of dir in version order. Each must be
// named YYYYMMDDHHMMSS_slug.sql, carry a unique version, hold both goose
// sections and avoid Postgres-only syntax.
func ScanDir(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var files []File
	seen := map[int64]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, name)
		}
		seen[version] = name

		path := filepath.Join(dir, name)
		if err := checkContents(path); err != nil {
			return nil, err
		}
		files = append(files, File{Version: version, Name: m[2], Path: path})
	}
	slices.SortFunc(files, func(a, b File) int { return cmp.Compare(a.Version, b.Version) })
	return files, nil
}

func checkContents(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	name := filepath.Base(path)
	txt := string(b)
	for _, section := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(txt, section) {
			return fmt.Errorf("migration %q missing %q", name, section)
		}
	}
	for _, rule := range postgresOnly {
		if rule.re.MatchString(stripComments(txt)) {
			return fmt.Errorf("migration %q uses %s, which SQLite cannot run", name, rule.what)
		}
	}
	return nil
}

func stripComments(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
