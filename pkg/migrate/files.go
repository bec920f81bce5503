package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Migration files are named <version>_<action>_<subject>.sql, e.g.
// 20260301090000_create_products.sql.
var (
	fileNameRe     = regexp.MustCompile(`^(\d{14})_(create|alter|add|drop|seed|backfill|index)_[a-z0-9_]+\.sql$`)
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
)

// The same files run on postgres and on the sqlite dev/test databases, so
// constructs only one of them understands are rejected.
var dialectOnly = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)\b(big)?serial\b`), "use uuid keys"},
	{regexp.MustCompile(`(?i)\bautoincrement\b`), "use uuid keys"},
	{regexp.MustCompile(`(?i)\bjsonb\b`), "use text"},
	{regexp.MustCompile(`(?i)\btimestamptz\b`), "use timestamp"},
	{regexp.MustCompile(`(?i)\b(gen_random_uuid|uuid_generate_v4)\s*\(`), "generate ids in the application"},
	{regexp.MustCompile(`::`), "use CAST(x AS type)"},
	{regexp.MustCompile(`(?i)\bilike\b`), "use LOWER(x) LIKE"},
	{regexp.MustCompile(`(?i)\bcreate\s+extension\b`), "extensions are postgres only"},
	{regexp.MustCompile(`(?i)\bpragma\b`), "pragmas are sqlite only"},
}

// ValidateDir checks the migrations in dir. See ValidateFS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks file names, unique versions, goose Up/Down sections and
// that every statement is portable between postgres and sqlite.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_<create|alter|add|drop|seed|backfill|index>_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkSQL(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func checkSQL(name, text string) error {
	up := strings.Index(text, "-- +goose Up")
	down := strings.Index(text, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}

	for i, line := range strings.Split(text, "\n") {
		code := line
		if idx := strings.Index(code, "--"); idx >= 0 {
			code = code[:idx]
		}
		for _, rule := range dialectOnly {
			if token := rule.re.FindString(code); token != "" {
				return fmt.Errorf("migration %q line %d: %q is not portable (%s)", name, i+1, token, rule.hint)
			}
		}
	}
	return nil
}

// CreateSQLMigration writes an empty migration named <version>_<name>.sql
// into dir. name must start with one of the allowed actions.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}

	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(strings.ReplaceAll(safe, " ", "_"), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	version := time.Now().UTC().Format("20060102150405")
	filename := fmt.Sprintf("%s_%s.sql", version, safe)
	if !fileNameRe.MatchString(filename) {
		return "", fmt.Errorf("name %q must start with create, alter, add, drop, seed, backfill or index", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	fullpath := filepath.Join(dir, filename)
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s: portable SQL only, numeric(p,s) for money and quantities, uuid keys
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, safe, safe)

	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

// Versions lists the migration versions found in fsys, oldest first.
func Versions(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if m := fileNameRe.FindStringSubmatch(e.Name()); m != nil {
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out, nil
}
