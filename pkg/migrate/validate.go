package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var (
	sqlFileRe         = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	unguardedCreateRe = regexp.MustCompile(`(?i)CREATE\s+(UNIQUE\s+)?(TABLE|INDEX)\s+(\w+)`)
)

// ValidateDir validates migration filenames, goose headers and that every
// CREATE is guarded with IF NOT EXISTS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return validateFS(os.DirFS(dir), dir)
}

// ValidateEmbedded runs the same checks against the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(embedded, embeddedDir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	return validateFS(sub, embeddedDir)
}

func validateFS(fsys fs.FS, label string) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read dir %q: %w", label, err)
	}

	seen := map[string]string{} // version -> filename

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
		up := txt[:strings.Index(txt, "-- +goose Down")]
		for _, match := range unguardedCreateRe.FindAllStringSubmatch(up, -1) {
			if strings.EqualFold(match[3], "IF") {
				continue
			}
			return fmt.Errorf("migration %q has unguarded %q", name, strings.TrimSpace(match[0]))
		}
	}

	return nil
}
