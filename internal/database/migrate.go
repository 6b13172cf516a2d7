package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Migration is one .surql schema file
type Migration struct {
	Name    string
	Content string
}

// LoadMigrations reads every .surql file in dir sorted by name. seed.surql is
// skipped so fixtures stay out of schema setup.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".surql") || name == "seed.surql" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name, Content: string(content)})
	}
	return migrations, nil
}

// Migrate applies the migrations in dir in order. Schema files use
// DEFINE ... IF NOT EXISTS so reapplying is harmless.
func Migrate(ctx context.Context, db Database, dir string) error {
	migrations, err := LoadMigrations(dir)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if err := db.Execute(ctx, m.Content, nil); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		slog.Debug("applied migration", slog.String("name", m.Name))
	}
	return nil
}
