package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"app:secret@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC",
		DSN("app", "secret", "db", "3306", "movies"))
	assert.Equal(t,
		"root@tcp(localhost:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC",
		DSN("root", "", "localhost", "3306", "movies"))
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestShowtimeNaturalKeyIsUnique(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, "migrations/000004_create_showtimes.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "UNIQUE KEY uq_showtimes_natural (movie_id, show_date, show_time, cinema_hall)")
	assert.Contains(t, string(b), "ON DELETE CASCADE")
}

// Natural keys compare byte for byte: "Dune" and "DUNE" are two movies.
func TestNaturalKeysUseBinaryCollation(t *testing.T) {
	for file, column := range map[string]string{
		"migrations/000003_create_movies.up.sql":    "title",
		"migrations/000004_create_showtimes.up.sql": "cinema_hall",
	} {
		b, err := fs.ReadFile(migrationsFS, file)
		require.NoError(t, err)
		var def string
		for _, line := range strings.Split(string(b), "\n") {
			if f := strings.Fields(line); len(f) > 0 && f[0] == column {
				def = line
			}
		}
		require.NotEmpty(t, def, "%s: no %s column", file, column)
		assert.Contains(t, def, "COLLATE utf8mb4_bin", file)
	}
}
