package migrate

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestPgxURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"postgresql", "postgresql://u:p@host:5432/db", "pgx://u:p@host:5432/db"},
		{"postgres", "postgres://u:p@host/db?sslmode=disable", "pgx://u:p@host/db?sslmode=disable"},
		{"other", "pgx://host/db", "pgx://host/db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, pgxURL(tt.in), tt.want)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NilError(t, err)
	ups := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups++
		}
	}
	assert.Equal(t, ups, len(entries)/2, "every migration has an up and a down file")
}
