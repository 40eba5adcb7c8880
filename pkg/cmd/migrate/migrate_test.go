package migrate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPrepareURLForDB(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "postgresql://u:p@db:5432/f1sr", "postgresql://u:p@db:5432/f1sr?sslmode=disable"},
		{"with params", "postgresql://db/f1sr?connect_timeout=5", "postgresql://db/f1sr?connect_timeout=5&sslmode=disable"},
		{"keeps sslmode", "postgresql://db/f1sr?sslmode=require", "postgresql://db/f1sr?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, prepareURLForDB(tt.url), tt.want)
		})
	}
}
