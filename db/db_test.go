package db

import (
	"io/fs"
	"testing"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToPgx5URL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/portfolio", "pgx5://u:p@localhost:5432/portfolio"},
		{"postgresql://u:p@localhost/portfolio", "pgx5://u:p@localhost/portfolio"},
		{"pgx5://already", "pgx5://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertToPgx5URL(tt.in))
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_contact_messages.up.sql")
	assert.Contains(t, names, "000001_create_contact_messages.down.sql")
	assert.Zero(t, len(names)%2, "every up migration needs a down migration")
}

func TestPoolConfigFor(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:           "db.internal",
		Port:           5432,
		User:           "portfolio",
		Password:       "secret",
		Name:           "portfolio",
		SSLMode:        "disable",
		MaxConnections: 7,
	}

	poolConfig, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(7), poolConfig.MaxConns)
	assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
	assert.Nil(t, poolConfig.ConnConfig.TLSConfig)
}
