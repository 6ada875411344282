package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "svc",
		Password: "secret",
		Name:     "community_complaints",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db port=5433 user=svc password=secret dbname=community_complaints sslmode=require", dsn)
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "svc",
		Password: `it's a \secret`,
		Name:     "complaints",
	})
	assert.Equal(t, `host=db port=5432 user=svc password='it\'s a \\secret' dbname=complaints`, dsn)
}
