package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
)

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"})
	missing := fmt.Errorf("list reviews: %w", &pq.Error{Code: "42P01"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(missing))
	assert.True(t, IsUndefinedTable(missing))
	assert.False(t, IsUndefinedTable(fmt.Errorf("plain")))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable",
		DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}))
}
