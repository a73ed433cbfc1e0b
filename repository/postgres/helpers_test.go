package postgres

import (
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, validID(""))
	assert.False(t, validID("42"))
}

func TestDateConversions(t *testing.T) {
	assert.Nil(t, nullDate(nil))
	assert.Nil(t, dateOf(nil))

	due := civil.Date{Year: 2023, Month: 12, Day: 1}
	stored := nullDate(&due).(time.Time)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), stored)
	assert.Equal(t, due, *dateOf(&stored))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
