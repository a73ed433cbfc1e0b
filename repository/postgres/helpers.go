package postgres

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID filters out identifiers that Postgres would reject as uuid input.
func validID(id string) bool {
	return id != "" && uuid.Validate(id) == nil
}

func nullDate(d *civil.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

func dateOf(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
