package storage

import (
	"context"
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type storageImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *storageImpl {
	return &storageImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *storageImpl) stmpBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (s *storageImpl) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createBillsTable); err != nil {
		return errors.Wrap(err, "create bills table")
	}
	return nil
}

// fields returns the comma-joined list of a row struct's db columns.
func fields(data any) string {
	var s string
	r := reflect.TypeOf(data)
	for i := 0; i < r.NumField(); i++ {
		tag := r.Field(i).Tag.Get("db")
		if tag != "" {
			s += tag + ","
		}
	}
	return s[:len(s)-1]
}
