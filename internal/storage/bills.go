package storage

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"billpay/internal/infra/sqlite3"
	"billpay/internal/stories/ledger"
)

const billsTable = "bills"

const createBillsTable = `
CREATE TABLE IF NOT EXISTS bills (
	bill_id         TEXT PRIMARY KEY,
	site_id         TEXT NOT NULL DEFAULT '',
	amount_value    TEXT NOT NULL,
	currency        TEXT NOT NULL,
	status          TEXT NOT NULL,
	comment         TEXT NOT NULL DEFAULT '',
	pay_url         TEXT NOT NULL DEFAULT '',
	creation_date   TIMESTAMP,
	expiration_date TIMESTAMP,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
)`

var billRowFields = fields(billRow{})

type billRow struct {
	BillID         string     `db:"bill_id"`
	SiteID         string     `db:"site_id"`
	AmountValue    string     `db:"amount_value"`
	Currency       string     `db:"currency"`
	Status         string     `db:"status"`
	Comment        string     `db:"comment"`
	PayURL         string     `db:"pay_url"`
	CreationDate   *time.Time `db:"creation_date"`
	ExpirationDate *time.Time `db:"expiration_date"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r billRow) ToModel() ledger.Record {
	record := ledger.Record{
		BillID:      r.BillID,
		SiteID:      r.SiteID,
		AmountValue: r.AmountValue,
		Currency:    r.Currency,
		Status:      r.Status,
		Comment:     r.Comment,
		PayURL:      r.PayURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CreationDate != nil {
		record.CreationDate = *r.CreationDate
	}
	if r.ExpirationDate != nil {
		record.ExpirationDate = *r.ExpirationDate
	}
	return record
}

// UpsertBill inserts the record or, when the bill id is already known,
// overwrites the mutable columns with the fresh snapshot. The update and
// fallback insert run in one transaction.
func (s *storageImpl) UpsertBill(ctx context.Context, record ledger.Record) error {
	now := s.now()

	return sqlite3.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		updates := map[string]interface{}{
			"site_id":      record.SiteID,
			"amount_value": record.AmountValue,
			"currency":     record.Currency,
			"status":       record.Status,
			"comment":      record.Comment,
			"pay_url":      record.PayURL,
			"updated_at":   now,
		}

		q, args, err := s.stmpBuilder().
			Update(billsTable).
			SetMap(updates).
			Where(sq.Eq{"bill_id": record.BillID}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build sql query")
		}

		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return errors.Wrap(err, "tx.ExecContext")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "result.RowsAffected")
		}
		if affected > 0 {
			return nil
		}

		inserts := map[string]interface{}{
			"bill_id":      record.BillID,
			"site_id":      record.SiteID,
			"amount_value": record.AmountValue,
			"currency":     record.Currency,
			"status":       record.Status,
			"comment":      record.Comment,
			"pay_url":      record.PayURL,
			"created_at":   now,
			"updated_at":   now,
		}
		if !record.CreationDate.IsZero() {
			inserts["creation_date"] = record.CreationDate
		}
		if !record.ExpirationDate.IsZero() {
			inserts["expiration_date"] = record.ExpirationDate
		}

		q, args, err = s.stmpBuilder().
			Insert(billsTable).
			SetMap(inserts).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build sql query")
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrap(err, "tx.ExecContext")
		}
		return nil
	})
}

// GetBill returns a single matching record, or nil when none exists.
func (s *storageImpl) GetBill(ctx context.Context, criteria ledger.GetCriteria) (*ledger.Record, error) {
	records, err := s.listBills(ctx, criteria, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListBills returns every matching record.
func (s *storageImpl) ListBills(ctx context.Context, criteria ledger.GetCriteria) ([]ledger.Record, error) {
	return s.listBills(ctx, criteria, 0)
}

func (s *storageImpl) listBills(ctx context.Context, criteria ledger.GetCriteria, limit uint64) ([]ledger.Record, error) {
	query := s.stmpBuilder().
		Select(billRowFields).
		From(billsTable).
		OrderBy("created_at ASC")

	if len(criteria.BillIDs) > 0 {
		query = query.Where(sq.Eq{"bill_id": criteria.BillIDs})
	}
	if len(criteria.Statuses) > 0 {
		query = query.Where(sq.Eq{"status": criteria.Statuses})
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql query")
	}

	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "db.SelectContext")
	}

	records := make([]ledger.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToModel())
	}
	return records, nil
}
