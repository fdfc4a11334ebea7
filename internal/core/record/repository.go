package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baseplate/backoffice/internal/storage"
)

// Repository stores records of every module in a single table, one JSON
// document per row.
type Repository struct {
	db *storage.Client
}

func NewRepository(db *storage.Client) *Repository {
	return &Repository{db: db}
}

// Save inserts rec or replaces the stored document with the same id.
func (r *Repository) Save(ctx context.Context, module string, rec Record) error {
	return r.save(ctx, r.db.DB, module, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) save(ctx context.Context, db execer, module string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (module, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (module, id) DO UPDATE
		SET data = excluded.data, updated_at = excluded.updated_at`

	_, err = db.ExecContext(ctx, r.db.Rebind(query),
		module, rec.RecordID(), string(data), rec.CreatedTime().UTC(), rec.UpdatedTime().UTC(),
	)
	return err
}

// Update replaces an existing document and fails with ErrNotFound when there
// is none.
func (r *Repository) Update(ctx context.Context, module string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET data = $3, updated_at = $4
		WHERE module = $1 AND id = $2`

	res, err := r.db.DB.ExecContext(ctx, r.db.Rebind(query),
		module, rec.RecordID(), string(data), rec.UpdatedTime().UTC(),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *Repository) Delete(ctx context.Context, module, id string) error {
	query := `DELETE FROM records WHERE module = $1 AND id = $2`
	res, err := r.db.DB.ExecContext(ctx, r.db.Rebind(query), module, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *Repository) Get(ctx context.Context, module, id string) (json.RawMessage, error) {
	query := `SELECT data FROM records WHERE module = $1 AND id = $2`

	var data []byte
	err := r.db.DB.QueryRowContext(ctx, r.db.Rebind(query), module, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// List returns every document of module, oldest first.
func (r *Repository) List(ctx context.Context, module string) ([]json.RawMessage, error) {
	query := `
		SELECT data
		FROM records
		WHERE module = $1
		ORDER BY created_at, id`

	rows, err := r.db.DB.QueryContext(ctx, r.db.Rebind(query), module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		docs = append(docs, json.RawMessage(data))
	}
	return docs, rows.Err()
}

func (r *Repository) Count(ctx context.Context, module string) (int, error) {
	var total int
	err := r.db.DB.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM records WHERE module = $1`), module).Scan(&total)
	return total, err
}

// Replace swaps the whole content of module for recs in one transaction.
func (r *Repository) Replace(ctx context.Context, module string, recs []Record) (err error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM records WHERE module = $1`), module); err != nil {
		return fmt.Errorf("clear %s: %w", module, err)
	}
	for _, rec := range recs {
		if err = r.save(ctx, tx, module, rec); err != nil {
			return fmt.Errorf("save %s/%s: %w", module, rec.RecordID(), err)
		}
	}
	return tx.Commit()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
