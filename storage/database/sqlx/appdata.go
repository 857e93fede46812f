package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/appdata"
)

const pqUniqueViolation = "23505"

type appDataRepository struct {
	db *sqlx.DB
}

var _ appdata.Repository = (*appDataRepository)(nil) // interface compliance check

func NewAppDataRepository(db *sql.DB) *appDataRepository {
	return &appDataRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo appDataRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if exe, ok := svcExec[0].(sqlx.ExtContext); ok {
			return exe
		}
	}
	return repo.db
}

type appDataRow struct {
	ID        string     `db:"id"`
	StudentID string     `db:"student_id"`
	AppKey    string     `db:"app_key"`
	DataKey   string     `db:"data_key"`
	DataValue types.JSON `db:"data_value"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r appDataRow) unmap() appdata.Record {
	return appdata.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		AppKey:    r.AppKey,
		DataKey:   r.DataKey,
		DataValue: r.DataValue,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to appdata.ErrNotFound
func (repo appDataRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return appdata.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// UpsertRecord inserts or replaces the triple's value in a single round trip;
// the unique index on (student_id, app_key, data_key) carries the conflict.
func (repo appDataRepository) UpsertRecord(ctx context.Context, rec appdata.Record, exec ...core.DBExecutor) (appdata.Record, error) {
	q := `INSERT INTO student_app_data (id, student_id, app_key, data_key, data_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (student_id, app_key, data_key)
		DO UPDATE SET data_value = EXCLUDED.data_value, updated_at = EXCLUDED.updated_at
		RETURNING id, student_id, app_key, data_key, data_value, created_at, updated_at`

	var row appDataRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q,
		rec.ID, rec.StudentID, rec.AppKey, rec.DataKey, rec.DataValue, rec.UpdatedAt)
	if err != nil {
		// a racing insert on the id column itself can still lose
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return appdata.Record{}, appdata.ErrConflict
		}
		return appdata.Record{}, errors.Wrap(err, "upserting app data record")
	}
	return row.unmap(), nil
}

func (repo appDataRepository) GetRecord(ctx context.Context, studentID, appKey, dataKey string, exec ...core.DBExecutor) (appdata.Record, error) {
	q := `SELECT id, student_id, app_key, data_key, data_value, created_at, updated_at
		FROM student_app_data
		WHERE student_id = $1 AND app_key = $2 AND data_key = $3`

	var row appDataRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, studentID, appKey, dataKey); err != nil {
		return appdata.Record{}, repo.trapNoRowsErr(err, "finding app data record")
	}
	return row.unmap(), nil
}

func (repo appDataRepository) QueryRecords(ctx context.Context, studentID, appKey string, exec ...core.DBExecutor) ([]appdata.Record, error) {
	q := `SELECT id, student_id, app_key, data_key, data_value, created_at, updated_at
		FROM student_app_data
		WHERE student_id = $1 AND app_key = $2
		ORDER BY created_at, id`

	var rows []appDataRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID, appKey); err != nil {
		return nil, errors.Wrap(err, "querying app data records")
	}
	recs := make([]appdata.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.unmap())
	}
	return recs, nil
}

func (repo appDataRepository) UpdateRecordValue(ctx context.Context, studentID, appKey, dataKey string, value types.JSON, updatedAt time.Time, exec ...core.DBExecutor) (appdata.Record, error) {
	q := `UPDATE student_app_data
		SET data_value = $4, updated_at = $5
		WHERE student_id = $1 AND app_key = $2 AND data_key = $3
		RETURNING id, student_id, app_key, data_key, data_value, created_at, updated_at`

	var row appDataRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, studentID, appKey, dataKey, value, updatedAt); err != nil {
		return appdata.Record{}, repo.trapNoRowsErr(err, "updating app data record")
	}
	return row.unmap(), nil
}

func (repo appDataRepository) DeleteRecord(ctx context.Context, studentID, appKey, dataKey string, exec ...core.DBExecutor) error {
	q := `DELETE FROM student_app_data WHERE student_id = $1 AND app_key = $2 AND data_key = $3`

	res, err := repo.getExec(exec).ExecContext(ctx, q, studentID, appKey, dataKey)
	if err != nil {
		return errors.Wrap(err, "deleting app data record")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting app data record")
	}
	if cnt == 0 {
		return appdata.ErrNotFound
	}
	return nil
}

func (repo appDataRepository) DeleteRecords(ctx context.Context, studentID, appKey string, exec ...core.DBExecutor) (int, error) {
	q := `DELETE FROM student_app_data WHERE student_id = $1 AND app_key = $2`

	res, err := repo.getExec(exec).ExecContext(ctx, q, studentID, appKey)
	if err != nil {
		return 0, errors.Wrap(err, "deleting app data records")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting app data records")
	}
	return int(cnt), nil
}
