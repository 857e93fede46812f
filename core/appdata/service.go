package appdata

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/rekodi/core"
)

var (
	// errors
	ErrNotFound = errors.New("app data not found")
	ErrConflict = errors.New("app data was written concurrently, retry the request")

	nowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		// UpsertRecord atomically inserts rec or, when a record already exists
		// for its (StudentID, AppKey, DataKey) triple, replaces that record's
		// value and updated-at timestamp while keeping its identity and
		// created-at. Implementations must not expose a window where two
		// concurrent upserts of the same triple both insert; a residual race
		// surfaces as ErrConflict.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		GetRecord(ctx context.Context, studentID, appKey, dataKey string, exec ...core.DBExecutor) (Record, error)
		// QueryRecords returns all records under the namespace in stable store order.
		QueryRecords(ctx context.Context, studentID, appKey string, exec ...core.DBExecutor) ([]Record, error)
		// UpdateRecordValue replaces an existing record's value; ErrNotFound when absent.
		UpdateRecordValue(ctx context.Context, studentID, appKey, dataKey string, value types.JSON, updatedAt time.Time, exec ...core.DBExecutor) (Record, error)
		DeleteRecord(ctx context.Context, studentID, appKey, dataKey string, exec ...core.DBExecutor) error
		// DeleteRecords removes every record under the namespace and reports
		// how many were removed.
		DeleteRecords(ctx context.Context, studentID, appKey string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{
		db:   db,
		repo: repo,
	}
}

// Put stores nr for the student, creating the record on first write and
// replacing its value on subsequent writes to the same triple.
func (svc *Service) Put(ctx context.Context, studentID string, nr NewRecord) (Record, error) {
	now := nowFunc()
	rec := Record{
		ID:        uuid.New().String(),
		StudentID: studentID,
		AppKey:    nr.AppKey,
		DataKey:   nr.DataKey,
		DataValue: nr.DataValue,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.UpsertRecord(ctx, rec)
}

func (svc *Service) Get(ctx context.Context, studentID, appKey, dataKey string) (Record, error) {
	return svc.repo.GetRecord(ctx, studentID, appKey, dataKey)
}

func (svc *Service) ListByApp(ctx context.Context, studentID, appKey string) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, studentID, appKey)
}

// Update replaces the value of an existing record; unlike Put it fails with
// ErrNotFound instead of creating when the triple is absent.
func (svc *Service) Update(ctx context.Context, studentID, appKey, dataKey string, ur UpdateRecord) (Record, error) {
	return svc.repo.UpdateRecordValue(ctx, studentID, appKey, dataKey, ur.DataValue, nowFunc())
}

func (svc *Service) Delete(ctx context.Context, studentID, appKey, dataKey string) error {
	return svc.repo.DeleteRecord(ctx, studentID, appKey, dataKey)
}

// DeleteByApp removes the whole namespace for the student and returns the
// number of records removed; ErrNotFound when the namespace was empty.
func (svc *Service) DeleteByApp(ctx context.Context, studentID, appKey string) (int, error) {
	cnt, err := svc.repo.DeleteRecords(ctx, studentID, appKey)
	if err != nil {
		return 0, errors.Wrap(err, "deleting app data records")
	}
	if cnt == 0 {
		return 0, ErrNotFound
	}
	return cnt, nil
}
