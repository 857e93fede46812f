package dummydb

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/appdata"
)

type AppDataRepository struct {
	db *appDataTable
}

var _ appdata.Repository = (*AppDataRepository)(nil) // interface compliance check

func NewAppDataRepository(db *DB) *AppDataRepository {
	return &AppDataRepository{db: db.appData}
}

func (repo *AppDataRepository) find(studentID, appKey, dataKey string) *appdata.Record {
	for _, rec := range repo.db.records {
		if rec.StudentID == studentID && rec.AppKey == appKey && rec.DataKey == dataKey {
			return rec
		}
	}
	return nil
}

// UpsertRecord serializes on the table lock; a racing upsert of the same
// triple lands on the mutation branch instead of inserting twice.
func (repo *AppDataRepository) UpsertRecord(_ context.Context, rec appdata.Record, _ ...core.DBExecutor) (appdata.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing := repo.find(rec.StudentID, rec.AppKey, rec.DataKey); existing != nil {
		existing.DataValue = rec.DataValue
		existing.UpdatedAt = rec.UpdatedAt
		return *existing, nil
	}
	repo.db.records = append(repo.db.records, &rec)
	return rec, nil
}

func (repo *AppDataRepository) GetRecord(_ context.Context, studentID, appKey, dataKey string, _ ...core.DBExecutor) (appdata.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rec := repo.find(studentID, appKey, dataKey); rec != nil {
		return *rec, nil
	}
	return appdata.Record{}, appdata.ErrNotFound
}

func (repo *AppDataRepository) QueryRecords(_ context.Context, studentID, appKey string, _ ...core.DBExecutor) ([]appdata.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var recs []appdata.Record
	for _, rec := range repo.db.records {
		if rec.StudentID == studentID && rec.AppKey == appKey {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (repo *AppDataRepository) UpdateRecordValue(_ context.Context, studentID, appKey, dataKey string, value types.JSON, updatedAt time.Time, _ ...core.DBExecutor) (appdata.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec := repo.find(studentID, appKey, dataKey)
	if rec == nil {
		return appdata.Record{}, appdata.ErrNotFound
	}
	rec.DataValue = value
	rec.UpdatedAt = updatedAt
	return *rec, nil
}

func (repo *AppDataRepository) DeleteRecord(_ context.Context, studentID, appKey, dataKey string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, rec := range repo.db.records {
		if rec.StudentID == studentID && rec.AppKey == appKey && rec.DataKey == dataKey {
			repo.db.records = append(repo.db.records[:i], repo.db.records[i+1:]...)
			return nil
		}
	}
	return appdata.ErrNotFound
}

func (repo *AppDataRepository) DeleteRecords(_ context.Context, studentID, appKey string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.records[:0]
	var cnt int
	for _, rec := range repo.db.records {
		if rec.StudentID == studentID && rec.AppKey == appKey {
			cnt++
			continue
		}
		kept = append(kept, rec)
	}
	repo.db.records = kept
	return cnt, nil
}
