package appdata_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/rekodi/core/appdata"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
)

func setup(t *testing.T) *appdata.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return appdata.NewService(nil, dummydb.NewAppDataRepository(db))
}

func jsonVal(s string) types.JSON {
	return types.JSON(s)
}

func TestService_PutGet(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rec, err := svc.Put(ctx, "stu1", appdata.NewRecord{
		AppKey:    "quiz-app",
		DataKey:   "settings",
		DataValue: jsonVal(`{"theme":"dark"}`),
	})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("Put() did not assign an ID")
	}
	if !rec.UpdatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Put() create: updated_at = %v; want created_at %v", rec.UpdatedAt, rec.CreatedAt)
	}

	got, err := svc.Get(ctx, "stu1", "quiz-app", "settings")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !bytes.Equal(got.DataValue, rec.DataValue) {
		t.Errorf("Get() value = %s; want %s", got.DataValue, rec.DataValue)
	}

	// putting on the same triple replaces the value in place
	rec2, err := svc.Put(ctx, "stu1", appdata.NewRecord{
		AppKey:    "quiz-app",
		DataKey:   "settings",
		DataValue: jsonVal(`{"theme":"light"}`),
	})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if rec2.ID != rec.ID {
		t.Errorf("Put() replace: ID = %v; want %v", rec2.ID, rec.ID)
	}
	if !rec2.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Put() replace: created_at = %v; want %v", rec2.CreatedAt, rec.CreatedAt)
	}
	if rec2.UpdatedAt.Before(rec.UpdatedAt) {
		t.Errorf("Put() replace: updated_at regressed from %v to %v", rec.UpdatedAt, rec2.UpdatedAt)
	}

	recs, err := svc.ListByApp(ctx, "stu1", "quiz-app")
	if err != nil {
		t.Fatalf("ListByApp() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListByApp() returned %d records; want 1", len(recs))
	}
	if !bytes.Equal(recs[0].DataValue, jsonVal(`{"theme":"light"}`)) {
		t.Errorf("ListByApp() value = %s; want last written value", recs[0].DataValue)
	}
}

func TestService_Get_notFound(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "stu1", "quiz-app", "nope"); errors.Cause(err) != appdata.ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// update never creates
	_, err := svc.Update(ctx, "stu1", "quiz-app", "progress", appdata.UpdateRecord{DataValue: jsonVal(`{"level":1}`)})
	if errors.Cause(err) != appdata.ErrNotFound {
		t.Fatalf("Update() error = %v; want ErrNotFound", err)
	}

	rec, err := svc.Put(ctx, "stu1", appdata.NewRecord{
		AppKey:    "quiz-app",
		DataKey:   "progress",
		DataValue: jsonVal(`{"level":1}`),
	})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	upd, err := svc.Update(ctx, "stu1", "quiz-app", "progress", appdata.UpdateRecord{DataValue: jsonVal(`{"level":2}`)})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if upd.ID != rec.ID {
		t.Errorf("Update() ID = %v; want %v", upd.ID, rec.ID)
	}
	if !bytes.Equal(upd.DataValue, jsonVal(`{"level":2}`)) {
		t.Errorf("Update() value = %s; want new value", upd.DataValue)
	}
	if upd.UpdatedAt.Before(rec.UpdatedAt) {
		t.Errorf("Update() updated_at regressed from %v to %v", rec.UpdatedAt, upd.UpdatedAt)
	}
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if err := svc.Delete(ctx, "stu1", "quiz-app", "nope"); errors.Cause(err) != appdata.ErrNotFound {
		t.Errorf("Delete() error = %v; want ErrNotFound", err)
	}

	if _, err := svc.Put(ctx, "stu1", appdata.NewRecord{AppKey: "quiz-app", DataKey: "settings", DataValue: jsonVal(`1`)}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := svc.Delete(ctx, "stu1", "quiz-app", "settings"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.Get(ctx, "stu1", "quiz-app", "settings"); errors.Cause(err) != appdata.ErrNotFound {
		t.Errorf("Get() after Delete() error = %v; want ErrNotFound", err)
	}
}

func TestService_DeleteByApp(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	for _, key := range []string{"k1", "k2", "k3"} {
		if _, err := svc.Put(ctx, "stu1", appdata.NewRecord{AppKey: "quiz-app", DataKey: key, DataValue: jsonVal(`1`)}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}
	// another namespace and another owner survive
	if _, err := svc.Put(ctx, "stu1", appdata.NewRecord{AppKey: "notes-app", DataKey: "k1", DataValue: jsonVal(`1`)}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if _, err := svc.Put(ctx, "stu2", appdata.NewRecord{AppKey: "quiz-app", DataKey: "k1", DataValue: jsonVal(`1`)}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	cnt, err := svc.DeleteByApp(ctx, "stu1", "quiz-app")
	if err != nil {
		t.Fatalf("DeleteByApp() failed: %v", err)
	}
	if cnt != 3 {
		t.Errorf("DeleteByApp() count = %d; want 3", cnt)
	}

	recs, err := svc.ListByApp(ctx, "stu1", "quiz-app")
	if err != nil {
		t.Fatalf("ListByApp() failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ListByApp() after DeleteByApp() returned %d records; want 0", len(recs))
	}

	// the namespace is now empty
	if _, err = svc.DeleteByApp(ctx, "stu1", "quiz-app"); errors.Cause(err) != appdata.ErrNotFound {
		t.Errorf("DeleteByApp() error = %v; want ErrNotFound", err)
	}

	// neighbours untouched
	if _, err = svc.Get(ctx, "stu1", "notes-app", "k1"); err != nil {
		t.Errorf("Get() other namespace failed: %v", err)
	}
	if _, err = svc.Get(ctx, "stu2", "quiz-app", "k1"); err != nil {
		t.Errorf("Get() other owner failed: %v", err)
	}
}

func TestService_Put_concurrent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	vals := []types.JSON{jsonVal(`"v1"`), jsonVal(`"v2"`)}

	var wg sync.WaitGroup
	errs := make([]error, len(vals))
	for i, val := range vals {
		wg.Add(1)
		go func(i int, val types.JSON) {
			defer wg.Done()
			_, errs[i] = svc.Put(ctx, "stu1", appdata.NewRecord{
				AppKey:    "quiz-app",
				DataKey:   "settings",
				DataValue: val,
			})
		}(i, val)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil && errors.Cause(err) != appdata.ErrConflict {
			t.Errorf("Put() #%d failed: %v", i, err)
		}
	}

	recs, err := svc.ListByApp(ctx, "stu1", "quiz-app")
	if err != nil {
		t.Fatalf("ListByApp() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListByApp() returned %d records; want exactly 1", len(recs))
	}
	if got := recs[0].DataValue; !bytes.Equal(got, vals[0]) && !bytes.Equal(got, vals[1]) {
		t.Errorf("value = %s; want one of the written values", got)
	}
}
