package school_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core/school"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
	testutil "github.com/trezcool/rekodi/tests"
)

func setup(t *testing.T) (*school.Service, *dummydb.SchoolRepository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewSchoolRepository(db)
	return school.NewService(nil, repo, testutil.NewConfig()), repo
}

func TestService_ResolveStudent(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	fix := testutil.SeedSchool(repo)
	stu := fix.Student

	tests := []struct {
		name    string
		ident   school.Identity
		wantID  string
		wantErr error
	}{
		{
			name:   "by auth ID",
			ident:  school.Identity{SubjectID: stu.AuthID, Role: school.RoleStudent},
			wantID: stu.ID,
		},
		{
			name:   "by claims student ID",
			ident:  school.Identity{SubjectID: "unknown-subject", StudentID: stu.ID, Role: school.RoleStudent},
			wantID: stu.ID,
		},
		{
			name:   "by username",
			ident:  school.Identity{SubjectID: "unknown-subject", Username: "neo", Role: school.RoleStudent},
			wantID: stu.ID,
		},
		{
			name:   "username is cleaned",
			ident:  school.Identity{SubjectID: "unknown-subject", Username: "  NEO ", Role: school.RoleStudent},
			wantID: stu.ID,
		},
		{
			name:    "unlinked teacher is denied",
			ident:   school.Identity{SubjectID: "unknown-subject", Role: school.RoleTeacher},
			wantErr: &school.AccessDeniedError{Role: school.RoleTeacher},
		},
		{
			name:    "unlinked student has no profile",
			ident:   school.Identity{SubjectID: "unknown-subject", Role: school.RoleStudent},
			wantErr: school.ErrStudentNotFound,
		},
		{
			name:    "stale hints do not resolve",
			ident:   school.Identity{SubjectID: "unknown-subject", StudentID: "gone", Username: "ghost", Role: school.RoleStudent},
			wantErr: school.ErrStudentNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveStudent(ctx, tt.ident)
			if tt.wantErr != nil {
				if err == nil || errors.Cause(err).Error() != tt.wantErr.Error() {
					t.Fatalf("ResolveStudent() error = %v; wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveStudent() failed: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("ResolveStudent() ID = %v; want %v", got.ID, tt.wantID)
			}
		})
	}
}

func TestService_Classes_activeOnly(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	fix := testutil.SeedSchool(repo)

	second := repo.AddClass(school.Class{SchoolID: fix.School.ID, TeacherID: fix.Teacher.ID, Name: "History"})
	repo.AddEnrollment(school.Enrollment{StudentID: fix.Student.ID, ClassID: second.ID})

	dropped := repo.AddClass(school.Class{SchoolID: fix.School.ID, TeacherID: fix.Teacher.ID, Name: "Chemistry"})
	repo.AddEnrollment(school.Enrollment{StudentID: fix.Student.ID, ClassID: dropped.ID, Status: school.EnrollmentDropped})

	enrollments, err := svc.Classes(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Classes() failed: %v", err)
	}
	if len(enrollments) != 2 {
		t.Fatalf("Classes() returned %d enrollments; want 2", len(enrollments))
	}
	for _, e := range enrollments {
		if e.Class.ID == dropped.ID {
			t.Errorf("Classes() includes dropped class %q", e.Class.Name)
		}
		if e.Class.Teacher.ID != fix.Teacher.ID {
			t.Errorf("Classes() teacher = %v; want %v", e.Class.Teacher.ID, fix.Teacher.ID)
		}
	}
}

func TestService_Assignments_ordering(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	fix := testutil.SeedSchool(repo)
	now := time.Now().UTC()

	oldest := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw1", DueDate: null.TimeFrom(now.Add(-72 * time.Hour))})
	newest := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw3", DueDate: null.TimeFrom(now.Add(72 * time.Hour))})
	middle := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw2", DueDate: null.TimeFrom(now)})
	noDue := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "extra credit"})

	// assignments of classes the student is not enrolled in are invisible
	other := repo.AddClass(school.Class{SchoolID: fix.School.ID, TeacherID: fix.Teacher.ID, Name: "Art"})
	repo.AddAssignment(school.Assignment{ClassID: other.ID, Name: "collage"})

	assignments, err := svc.Assignments(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Assignments() failed: %v", err)
	}
	wantOrder := []string{newest.ID, middle.ID, oldest.ID, noDue.ID}
	if len(assignments) != len(wantOrder) {
		t.Fatalf("Assignments() returned %d assignments; want %d", len(assignments), len(wantOrder))
	}
	for i, want := range wantOrder {
		if assignments[i].ID != want {
			t.Errorf("Assignments()[%d] = %v; want %v", i, assignments[i].ID, want)
		}
	}
}

func TestService_Grades_ordering(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	fix := testutil.SeedSchool(repo)
	now := time.Now().UTC()

	a1 := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw1"})
	a2 := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw2"})

	older := repo.AddSubmission(school.Submission{
		StudentID: fix.Student.ID, AssignmentID: a1.ID,
		Score: null.Float64From(80), SubmittedAt: null.TimeFrom(now.Add(-time.Hour)),
	})
	newer := repo.AddSubmission(school.Submission{
		StudentID: fix.Student.ID, AssignmentID: a2.ID,
		Score: null.Float64From(95), SubmittedAt: null.TimeFrom(now),
	})

	grades, err := svc.Grades(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Grades() failed: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("Grades() returned %d submissions; want 2", len(grades))
	}
	if grades[0].ID != newer.ID || grades[1].ID != older.ID {
		t.Errorf("Grades() order = [%v %v]; want newest first", grades[0].ID, grades[1].ID)
	}
	if grades[0].Assignment.ID != a2.ID {
		t.Errorf("Grades() assignment = %v; want %v", grades[0].Assignment.ID, a2.ID)
	}
}

func TestService_Dashboard(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	fix := testutil.SeedSchool(repo)
	now := time.Now().UTC()

	second := repo.AddClass(school.Class{SchoolID: fix.School.ID, TeacherID: fix.Teacher.ID, Name: "History"})
	repo.AddEnrollment(school.Enrollment{StudentID: fix.Student.ID, ClassID: second.ID})

	// more assignments than one dashboard page across both active classes
	classIDs := []string{fix.Class.ID, second.ID}
	for i := 0; i < 15; i++ {
		a := repo.AddAssignment(school.Assignment{
			ClassID: classIDs[i%2],
			Name:    fmt.Sprintf("hw%d", i),
			DueDate: null.TimeFrom(now.Add(time.Duration(i) * time.Hour)),
		})
		if i < 12 {
			repo.AddSubmission(school.Submission{
				StudentID: fix.Student.ID, AssignmentID: a.ID,
				SubmittedAt: null.TimeFrom(now.Add(time.Duration(i) * time.Minute)),
			})
		}
	}

	dash, err := svc.Dashboard(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Dashboard() failed: %v", err)
	}
	if dash.Student.ID != fix.Student.ID {
		t.Errorf("Dashboard() student = %v; want %v", dash.Student.ID, fix.Student.ID)
	}
	if dash.Student.School.ID != fix.School.ID {
		t.Errorf("Dashboard() school = %v; want %v", dash.Student.School.ID, fix.School.ID)
	}
	if len(dash.EnrolledClasses) != 2 {
		t.Errorf("Dashboard() returned %d classes; want 2", len(dash.EnrolledClasses))
	}
	if len(dash.RecentAssignments) != 10 {
		t.Errorf("Dashboard() returned %d assignments; want page size 10", len(dash.RecentAssignments))
	}
	if len(dash.RecentSubmissions) != 10 {
		t.Errorf("Dashboard() returned %d submissions; want page size 10", len(dash.RecentSubmissions))
	}
	if got := dash.RecentAssignments[0].Name; got != "hw14" {
		t.Errorf("Dashboard() most recent assignment = %q; want hw14", got)
	}
	if got := dash.RecentSubmissions[0].Assignment.Name; got != "hw11" {
		t.Errorf("Dashboard() most recent submission assignment = %q; want hw11", got)
	}
}

func TestService_Profile_notFound(t *testing.T) {
	svc, _ := setup(t)

	if _, err := svc.Profile(context.Background(), "nope"); errors.Cause(err) != school.ErrStudentNotFound {
		t.Errorf("Profile() error = %v; want ErrStudentNotFound", err)
	}
}
