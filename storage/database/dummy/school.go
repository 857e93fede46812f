package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
)

type SchoolRepository struct {
	db *schoolTables
}

var _ school.Repository = (*SchoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db.school}
}

// Seeding helpers; tests build fixtures through these.

func (repo *SchoolRepository) AddSchool(sc school.School) school.School {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	repo.db.schools = append(repo.db.schools, sc)
	return sc
}

func (repo *SchoolRepository) AddTeacher(t school.Teacher) school.Teacher {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	repo.db.teachers = append(repo.db.teachers, t)
	return t
}

func (repo *SchoolRepository) AddStudent(st school.Student) school.Student {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	repo.db.students = append(repo.db.students, st)
	return st
}

func (repo *SchoolRepository) AddClass(cl school.Class) school.Class {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
	repo.db.classes = append(repo.db.classes, cl)
	return cl
}

func (repo *SchoolRepository) AddEnrollment(e school.Enrollment) school.Enrollment {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = school.EnrollmentActive
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	repo.db.enrollments = append(repo.db.enrollments, e)
	return e
}

func (repo *SchoolRepository) AddAssignment(a school.Assignment) school.Assignment {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	repo.db.assignments = append(repo.db.assignments, a)
	return a
}

func (repo *SchoolRepository) AddSubmission(su school.Submission) school.Submission {
	repo.db.Lock()
	defer repo.db.Unlock()

	stamp(&su.ID, &su.CreatedAt, &su.UpdatedAt)
	repo.db.submissions = append(repo.db.submissions, su)
	return su
}

func stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

// school.Repository implementation

func (repo *SchoolRepository) GetStudent(_ context.Context, filter school.StudentFilter, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.students {
		switch {
		case filter.ID != "":
			if st.ID == filter.ID {
				return st, nil
			}
		case filter.AuthID != "":
			if st.AuthID == filter.AuthID {
				return st, nil
			}
		case filter.Username != "":
			if st.Username.String == filter.Username {
				return st, nil
			}
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *SchoolRepository) getSchool(id string) school.School {
	for _, sc := range repo.db.schools {
		if sc.ID == id {
			return sc
		}
	}
	return school.School{}
}

func (repo *SchoolRepository) getClass(id string) school.Class {
	for _, cl := range repo.db.classes {
		if cl.ID == id {
			return cl
		}
	}
	return school.Class{}
}

func (repo *SchoolRepository) getTeacher(id string) school.Teacher {
	for _, t := range repo.db.teachers {
		if t.ID == id {
			return t
		}
	}
	return school.Teacher{}
}

func (repo *SchoolRepository) getAssignment(id string) school.Assignment {
	for _, a := range repo.db.assignments {
		if a.ID == id {
			return a
		}
	}
	return school.Assignment{}
}

func (repo *SchoolRepository) GetStudentProfile(_ context.Context, studentID string, _ ...core.DBExecutor) (school.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.students {
		if st.ID == studentID {
			return school.StudentProfile{Student: st, School: repo.getSchool(st.SchoolID)}, nil
		}
	}
	return school.StudentProfile{}, school.ErrStudentNotFound
}

func (repo *SchoolRepository) QueryStudentProfiles(_ context.Context, _ ...core.DBExecutor) ([]school.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]school.StudentProfile, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		profiles = append(profiles, school.StudentProfile{Student: st, School: repo.getSchool(st.SchoolID)})
	}
	return profiles, nil
}

func (repo *SchoolRepository) QueryActiveEnrollments(_ context.Context, studentID string, _ ...core.DBExecutor) ([]school.EnrollmentWithClass, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []school.EnrollmentWithClass
	for _, e := range repo.db.enrollments {
		if e.StudentID != studentID || e.Status != school.EnrollmentActive {
			continue
		}
		cl := repo.getClass(e.ClassID)
		enrollments = append(enrollments, school.EnrollmentWithClass{
			Enrollment: e,
			Class: school.ClassWithTeacher{
				Class:   cl,
				Teacher: repo.getTeacher(cl.TeacherID),
			},
		})
	}
	return enrollments, nil
}

func (repo *SchoolRepository) activeClassIDs(studentID string) map[string]bool {
	ids := make(map[string]bool)
	for _, e := range repo.db.enrollments {
		if e.StudentID == studentID && e.Status == school.EnrollmentActive {
			ids[e.ClassID] = true
		}
	}
	return ids
}

func (repo *SchoolRepository) QueryAssignments(_ context.Context, studentID string, limit int, _ ...core.DBExecutor) ([]school.AssignmentWithClass, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classIDs := repo.activeClassIDs(studentID)
	var assignments []school.AssignmentWithClass
	for _, a := range repo.db.assignments {
		if classIDs[a.ClassID] {
			assignments = append(assignments, school.AssignmentWithClass{Assignment: a, Class: repo.getClass(a.ClassID)})
		}
	}
	// due date descending, nulls last; ties keep insertion order
	sort.SliceStable(assignments, func(i, j int) bool {
		return timeDescNullsLast(assignments[i].DueDate, assignments[j].DueDate)
	})
	if limit > 0 && len(assignments) > limit {
		assignments = assignments[:limit]
	}
	return assignments, nil
}

func (repo *SchoolRepository) QuerySubmissions(_ context.Context, studentID string, limit int, _ ...core.DBExecutor) ([]school.SubmissionWithAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var submissions []school.SubmissionWithAssignment
	for _, su := range repo.db.submissions {
		if su.StudentID != studentID {
			continue
		}
		a := repo.getAssignment(su.AssignmentID)
		submissions = append(submissions, school.SubmissionWithAssignment{
			Submission: su,
			Assignment: school.AssignmentWithClass{Assignment: a, Class: repo.getClass(a.ClassID)},
		})
	}
	sort.SliceStable(submissions, func(i, j int) bool {
		return timeDescNullsLast(submissions[i].SubmittedAt, submissions[j].SubmittedAt)
	})
	if limit > 0 && len(submissions) > limit {
		submissions = submissions[:limit]
	}
	return submissions, nil
}

func timeDescNullsLast(a, b null.Time) bool {
	switch {
	case a.Valid && b.Valid:
		return a.Time.After(b.Time)
	case a.Valid:
		return true
	default:
		return false
	}
}
