package school

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student profile not found")
)

// AccessDeniedError is returned when a verified identity carries a role that
// cannot be mapped to a student profile.
type AccessDeniedError struct {
	Role string
}

func (err *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for role %q: no student profile", err.Role)
}

type (
	Repository interface {
		GetStudent(ctx context.Context, filter StudentFilter, exec ...core.DBExecutor) (Student, error)
		GetStudentProfile(ctx context.Context, studentID string, exec ...core.DBExecutor) (StudentProfile, error)
		QueryStudentProfiles(ctx context.Context, exec ...core.DBExecutor) ([]StudentProfile, error)
		// QueryActiveEnrollments returns the student's enrollments whose status
		// is EnrollmentActive, with their class and teacher attached.
		QueryActiveEnrollments(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]EnrollmentWithClass, error)
		// QueryAssignments returns assignments across the student's active
		// classes ordered by due date descending (record identity breaks ties).
		// limit <= 0 returns all.
		QueryAssignments(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]AssignmentWithClass, error)
		// QuerySubmissions returns the student's submissions ordered by
		// submission time descending (record identity breaks ties).
		// limit <= 0 returns all.
		QuerySubmissions(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]SubmissionWithAssignment, error)
	}

	Service struct {
		db   core.DB
		repo Repository
		conf *core.Config
	}
)

func NewService(db core.DB, repo Repository, conf *core.Config) *Service {
	return &Service{
		db:   db,
		repo: repo,
		conf: conf,
	}
}

// ResolveStudent maps a verified identity to its Student record.
// Account linkage may land after the identity itself exists (provisioning
// links accounts asynchronously), so resolution falls back from the direct
// auth reference to linkage hints embedded in the token metadata.
func (svc *Service) ResolveStudent(ctx context.Context, ident Identity) (Student, error) {
	st, err := svc.repo.GetStudent(ctx, StudentFilter{AuthID: ident.SubjectID})
	if err == nil {
		return st, nil
	}
	if errors.Cause(err) != ErrStudentNotFound {
		return Student{}, errors.Wrap(err, "finding student by auth ID")
	}

	if ident.StudentID != "" {
		st, err = svc.repo.GetStudent(ctx, StudentFilter{ID: ident.StudentID})
		if err == nil {
			return st, nil
		}
		if errors.Cause(err) != ErrStudentNotFound {
			return Student{}, errors.Wrap(err, "finding student by ID")
		}
	}

	if ident.Username != "" {
		st, err = svc.repo.GetStudent(ctx, StudentFilter{Username: core.CleanString(ident.Username, true /* lower */)})
		if err == nil {
			return st, nil
		}
		if errors.Cause(err) != ErrStudentNotFound {
			return Student{}, errors.Wrap(err, "finding student by username")
		}
	}

	if ident.Role != RoleStudent {
		return Student{}, &AccessDeniedError{Role: ident.Role}
	}
	return Student{}, ErrStudentNotFound
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, StudentFilter{ID: id})
}

func (svc *Service) Profile(ctx context.Context, studentID string) (StudentProfile, error) {
	return svc.repo.GetStudentProfile(ctx, studentID)
}

func (svc *Service) QueryAllProfiles(ctx context.Context) ([]StudentProfile, error) {
	return svc.repo.QueryStudentProfiles(ctx)
}

func (svc *Service) Classes(ctx context.Context, studentID string) ([]EnrollmentWithClass, error) {
	return svc.repo.QueryActiveEnrollments(ctx, studentID)
}

func (svc *Service) Assignments(ctx context.Context, studentID string) ([]AssignmentWithClass, error) {
	return svc.repo.QueryAssignments(ctx, studentID, 0)
}

func (svc *Service) Grades(ctx context.Context, studentID string) ([]SubmissionWithAssignment, error) {
	return svc.repo.QuerySubmissions(ctx, studentID, 0)
}

// Dashboard composes the student's profile, active classes and the most
// recent assignments and submissions capped at the configured page size.
func (svc *Service) Dashboard(ctx context.Context, studentID string) (Dashboard, error) {
	profile, err := svc.repo.GetStudentProfile(ctx, studentID)
	if err != nil {
		return Dashboard{}, err
	}

	enrollments, err := svc.repo.QueryActiveEnrollments(ctx, studentID)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying active enrollments")
	}

	assignments, err := svc.repo.QueryAssignments(ctx, studentID, svc.conf.API.PageSize)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying recent assignments")
	}

	submissions, err := svc.repo.QuerySubmissions(ctx, studentID, svc.conf.API.PageSize)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying recent submissions")
	}

	return Dashboard{
		Student:           profile,
		EnrolledClasses:   enrollments,
		RecentAssignments: assignments,
		RecentSubmissions: submissions,
	}, nil
}
