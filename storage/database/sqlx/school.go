package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sql.DB) *schoolRepository {
	return &schoolRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo schoolRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if exe, ok := svcExec[0].(sqlx.ExtContext); ok {
			return exe
		}
	}
	return repo.db
}

// row types; joined columns are aliased into the nested structs.
type (
	schoolRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		District  null.String `db:"district"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	studentRow struct {
		ID            string      `db:"id"`
		SchoolID      string      `db:"school_id"`
		AuthID        string      `db:"auth_id"`
		Email         string      `db:"email"`
		Username      null.String `db:"username"`
		FirstName     string      `db:"first_name"`
		LastName      string      `db:"last_name"`
		StudentNumber null.String `db:"student_number"`
		GradeLevel    null.Int    `db:"grade_level"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	teacherRow struct {
		ID        string      `db:"id"`
		SchoolID  string      `db:"school_id"`
		AuthID    null.String `db:"auth_id"`
		Email     string      `db:"email"`
		FirstName string      `db:"first_name"`
		LastName  string      `db:"last_name"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	classRow struct {
		ID           string      `db:"id"`
		SchoolID     string      `db:"school_id"`
		TeacherID    string      `db:"teacher_id"`
		Name         string      `db:"name"`
		Subject      null.String `db:"subject"`
		Semester     null.String `db:"semester"`
		AcademicYear null.String `db:"academic_year"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}

	profileRow struct {
		studentRow
		School schoolRow `db:"school"`
	}

	classWithTeacherRow struct {
		classRow
		Teacher teacherRow `db:"teacher"`
	}

	enrollmentRow struct {
		ID         string              `db:"id"`
		StudentID  string              `db:"student_id"`
		ClassID    string              `db:"class_id"`
		Status     string              `db:"enrollment_status"`
		EnrolledAt time.Time           `db:"enrolled_at"`
		Class      classWithTeacherRow `db:"class"`
	}

	assignmentRow struct {
		ID             string      `db:"id"`
		ClassID        string      `db:"class_id"`
		Name           string      `db:"name"`
		Description    null.String `db:"description"`
		DueDate        null.Time   `db:"due_date"`
		PointsPossible null.Int    `db:"points_possible"`
		Type           null.String `db:"assignment_type"`
		CreatedAt      time.Time   `db:"created_at"`
		UpdatedAt      time.Time   `db:"updated_at"`
		Class          classRow    `db:"class"`
	}

	submissionRow struct {
		ID           string        `db:"id"`
		StudentID    string        `db:"student_id"`
		AssignmentID string        `db:"assignment_id"`
		Score        null.Float64  `db:"score"`
		LetterGrade  null.String   `db:"letter_grade"`
		SubmittedAt  null.Time     `db:"submitted_at"`
		CreatedAt    time.Time     `db:"created_at"`
		UpdatedAt    time.Time     `db:"updated_at"`
		Assignment   assignmentRow `db:"assignment"`
	}
)

func (r schoolRow) unmap() school.School {
	return school.School{
		ID:        r.ID,
		Name:      r.Name,
		District:  r.District,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r studentRow) unmap() school.Student {
	return school.Student{
		ID:            r.ID,
		SchoolID:      r.SchoolID,
		AuthID:        r.AuthID,
		Email:         r.Email,
		Username:      r.Username,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		StudentNumber: r.StudentNumber,
		GradeLevel:    r.GradeLevel,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r teacherRow) unmap() school.Teacher {
	return school.Teacher{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		AuthID:    r.AuthID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r classRow) unmap() school.Class {
	return school.Class{
		ID:           r.ID,
		SchoolID:     r.SchoolID,
		TeacherID:    r.TeacherID,
		Name:         r.Name,
		Subject:      r.Subject,
		Semester:     r.Semester,
		AcademicYear: r.AcademicYear,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r profileRow) unmap() school.StudentProfile {
	return school.StudentProfile{
		Student: r.studentRow.unmap(),
		School:  r.School.unmap(),
	}
}

func (r enrollmentRow) unmap() school.EnrollmentWithClass {
	return school.EnrollmentWithClass{
		Enrollment: school.Enrollment{
			ID:         r.ID,
			StudentID:  r.StudentID,
			ClassID:    r.ClassID,
			Status:     r.Status,
			EnrolledAt: r.EnrolledAt,
		},
		Class: school.ClassWithTeacher{
			Class:   r.Class.classRow.unmap(),
			Teacher: r.Class.Teacher.unmap(),
		},
	}
}

func (r assignmentRow) unmap() school.AssignmentWithClass {
	return school.AssignmentWithClass{
		Assignment: school.Assignment{
			ID:             r.ID,
			ClassID:        r.ClassID,
			Name:           r.Name,
			Description:    r.Description,
			DueDate:        r.DueDate,
			PointsPossible: r.PointsPossible,
			Type:           r.Type,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		},
		Class: r.Class.unmap(),
	}
}

func (r submissionRow) unmap() school.SubmissionWithAssignment {
	return school.SubmissionWithAssignment{
		Submission: school.Submission{
			ID:           r.ID,
			StudentID:    r.StudentID,
			AssignmentID: r.AssignmentID,
			Score:        r.Score,
			LetterGrade:  r.LetterGrade,
			SubmittedAt:  r.SubmittedAt,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		},
		Assignment: r.Assignment.unmap(),
	}
}

// trapNoRowsErr maps psql "no rows" err to school.ErrStudentNotFound
func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrStudentNotFound
	}
	return errors.Wrap(err, msg)
}

const studentCols = `s.id, s.school_id, s.auth_id, s.email, s.username, s.first_name, s.last_name,
	s.student_number, s.grade_level, s.created_at, s.updated_at`

const schoolJoinCols = `sc.id AS "school.id", sc.name AS "school.name", sc.district AS "school.district",
	sc.created_at AS "school.created_at", sc.updated_at AS "school.updated_at"`

func (repo schoolRepository) GetStudent(ctx context.Context, filter school.StudentFilter, exec ...core.DBExecutor) (school.Student, error) {
	var where string
	var arg string

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return school.Student{}, school.ErrStudentNotFound
		}
		where, arg = "s.id = $1", filter.ID
	case filter.AuthID != "":
		if _, err := uuid.Parse(filter.AuthID); err != nil {
			return school.Student{}, school.ErrStudentNotFound
		}
		where, arg = "s.auth_id = $1", filter.AuthID
	case filter.Username != "":
		where, arg = "s.username = $1", filter.Username
	default:
		return school.Student{}, school.ErrStudentNotFound
	}

	q := fmt.Sprintf("SELECT %s FROM students s WHERE %s", studentCols, where)
	var row studentRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, arg); err != nil {
		return school.Student{}, repo.trapNoRowsErr(err, "finding student")
	}
	return row.unmap(), nil
}

func (repo schoolRepository) GetStudentProfile(ctx context.Context, studentID string, exec ...core.DBExecutor) (school.StudentProfile, error) {
	q := fmt.Sprintf(`SELECT %s, %s
		FROM students s
		JOIN schools sc ON sc.id = s.school_id
		WHERE s.id = $1`, studentCols, schoolJoinCols)

	var row profileRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, studentID); err != nil {
		return school.StudentProfile{}, repo.trapNoRowsErr(err, "finding student profile")
	}
	return row.unmap(), nil
}

func (repo schoolRepository) QueryStudentProfiles(ctx context.Context, exec ...core.DBExecutor) ([]school.StudentProfile, error) {
	q := fmt.Sprintf(`SELECT %s, %s
		FROM students s
		JOIN schools sc ON sc.id = s.school_id
		ORDER BY s.created_at, s.id`, studentCols, schoolJoinCols)

	var rows []profileRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying student profiles")
	}
	profiles := make([]school.StudentProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.unmap())
	}
	return profiles, nil
}

func (repo schoolRepository) QueryActiveEnrollments(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]school.EnrollmentWithClass, error) {
	q := `SELECT e.id, e.student_id, e.class_id, e.enrollment_status, e.enrolled_at,
		c.id AS "class.id", c.school_id AS "class.school_id", c.teacher_id AS "class.teacher_id",
		c.name AS "class.name", c.subject AS "class.subject", c.semester AS "class.semester",
		c.academic_year AS "class.academic_year", c.created_at AS "class.created_at", c.updated_at AS "class.updated_at",
		t.id AS "class.teacher.id", t.school_id AS "class.teacher.school_id", t.auth_id AS "class.teacher.auth_id",
		t.email AS "class.teacher.email", t.first_name AS "class.teacher.first_name", t.last_name AS "class.teacher.last_name",
		t.created_at AS "class.teacher.created_at", t.updated_at AS "class.teacher.updated_at"
	FROM enrollments e
	JOIN classes c ON c.id = e.class_id
	JOIN teachers t ON t.id = c.teacher_id
	WHERE e.student_id = $1 AND e.enrollment_status = $2
	ORDER BY e.enrolled_at, e.id`

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID, school.EnrollmentActive); err != nil {
		return nil, errors.Wrap(err, "querying active enrollments")
	}
	enrollments := make([]school.EnrollmentWithClass, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.unmap())
	}
	return enrollments, nil
}

func (repo schoolRepository) QueryAssignments(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]school.AssignmentWithClass, error) {
	q := `SELECT a.id, a.class_id, a.name, a.description, a.due_date, a.points_possible, a.assignment_type,
		a.created_at, a.updated_at,
		c.id AS "class.id", c.school_id AS "class.school_id", c.teacher_id AS "class.teacher_id",
		c.name AS "class.name", c.subject AS "class.subject", c.semester AS "class.semester",
		c.academic_year AS "class.academic_year", c.created_at AS "class.created_at", c.updated_at AS "class.updated_at"
	FROM assignments a
	JOIN classes c ON c.id = a.class_id
	JOIN enrollments e ON e.class_id = a.class_id
	WHERE e.student_id = $1 AND e.enrollment_status = $2
	ORDER BY a.due_date DESC NULLS LAST, a.id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID, school.EnrollmentActive); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]school.AssignmentWithClass, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.unmap())
	}
	return assignments, nil
}

func (repo schoolRepository) QuerySubmissions(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]school.SubmissionWithAssignment, error) {
	q := `SELECT su.id, su.student_id, su.assignment_id, su.score, su.letter_grade, su.submitted_at,
		su.created_at, su.updated_at,
		a.id AS "assignment.id", a.class_id AS "assignment.class_id", a.name AS "assignment.name",
		a.description AS "assignment.description", a.due_date AS "assignment.due_date",
		a.points_possible AS "assignment.points_possible", a.assignment_type AS "assignment.assignment_type",
		a.created_at AS "assignment.created_at", a.updated_at AS "assignment.updated_at",
		c.id AS "assignment.class.id", c.school_id AS "assignment.class.school_id",
		c.teacher_id AS "assignment.class.teacher_id", c.name AS "assignment.class.name",
		c.subject AS "assignment.class.subject", c.semester AS "assignment.class.semester",
		c.academic_year AS "assignment.class.academic_year",
		c.created_at AS "assignment.class.created_at", c.updated_at AS "assignment.class.updated_at"
	FROM submissions su
	JOIN assignments a ON a.id = su.assignment_id
	JOIN classes c ON c.id = a.class_id
	WHERE su.student_id = $1
	ORDER BY su.submitted_at DESC NULLS LAST, su.id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	submissions := make([]school.SubmissionWithAssignment, 0, len(rows))
	for _, row := range rows {
		submissions = append(submissions, row.unmap())
	}
	return submissions, nil
}
