package school

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Roles carried by identity provider claims.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Enrollment statuses. Only active enrollments are visible to students.
const (
	EnrollmentActive    = "active"
	EnrollmentDropped   = "dropped"
	EnrollmentCompleted = "completed"
)

type School struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	District  null.String `json:"district"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Student struct {
	ID            string      `json:"id"`
	SchoolID      string      `json:"school_id"`
	AuthID        string      `json:"auth_id"` // identity provider subject
	Email         string      `json:"email"`
	Username      null.String `json:"username"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	StudentNumber null.String `json:"student_number"`
	GradeLevel    null.Int    `json:"grade_level"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Teacher struct {
	ID        string      `json:"id"`
	SchoolID  string      `json:"school_id"`
	AuthID    null.String `json:"auth_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Class struct {
	ID           string      `json:"id"`
	SchoolID     string      `json:"school_id"`
	TeacherID    string      `json:"teacher_id"`
	Name         string      `json:"name"`
	Subject      null.String `json:"subject"`
	Semester     null.String `json:"semester"`
	AcademicYear null.String `json:"academic_year"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	ClassID    string    `json:"class_id"`
	Status     string    `json:"enrollment_status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type Assignment struct {
	ID             string      `json:"id"`
	ClassID        string      `json:"class_id"`
	Name           string      `json:"name"`
	Description    null.String `json:"description"`
	DueDate        null.Time   `json:"due_date"`
	PointsPossible null.Int    `json:"points_possible"`
	Type           null.String `json:"assignment_type"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type Submission struct {
	ID           string       `json:"id"`
	StudentID    string       `json:"student_id"`
	AssignmentID string       `json:"assignment_id"`
	Score        null.Float64 `json:"score"`
	LetterGrade  null.String  `json:"letter_grade"`
	SubmittedAt  null.Time    `json:"submitted_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Composite read shapes.
type (
	StudentProfile struct {
		Student
		School School `json:"school"`
	}

	ClassWithTeacher struct {
		Class
		Teacher Teacher `json:"teacher"`
	}

	EnrollmentWithClass struct {
		Enrollment
		Class ClassWithTeacher `json:"class"`
	}

	AssignmentWithClass struct {
		Assignment
		Class Class `json:"class"`
	}

	SubmissionWithAssignment struct {
		Submission
		Assignment AssignmentWithClass `json:"assignment"`
	}

	Dashboard struct {
		Student           StudentProfile             `json:"student"`
		EnrolledClasses   []EnrollmentWithClass      `json:"enrolled_classes"`
		RecentAssignments []AssignmentWithClass      `json:"recent_assignments"`
		RecentSubmissions []SubmissionWithAssignment `json:"recent_submissions"`
	}
)

// Identity is the domain view of a verified token: the subject plus whatever
// linkage hints the identity provider embedded in its metadata blocks.
type Identity struct {
	SubjectID string
	StudentID string
	Username  string
	Role      string
}

// StudentFilter looks a Student up by exactly one of its unique attributes;
// the first non-empty field wins.
type StudentFilter struct {
	ID       string
	AuthID   string
	Username string
}
