package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core/school"
)

type studentApi struct {
	svc *school.Service
}

func registerStudentAPI(app *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{svc: deps.SchoolSvc}

	// teacher-facing roster; any verified identity
	app.GET("/students", api.query, jwt)

	sg := app.Group("/student", jwt, studentMiddleware(api.svc))
	sg.GET("/profile", api.profile)
	sg.GET("/classes", api.classes)
	sg.GET("/assignments", api.assignments)
	sg.GET("/grades", api.grades)
	sg.GET("/dashboard", api.dashboard)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	profiles, err := api.svc.QueryAllProfiles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying student profiles")
	}
	if profiles == nil {
		profiles = []school.StudentProfile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *studentApi) profile(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	profile, err := api.svc.Profile(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *studentApi) classes(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	enrollments, err := api.svc.Classes(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if enrollments == nil {
		enrollments = []school.EnrollmentWithClass{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *studentApi) assignments(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	assignments, err := api.svc.Assignments(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []school.AssignmentWithClass{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *studentApi) grades(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	grades, err := api.svc.Grades(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []school.SubmissionWithAssignment{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	dash, err := api.svc.Dashboard(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	if dash.EnrolledClasses == nil {
		dash.EnrolledClasses = []school.EnrollmentWithClass{}
	}
	if dash.RecentAssignments == nil {
		dash.RecentAssignments = []school.AssignmentWithClass{}
	}
	if dash.RecentSubmissions == nil {
		dash.RecentSubmissions = []school.SubmissionWithAssignment{}
	}
	return ctx.JSON(http.StatusOK, dash)
}
