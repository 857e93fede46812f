package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	. "github.com/trezcool/rekodi/apps/api/echo"
	"github.com/trezcool/rekodi/core/school"
	testutil "github.com/trezcool/rekodi/tests"
)

func unlinkedClaims(t *testing.T, role string) *Claims {
	t.Helper()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "00000000-0000-0000-0000-000000000000",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Email: "ghost@test.test",
		Role:  "authenticated",
		UserMetadata: map[string]interface{}{
			"role": role,
		},
	}
}

func Test_studentApi_profile(t *testing.T) {
	app := setup(t)
	fix := testutil.SeedSchool(app.schoolRepo)

	profile, err := app.schoolSvc.Profile(context.Background(), fix.Student.ID)
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "Auth required", path: "/student/profile",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Invalid token", path: "/student/profile", token: "lol.lmao.rofl",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "Unlinked student", path: "/student/profile",
			token:    signToken(t, unlinkedClaims(t, school.RoleStudent), app.conf),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student profile not found"}),
		},
		{
			name: "Unlinked teacher", path: "/student/profile",
			token:    signToken(t, unlinkedClaims(t, school.RoleTeacher), app.conf),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: `access denied for role "teacher": no student profile`}),
		},
		{
			name: "Get profile", path: "/student/profile", token: getToken(t, fix.Student, app.conf),
			wantCode: http.StatusOK, wantData: marchallObj(t, profile),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_resolverFallback(t *testing.T) {
	app := setup(t)
	fix := testutil.SeedSchool(app.schoolRepo)

	profile, err := app.schoolSvc.Profile(context.Background(), fix.Student.ID)
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}

	// token subject matches no student; only the metadata hint links it
	claims := unlinkedClaims(t, school.RoleStudent)
	claims.UserMetadata["student_id"] = fix.Student.ID

	tt := httpTest{
		name: "Resolved via student_id claim", path: "/student/profile",
		token:    signToken(t, claims, app.conf),
		wantCode: http.StatusOK, wantData: marchallObj(t, profile),
	}
	req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func Test_studentApi_lists(t *testing.T) {
	app := setup(t)
	fix := testutil.SeedSchool(app.schoolRepo)
	ctx := context.Background()

	repo := app.schoolRepo
	a := repo.AddAssignment(school.Assignment{ClassID: fix.Class.ID, Name: "hw1"})
	repo.AddSubmission(school.Submission{StudentID: fix.Student.ID, AssignmentID: a.ID})

	classes, err := app.schoolSvc.Classes(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Classes() failed: %v", err)
	}
	assignments, err := app.schoolSvc.Assignments(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Assignments() failed: %v", err)
	}
	grades, err := app.schoolSvc.Grades(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Grades() failed: %v", err)
	}
	dashboard, err := app.schoolSvc.Dashboard(ctx, fix.Student.ID)
	if err != nil {
		t.Fatalf("Dashboard() failed: %v", err)
	}
	profiles, err := app.schoolSvc.QueryAllProfiles(ctx)
	if err != nil {
		t.Fatalf("QueryAllProfiles() failed: %v", err)
	}

	token := getToken(t, fix.Student, app.conf)

	tests := []httpTest{
		{name: "Get classes", path: "/student/classes", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, classes)},
		{name: "Get assignments", path: "/student/assignments", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, assignments)},
		{name: "Get grades", path: "/student/grades", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, grades)},
		{name: "Get dashboard", path: "/student/dashboard", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, dashboard)},
		{name: "Get students", path: "/students", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, profiles)},
		{
			// the roster only requires a verified identity
			name: "Get students (no student profile)", path: "/students",
			token:    signToken(t, unlinkedClaims(t, school.RoleTeacher), app.conf),
			wantCode: http.StatusOK, wantData: marchallObj(t, profiles),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
