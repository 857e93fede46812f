package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
)

// NewConfig returns a self-contained test configuration; no env or .env
// files are consulted.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:     false,
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Rekodi",
		Build:     "test",
		SecretKey: []byte("5up3r53cr37k3y"),
		Server: core.ServerConfig{
			Host:               "localhost",
			Addr:               ":8000",
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: time.Hour,
		},
		API: core.APIConfig{PageSize: 10},
	}
}

// SchoolFixture is a minimal consistent slice of the school graph: one
// school, one teacher, one student actively enrolled in one class.
type SchoolFixture struct {
	School     school.School
	Teacher    school.Teacher
	Student    school.Student
	Class      school.Class
	Enrollment school.Enrollment
}

func SeedSchool(repo *dummydb.SchoolRepository) SchoolFixture {
	sc := repo.AddSchool(school.School{
		Name:     "Uhuru High",
		District: null.StringFrom("Central"),
	})
	t := repo.AddTeacher(school.Teacher{
		SchoolID:  sc.ID,
		Email:     "mwalimu@uhuru.test",
		FirstName: "Asha",
		LastName:  "Mwalimu",
	})
	st := CreateStudent(repo, sc.ID, "neo@uhuru.test", "neo")
	cl := repo.AddClass(school.Class{
		SchoolID:  sc.ID,
		TeacherID: t.ID,
		Name:      "Mathematics 101",
		Subject:   null.StringFrom("math"),
	})
	e := repo.AddEnrollment(school.Enrollment{
		StudentID: st.ID,
		ClassID:   cl.ID,
	})
	return SchoolFixture{School: sc, Teacher: t, Student: st, Class: cl, Enrollment: e}
}

func CreateStudent(repo *dummydb.SchoolRepository, schoolID, email, username string) school.Student {
	return repo.AddStudent(school.Student{
		SchoolID:  schoolID,
		AuthID:    uuid.New().String(),
		Email:     email,
		Username:  null.StringFrom(username),
		FirstName: "Neo",
		LastName:  "Kiprop",
	})
}
