package dummydb

import (
	"sync"

	"github.com/trezcool/rekodi/core/appdata"
	"github.com/trezcool/rekodi/core/school"
)

type (
	DB struct {
		school  *schoolTables
		appData *appDataTable
	}

	schoolTables struct {
		sync.RWMutex
		schools     []school.School
		teachers    []school.Teacher
		students    []school.Student
		classes     []school.Class
		enrollments []school.Enrollment
		assignments []school.Assignment
		submissions []school.Submission
	}

	appDataTable struct {
		sync.Mutex
		records []*appdata.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		school:  &schoolTables{},
		appData: &appDataTable{},
	}
	return db, nil
}
