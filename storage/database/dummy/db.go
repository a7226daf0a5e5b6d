package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	DB struct {
		att *attendanceTable
	}

	attendanceTable struct {
		sync.RWMutex
		sessions    map[string]*attendance.Session
		enrollments map[string][]attendance.Recipient // by course ID
		present     map[string]map[string]struct{}    // session ID -> student IDs
	}
)

func Open() (*DB, error) {
	db := &DB{
		att: &attendanceTable{
			sessions:    make(map[string]*attendance.Session),
			enrollments: make(map[string][]attendance.Recipient),
			present:     make(map[string]map[string]struct{}),
		},
	}
	return db, nil
}
