package classes

import "errors"

// ClassData is a class with its derived fields. StudentCount and
// WaliKelasName are computed from canonical keys at read time and never
// stored, so they cannot drift.
type ClassData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WaliKelasID   *string `json:"waliKelasId"`
	WaliKelasName *string `json:"waliKelasName"`
	StudentCount  int     `json:"studentCount"`
}

var (
	// ErrNameRequired indicates a blank class name.
	ErrNameRequired = errors.New("classes: name required")
	// ErrDuplicateName indicates a case-insensitive name collision.
	ErrDuplicateName = errors.New("classes: name already exists")
	// ErrClassNotFound indicates the referenced class does not exist.
	ErrClassNotFound = errors.New("classes: class not found")
	// ErrClassInUse indicates deletion was blocked by enrolled students.
	ErrClassInUse = errors.New("classes: class still has students")
	// ErrTeacherNotFound indicates the referenced teacher does not exist.
	ErrTeacherNotFound = errors.New("classes: teacher not found")
	// ErrNotATeacher indicates the referenced user is not GURU-role.
	ErrNotATeacher = errors.New("classes: user is not a teacher")
)
