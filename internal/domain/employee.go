package domain

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Employee is a person on the payroll, placed in a department and a position.
type Employee struct {
	ID             int64
	Lastname       string
	Firstname      string
	Middlename     string
	DepartmentID   int64
	PositionID     int64
	BirthDate      time.Time
	HireDate       time.Time
	DismissalDate  *time.Time
	Phone          *string
	Email          *string
	DepartmentName string
	PositionName   string
}

// FullName joins the name parts, skipping empty ones.
func (e Employee) FullName() string {
	name := e.Lastname
	for _, part := range []string{e.Firstname, e.Middlename} {
		if part != "" {
			name += " " + part
		}
	}
	return name
}

// Dismissed reports whether the employee has left.
func (e Employee) Dismissed() bool {
	return e.DismissalDate != nil
}
