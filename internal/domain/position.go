package domain

// Position is a job title owned by a department.
type Position struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DepartmentID   int64  `json:"department_id"`
	DepartmentName string `json:"department_name,omitempty"`
}
