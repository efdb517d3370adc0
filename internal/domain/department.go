package domain

import "time"

// Department is a node of the organizational hierarchy. ParentID is nil for roots.
type Department struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Fullname     string    `json:"fullname"`
	CodeZup      string    `json:"code_zup"`
	Organization string    `json:"organization"`
	ParentID     *int64    `json:"parent_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HierarchyEntry is one row of the level-ordered hierarchy.
type HierarchyEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
}

// DepartmentEmployee is the employee projection embedded in a department.
type DepartmentEmployee struct {
	ID           int64   `json:"id"`
	Lastname     string  `json:"lastname"`
	Firstname    string  `json:"firstname"`
	Middlename   string  `json:"middlename"`
	PositionID   int64   `json:"position_id"`
	PositionName *string `json:"position_name"`
}

// DepartmentWithEmployees carries a department and everyone assigned to it.
type DepartmentWithEmployees struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Fullname     string               `json:"fullname"`
	CodeZup      string               `json:"code_zup"`
	Organization string               `json:"organization"`
	ParentID     *int64               `json:"parent_id"`
	Employees    []DepartmentEmployee `json:"employees"`
}

// DepartmentUsage counts rows that reference a department.
type DepartmentUsage struct {
	Users     int `json:"users"`
	Employees int `json:"employees"`
	Positions int `json:"positions"`
	Children  int `json:"children"`
}

// InUse reports whether anything still references the department.
func (u DepartmentUsage) InUse() bool {
	return u.Users+u.Employees+u.Positions+u.Children > 0
}
