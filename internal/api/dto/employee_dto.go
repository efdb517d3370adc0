package dto

import (
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
)

// PositionCreateRequest payload for POST /positions.
type PositionCreateRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
}

// PositionUpdateRequest is a partial update of a position.
type PositionUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,gt=0"`
}

func (r PositionUpdateRequest) Input() service.PositionInput {
	return service.PositionInput{Name: r.Name, DepartmentID: r.DepartmentID}
}

// EmployeeCreateRequest payload for POST /employees. Dates are YYYY-MM-DD.
type EmployeeCreateRequest struct {
	Lastname      string  `json:"lastname" validate:"required,max=100"`
	Firstname     string  `json:"firstname" validate:"required,max=100"`
	Middlename    string  `json:"middlename" validate:"omitempty,max=100"`
	DepartmentID  int64   `json:"department_id" validate:"required,gt=0"`
	PositionID    int64   `json:"position_id" validate:"required,gt=0"`
	BirthDate     string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	HireDate      string  `json:"hire_date" validate:"required,datetime=2006-01-02"`
	DismissalDate *string `json:"dismissal_date" validate:"omitempty,datetime=2006-01-02"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Email         *string `json:"email" validate:"omitempty,email"`
}

func (r EmployeeCreateRequest) Input() (service.EmployeeCreateInput, error) {
	birth, err := ParseDate("birth_date", r.BirthDate)
	if err != nil {
		return service.EmployeeCreateInput{}, err
	}
	hire, err := ParseDate("hire_date", r.HireDate)
	if err != nil {
		return service.EmployeeCreateInput{}, err
	}
	dismissal, err := parseDatePtr("dismissal_date", r.DismissalDate)
	if err != nil {
		return service.EmployeeCreateInput{}, err
	}
	return service.EmployeeCreateInput{
		Lastname:      r.Lastname,
		Firstname:     r.Firstname,
		Middlename:    r.Middlename,
		DepartmentID:  r.DepartmentID,
		PositionID:    r.PositionID,
		BirthDate:     birth,
		HireDate:      hire,
		DismissalDate: dismissal,
		Phone:         r.Phone,
		Email:         r.Email,
	}, nil
}

// EmployeeUpdateRequest is a partial update. "dismissal_date": null reinstates the employee.
type EmployeeUpdateRequest struct {
	Lastname      *string          `json:"lastname" validate:"omitempty,max=100"`
	Firstname     *string          `json:"firstname" validate:"omitempty,max=100"`
	Middlename    *string          `json:"middlename" validate:"omitempty,max=100"`
	DepartmentID  *int64           `json:"department_id" validate:"omitempty,gt=0"`
	PositionID    *int64           `json:"position_id" validate:"omitempty,gt=0"`
	BirthDate     *string          `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	HireDate      *string          `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	DismissalDate Optional[string] `json:"dismissal_date"`
	Phone         *string          `json:"phone" validate:"omitempty,max=50"`
	Email         *string          `json:"email"`
}

func (r EmployeeUpdateRequest) Input() (service.EmployeeUpdateInput, error) {
	in := service.EmployeeUpdateInput{
		Lastname:     r.Lastname,
		Firstname:    r.Firstname,
		Middlename:   r.Middlename,
		DepartmentID: r.DepartmentID,
		PositionID:   r.PositionID,
		Phone:        r.Phone,
		Email:        r.Email,
	}
	var err error
	if in.BirthDate, err = parseDatePtr("birth_date", r.BirthDate); err != nil {
		return in, err
	}
	if in.HireDate, err = parseDatePtr("hire_date", r.HireDate); err != nil {
		return in, err
	}
	if r.DismissalDate.Set {
		if r.DismissalDate.Value == nil {
			in.ClearDismissal = true
		} else if in.DismissalDate, err = parseDatePtr("dismissal_date", r.DismissalDate.Value); err != nil {
			return in, err
		}
	}
	return in, nil
}

// EmployeeResponse renders dates as YYYY-MM-DD.
type EmployeeResponse struct {
	ID             int64   `json:"id"`
	Lastname       string  `json:"lastname"`
	Firstname      string  `json:"firstname"`
	Middlename     string  `json:"middlename"`
	DepartmentID   int64   `json:"department_id"`
	DepartmentName string  `json:"department_name,omitempty"`
	PositionID     int64   `json:"position_id"`
	PositionName   string  `json:"position_name,omitempty"`
	BirthDate      string  `json:"birth_date"`
	HireDate       string  `json:"hire_date"`
	DismissalDate  *string `json:"dismissal_date"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
}

func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID,
		Lastname:       e.Lastname,
		Firstname:      e.Firstname,
		Middlename:     e.Middlename,
		DepartmentID:   e.DepartmentID,
		DepartmentName: e.DepartmentName,
		PositionID:     e.PositionID,
		PositionName:   e.PositionName,
		BirthDate:      e.BirthDate.Format(domain.DateLayout),
		HireDate:       e.HireDate.Format(domain.DateLayout),
		DismissalDate:  formatDate(e.DismissalDate),
		Phone:          e.Phone,
		Email:          e.Email,
	}
}

func NewEmployeeResponses(employees []domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		out = append(out, NewEmployeeResponse(&employees[i]))
	}
	return out
}
