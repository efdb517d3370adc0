package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// EmployeeService manages the personnel register.
type EmployeeService struct {
	employees   repository.EmployeeRepository
	positions   repository.PositionRepository
	departments repository.DepartmentRepository
	tx          persistence.TxManager
	logger      *zap.Logger
}

type EmployeeDependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	PositionRepo   repository.PositionRepository
	DepartmentRepo repository.DepartmentRepository
	TxManager      persistence.TxManager
	Logger         *zap.Logger
}

type EmployeeCreateInput struct {
	Lastname      string
	Firstname     string
	Middlename    string
	DepartmentID  int64
	PositionID    int64
	BirthDate     time.Time
	HireDate      time.Time
	DismissalDate *time.Time
	Phone         *string
	Email         *string
}

// EmployeeUpdateInput is a partial update. ClearDismissal reinstates an employee;
// an empty Phone or Email clears the value.
type EmployeeUpdateInput struct {
	Lastname       *string
	Firstname      *string
	Middlename     *string
	DepartmentID   *int64
	PositionID     *int64
	BirthDate      *time.Time
	HireDate       *time.Time
	DismissalDate  *time.Time
	ClearDismissal bool
	Phone          *string
	Email          *string
}

func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{
		employees:   deps.EmployeeRepo,
		positions:   deps.PositionRepo,
		departments: deps.DepartmentRepo,
		tx:          deps.TxManager,
		logger:      logger,
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateEmployee(emp *domain.Employee) error {
	errs := fieldErrors{}
	errs.require("lastname", emp.Lastname)
	errs.require("firstname", emp.Firstname)
	errs.requireID("department_id", emp.DepartmentID)
	errs.requireID("position_id", emp.PositionID)
	if emp.BirthDate.IsZero() {
		errs["birth_date"] = "required"
	}
	if emp.HireDate.IsZero() {
		errs["hire_date"] = "required"
	}
	if emp.DismissalDate != nil && emp.DismissalDate.Before(emp.HireDate) {
		errs["dismissal_date"] = "must not precede hire_date"
	}
	if emp.Email != nil && !validEmail(strings.ToLower(*emp.Email)) {
		errs["email"] = "must be a valid email"
	}
	if len(errs) > 0 {
		return apperrors.NewValidationError("invalid employee", errs)
	}
	return nil
}

func (s *EmployeeService) requireReferences(ctx context.Context, departmentID, positionID int64) error {
	if err := requireDepartment(ctx, s.departments, departmentID); err != nil {
		return err
	}
	exists, err := s.positions.Exists(ctx, positionID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("position", map[string]any{"position_id": positionID})
	}
	return nil
}

func (s *EmployeeService) Create(ctx context.Context, input EmployeeCreateInput) (*domain.Employee, error) {
	emp := &domain.Employee{
		Lastname:      strings.TrimSpace(input.Lastname),
		Firstname:     strings.TrimSpace(input.Firstname),
		Middlename:    strings.TrimSpace(input.Middlename),
		DepartmentID:  input.DepartmentID,
		PositionID:    input.PositionID,
		BirthDate:     input.BirthDate,
		HireDate:      input.HireDate,
		DismissalDate: input.DismissalDate,
		Phone:         optional(input.Phone),
		Email:         optional(input.Email),
	}
	if err := validateEmployee(emp); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireReferences(ctx, emp.DepartmentID, emp.PositionID); err != nil {
			return err
		}
		return s.employees.Create(ctx, emp)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("employee created", zap.Int64("employee_id", emp.ID), zap.Int64("department_id", emp.DepartmentID))
	return s.Get(ctx, emp.ID)
}

// Get returns nil without error when the employee does not exist.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return emp, nil
}

func (s *EmployeeService) List(ctx context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	employees, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// Update merges the given fields; false means no such employee.
func (s *EmployeeService) Update(ctx context.Context, id int64, input EmployeeUpdateInput) (bool, error) {
	found := true
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		if input.Lastname != nil {
			emp.Lastname = strings.TrimSpace(*input.Lastname)
		}
		if input.Firstname != nil {
			emp.Firstname = strings.TrimSpace(*input.Firstname)
		}
		if input.Middlename != nil {
			emp.Middlename = strings.TrimSpace(*input.Middlename)
		}
		if input.BirthDate != nil {
			emp.BirthDate = *input.BirthDate
		}
		if input.HireDate != nil {
			emp.HireDate = *input.HireDate
		}
		switch {
		case input.ClearDismissal:
			emp.DismissalDate = nil
		case input.DismissalDate != nil:
			emp.DismissalDate = input.DismissalDate
		}
		if input.Phone != nil {
			emp.Phone = optional(input.Phone)
		}
		if input.Email != nil {
			emp.Email = optional(input.Email)
		}

		refsChanged := false
		if input.DepartmentID != nil && *input.DepartmentID != emp.DepartmentID {
			emp.DepartmentID = *input.DepartmentID
			refsChanged = true
		}
		if input.PositionID != nil && *input.PositionID != emp.PositionID {
			emp.PositionID = *input.PositionID
			refsChanged = true
		}

		if err := validateEmployee(emp); err != nil {
			return err
		}
		if refsChanged {
			if err := s.requireReferences(ctx, emp.DepartmentID, emp.PositionID); err != nil {
				return err
			}
		}
		return s.employees.Update(ctx, emp)
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return found, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.employees.Delete(ctx, id)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return ok, nil
}
