package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/api/dto"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/repository"
	"github.com/nsrz/intranet/internal/service"
)

type PositionService interface {
	Create(ctx context.Context, name string, departmentID int64) (*domain.Position, error)
	Get(ctx context.Context, id int64) (*domain.Position, error)
	List(ctx context.Context, departmentID *int64) ([]domain.Position, error)
	Update(ctx context.Context, id int64, input service.PositionInput) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type EmployeeService interface {
	Create(ctx context.Context, input service.EmployeeCreateInput) (*domain.Employee, error)
	Get(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error)
	Update(ctx context.Context, id int64, input service.EmployeeUpdateInput) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// StaffHandler serves positions and employees, the routes hr may write.
type StaffHandler struct {
	positions PositionService
	employees EmployeeService
}

func NewStaffHandler(positions PositionService, employees EmployeeService) *StaffHandler {
	return &StaffHandler{positions: positions, employees: employees}
}

// ListPositions handles GET /api/positions?department_id=.
func (h *StaffHandler) ListPositions(c *fiber.Ctx) error {
	deptID, err := queryID(c, "department_id")
	if err != nil {
		return err
	}
	items, err := h.positions.List(c.UserContext(), deptID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, items)
}

func (h *StaffHandler) CreatePosition(c *fiber.Ctx) error {
	var req dto.PositionCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pos, err := h.positions.Create(c.UserContext(), req.Name, req.DepartmentID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, pos)
}

func (h *StaffHandler) GetPosition(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	pos, err := h.positions.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if pos == nil {
		return notFound("position", id)
	}
	return respond(c, fiber.StatusOK, pos)
}

func (h *StaffHandler) UpdatePosition(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.PositionUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, err := h.positions.Update(c.UserContext(), id, req.Input())
	if err != nil {
		return err
	}
	if !ok {
		return notFound("position", id)
	}
	return h.GetPosition(c)
}

func (h *StaffHandler) DeletePosition(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := h.positions.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("position", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListEmployees handles GET /api/employees?department_id=&include_dismissed=true.
func (h *StaffHandler) ListEmployees(c *fiber.Ctx) error {
	deptID, err := queryID(c, "department_id")
	if err != nil {
		return err
	}
	filter := repository.EmployeeFilter{
		DepartmentID:     deptID,
		IncludeDismissed: c.QueryBool("include_dismissed", false),
	}
	items, err := h.employees.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewEmployeeResponses(items))
}

func (h *StaffHandler) CreateEmployee(c *fiber.Ctx) error {
	var req dto.EmployeeCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input, err := req.Input()
	if err != nil {
		return err
	}
	emp, err := h.employees.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewEmployeeResponse(emp))
}

func (h *StaffHandler) GetEmployee(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	emp, err := h.employees.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if emp == nil {
		return notFound("employee", id)
	}
	return respond(c, fiber.StatusOK, dto.NewEmployeeResponse(emp))
}

func (h *StaffHandler) UpdateEmployee(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input, err := req.Input()
	if err != nil {
		return err
	}
	ok, err := h.employees.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("employee", id)
	}
	return h.GetEmployee(c)
}

func (h *StaffHandler) DeleteEmployee(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := h.employees.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("employee", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
