package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/api/dto"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/orgtree"
	"github.com/nsrz/intranet/internal/service"
)

// DepartmentService is the part of service.DepartmentService the handler uses.
type DepartmentService interface {
	Create(ctx context.Context, input service.DepartmentCreateInput) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Get(ctx context.Context, id int64) (*domain.Department, error)
	Update(ctx context.Context, id int64, input service.DepartmentUpdateInput) (bool, error)
	Move(ctx context.Context, id int64, parentID *int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Usage(ctx context.Context, id int64) (*domain.DepartmentUsage, error)
	Hierarchy(ctx context.Context) ([]domain.HierarchyEntry, error)
	Tree(ctx context.Context) ([]*orgtree.TreeNode, error)
	WithEmployees(ctx context.Context) ([]domain.DepartmentWithEmployees, error)
	Structure(ctx context.Context) (*service.Structure, error)
}

// DepartmentsHandler exposes the department hierarchy.
type DepartmentsHandler struct {
	departments DepartmentService
}

func NewDepartmentsHandler(departments DepartmentService) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments}
}

// List handles GET /api/departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	items, err := h.departments.List(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, items)
}

// Create handles POST /api/departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.DepartmentCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dept, err := h.departments.Create(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dept)
}

// Get handles GET /api/departments/:id.
func (h *DepartmentsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	dept, err := h.departments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if dept == nil {
		return notFound("department", id)
	}
	return respond(c, fiber.StatusOK, dept)
}

// Update handles PUT /api/departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, err := h.departments.Update(c.UserContext(), id, req.Input())
	if err != nil {
		return err
	}
	if !ok {
		return notFound("department", id)
	}
	return h.Get(c)
}

// Move handles PUT /api/departments/:id/parent.
func (h *DepartmentsHandler) Move(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentParentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, err := h.departments.Move(c.UserContext(), id, req.ParentID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("department", id)
	}
	return h.Get(c)
}

// Delete handles DELETE /api/departments/:id.
func (h *DepartmentsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := h.departments.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("department", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Usage handles GET /api/departments/:id/usage.
func (h *DepartmentsHandler) Usage(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	usage, err := h.departments.Usage(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, usage)
}

// Hierarchy handles GET /api/departments/hierarchy.
func (h *DepartmentsHandler) Hierarchy(c *fiber.Ctx) error {
	entries, err := h.departments.Hierarchy(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, entries)
}

// Tree handles GET /api/departments/tree.
func (h *DepartmentsHandler) Tree(c *fiber.Ctx) error {
	roots, err := h.departments.Tree(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, roots)
}

// WithEmployees handles GET /api/departments/with-employees.
func (h *DepartmentsHandler) WithEmployees(c *fiber.Ctx) error {
	items, err := h.departments.WithEmployees(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, items)
}

// Structure handles GET /api/structure.
func (h *DepartmentsHandler) Structure(c *fiber.Ctx) error {
	s, err := h.departments.Structure(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, s)
}
