package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/orgtree"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// DepartmentService owns the department hierarchy: every write that can change the tree
// shape is validated here inside one transaction.
type DepartmentService struct {
	departments  repository.DepartmentRepository
	tx           persistence.TxManager
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	organization string
}

// DepartmentDependencies bundles collaborators for the department service.
type DepartmentDependencies struct {
	DepartmentRepo   repository.DepartmentRepository
	TxManager        persistence.TxManager
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	OrganizationName string
}

// DepartmentCreateInput describes a new department.
type DepartmentCreateInput struct {
	Name         string
	Fullname     string
	CodeZup      string
	Organization string
	ParentID     *int64
}

// DepartmentUpdateInput is a partial update; nil fields keep their value.
// ParentIDSet distinguishes "make root" (ParentID nil) from "leave parent alone".
type DepartmentUpdateInput struct {
	Name         *string
	Fullname     *string
	CodeZup      *string
	Organization *string
	ParentID     *int64
	ParentIDSet  bool
}

// Structure is the organization-wide view served to the portal's structure page.
type Structure struct {
	Name        string                           `json:"name"`
	Departments []domain.DepartmentWithEmployees `json:"departments"`
}

// NewDepartmentService builds the service.
func NewDepartmentService(deps DepartmentDependencies) *DepartmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{
		departments:  deps.DepartmentRepo,
		tx:           deps.TxManager,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		organization: deps.OrganizationName,
	}
}

func (in DepartmentCreateInput) normalize() DepartmentCreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.CodeZup = strings.TrimSpace(in.CodeZup)
	in.Organization = strings.TrimSpace(in.Organization)
	return in
}

func (in DepartmentCreateInput) validate() error {
	errs := fieldErrors{}
	errs.require("name", in.Name)
	errs.require("fullname", in.Fullname)
	errs.require("code_zup", in.CodeZup)
	errs.require("organization", in.Organization)
	if in.ParentID != nil && *in.ParentID <= 0 {
		errs["parent_id"] = "must be a positive id"
	}
	if len(errs) > 0 {
		return apperrors.NewValidationError("invalid department", errs)
	}
	return nil
}

func (in DepartmentUpdateInput) validate() error {
	errs := fieldErrors{}
	errs.requireIfSet("name", in.Name)
	errs.requireIfSet("fullname", in.Fullname)
	errs.requireIfSet("code_zup", in.CodeZup)
	errs.requireIfSet("organization", in.Organization)
	if in.ParentIDSet && in.ParentID != nil && *in.ParentID <= 0 {
		errs["parent_id"] = "must be a positive id"
	}
	if len(errs) > 0 {
		return apperrors.NewValidationError("invalid department", errs)
	}
	return nil
}

// Create inserts a department. The parent, when given, must exist.
func (s *DepartmentService) Create(ctx context.Context, input DepartmentCreateInput) (*domain.Department, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	dept := &domain.Department{
		Name:         input.Name,
		Fullname:     input.Fullname,
		CodeZup:      input.CodeZup,
		Organization: input.Organization,
		ParentID:     input.ParentID,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if dept.ParentID != nil {
			if err := s.requireParent(ctx, *dept.ParentID); err != nil {
				return err
			}
		}
		if err := s.requireFreeCode(ctx, dept.Organization, dept.CodeZup, 0); err != nil {
			return err
		}
		return s.departments.Create(ctx, dept)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("department created", zap.Int64("department_id", dept.ID), zap.String("code_zup", dept.CodeZup))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventDepartmentCreated, dept.ID, nil,
		events.DepartmentCreatedPayload{Name: dept.Name, CodeZup: dept.CodeZup, ParentID: dept.ParentID}))
	return dept, nil
}

// List returns every department ordered by name.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sort.SliceStable(depts, func(i, j int) bool {
		if depts[i].Name != depts[j].Name {
			return depts[i].Name < depts[j].Name
		}
		return depts[i].ID < depts[j].ID
	})
	return depts, nil
}

// Get returns nil without error when the department does not exist.
func (s *DepartmentService) Get(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// Update applies the given fields. It reports false, changing nothing, for an unknown id.
func (s *DepartmentService) Update(ctx context.Context, id int64, input DepartmentUpdateInput) (bool, error) {
	input.Name = trimPtr(input.Name)
	input.Fullname = trimPtr(input.Fullname)
	input.CodeZup = trimPtr(input.CodeZup)
	input.Organization = trimPtr(input.Organization)
	if err := input.validate(); err != nil {
		return false, err
	}

	found := true
	var updated *domain.Department
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if input.ParentIDSet {
			if err := s.departments.LockHierarchy(ctx); err != nil {
				return err
			}
		}

		dept, err := s.departments.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		codeChanged := false
		if input.Name != nil {
			dept.Name = *input.Name
		}
		if input.Fullname != nil {
			dept.Fullname = *input.Fullname
		}
		if input.CodeZup != nil && *input.CodeZup != dept.CodeZup {
			dept.CodeZup = *input.CodeZup
			codeChanged = true
		}
		if input.Organization != nil && *input.Organization != dept.Organization {
			dept.Organization = *input.Organization
			codeChanged = true
		}
		if input.ParentIDSet {
			if err := s.checkReparent(ctx, id, input.ParentID); err != nil {
				return err
			}
			dept.ParentID = input.ParentID
		}
		if codeChanged {
			if err := s.requireFreeCode(ctx, dept.Organization, dept.CodeZup, dept.ID); err != nil {
				return err
			}
		}

		updated = dept
		return s.departments.Update(ctx, dept)
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if !found {
		return false, nil
	}

	s.logger.Info("department updated", zap.Int64("department_id", updated.ID))
	return true, nil
}

// Move reparents a department; a nil parent makes it a root.
func (s *DepartmentService) Move(ctx context.Context, id int64, parentID *int64) (bool, error) {
	return s.Update(ctx, id, DepartmentUpdateInput{ParentID: parentID, ParentIDSet: true})
}

// Delete removes a department nothing refers to. It reports false for an unknown id and
// fails with a conflict listing the references otherwise.
func (s *DepartmentService) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted *domain.Department
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		dept, err := s.departments.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		usage, err := s.departments.Usage(ctx, id)
		if err != nil {
			return err
		}
		if usage.InUse() {
			return apperrors.NewConflict("department is in use", map[string]any{
				"users":     usage.Users,
				"employees": usage.Employees,
				"positions": usage.Positions,
				"children":  usage.Children,
			})
		}

		ok, err := s.departments.Delete(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			deleted = dept
		}
		return nil
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if deleted == nil {
		return false, nil
	}

	s.logger.Info("department deleted", zap.Int64("department_id", id))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventDepartmentDeleted, id, nil,
		events.DepartmentDeletedPayload{Name: deleted.Name}))
	return true, nil
}

// Usage counts the rows referring to a department.
func (s *DepartmentService) Usage(ctx context.Context, id int64) (*domain.DepartmentUsage, error) {
	exists, err := s.departments.Exists(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	usage, err := s.departments.Usage(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &usage, nil
}

// Hierarchy returns the level-ordered flattening of the tree.
func (s *DepartmentService) Hierarchy(ctx context.Context) ([]domain.HierarchyEntry, error) {
	entries, err := s.departments.Hierarchy(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Tree nests the output of Hierarchy.
func (s *DepartmentService) Tree(ctx context.Context) ([]*orgtree.TreeNode, error) {
	entries, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return orgtree.Nest(entries), nil
}

// WithEmployees lists departments with their employees embedded.
func (s *DepartmentService) WithEmployees(ctx context.Context) ([]domain.DepartmentWithEmployees, error) {
	depts, err := s.departments.ListWithEmployees(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// Structure wraps WithEmployees under the organization name.
func (s *DepartmentService) Structure(ctx context.Context) (*Structure, error) {
	depts, err := s.WithEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return &Structure{Name: s.organization, Departments: depts}, nil
}

func (s *DepartmentService) requireParent(ctx context.Context, parentID int64) error {
	exists, err := s.departments.Exists(ctx, parentID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("parent department", map[string]any{"parent_id": parentID})
	}
	return nil
}

func (s *DepartmentService) requireFreeCode(ctx context.Context, organization, code string, excludeID int64) error {
	taken, err := s.departments.CodeTaken(ctx, organization, code, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("code_zup already used in organization", map[string]any{
			"organization": organization,
			"code_zup":     code,
		})
	}
	return nil
}

// checkReparent rejects self-parenting, unknown parents and moves under a descendant.
func (s *DepartmentService) checkReparent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return apperrors.NewValidationError("department cannot be its own parent", map[string]any{"parent_id": *parentID})
	}
	if err := s.requireParent(ctx, *parentID); err != nil {
		return err
	}
	cycle, err := orgtree.WouldCycle(id, *parentID, func(current int64) (*int64, bool, error) {
		return s.departments.ParentOf(ctx, current)
	})
	if err != nil {
		return err
	}
	if cycle {
		return apperrors.NewValidationError("parent would create a cycle", map[string]any{"parent_id": *parentID})
	}
	return nil
}
