package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// PositionService manages job titles.
type PositionService struct {
	positions   repository.PositionRepository
	departments repository.DepartmentRepository
	tx          persistence.TxManager
	logger      *zap.Logger
}

type PositionDependencies struct {
	PositionRepo   repository.PositionRepository
	DepartmentRepo repository.DepartmentRepository
	TxManager      persistence.TxManager
	Logger         *zap.Logger
}

type PositionInput struct {
	Name         *string
	DepartmentID *int64
}

func NewPositionService(deps PositionDependencies) *PositionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionService{
		positions:   deps.PositionRepo,
		departments: deps.DepartmentRepo,
		tx:          deps.TxManager,
		logger:      logger,
	}
}

func (s *PositionService) Create(ctx context.Context, name string, departmentID int64) (*domain.Position, error) {
	name = strings.TrimSpace(name)
	errs := fieldErrors{}
	errs.require("name", name)
	errs.requireID("department_id", departmentID)
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError("invalid position", errs)
	}

	pos := &domain.Position{Name: name, DepartmentID: departmentID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireDepartment(ctx, s.departments, departmentID); err != nil {
			return err
		}
		return s.positions.Create(ctx, pos)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("position created", zap.Int64("position_id", pos.ID))
	return s.Get(ctx, pos.ID)
}

// Get returns nil without error when the position does not exist.
func (s *PositionService) Get(ctx context.Context, id int64) (*domain.Position, error) {
	pos, err := s.positions.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pos, nil
}

// List returns all positions, or those of one department.
func (s *PositionService) List(ctx context.Context, departmentID *int64) ([]domain.Position, error) {
	positions, err := s.positions.List(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return positions, nil
}

// Update merges the given fields; false means no such position.
func (s *PositionService) Update(ctx context.Context, id int64, input PositionInput) (bool, error) {
	input.Name = trimPtr(input.Name)
	errs := fieldErrors{}
	errs.requireIfSet("name", input.Name)
	if input.DepartmentID != nil {
		errs.requireID("department_id", *input.DepartmentID)
	}
	if len(errs) > 0 {
		return false, apperrors.NewValidationError("invalid position", errs)
	}

	found := true
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pos, err := s.positions.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		if input.Name != nil {
			pos.Name = *input.Name
		}
		if input.DepartmentID != nil && *input.DepartmentID != pos.DepartmentID {
			if err := requireDepartment(ctx, s.departments, *input.DepartmentID); err != nil {
				return err
			}
			pos.DepartmentID = *input.DepartmentID
		}
		return s.positions.Update(ctx, pos)
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return found, nil
}

// Delete refuses while employees hold the position.
func (s *PositionService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		count, err := s.positions.CountEmployees(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewConflict("position is in use", map[string]any{"employees": count})
		}
		deleted, err = s.positions.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return deleted, nil
}
