package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
)

// PositionRepository persists job titles.
type PositionRepository interface {
	Create(ctx context.Context, pos *domain.Position) error
	Update(ctx context.Context, pos *domain.Position) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Position, error)
	List(ctx context.Context, departmentID *int64) ([]domain.Position, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CountEmployees(ctx context.Context, id int64) (int, error)
}

type positionRepository struct {
	db persistence.Querier
}

func NewPositionRepository(db persistence.Querier) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Create(ctx context.Context, pos *domain.Position) error {
	const query = `INSERT INTO positions (name, department_id) VALUES ($1,$2) RETURNING id`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, pos.Name, pos.DepartmentID).Scan(&pos.ID)
}

func (r *positionRepository) Update(ctx context.Context, pos *domain.Position) error {
	const query = `UPDATE positions SET name=$1, department_id=$2 WHERE id=$3`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, pos.Name, pos.DepartmentID, pos.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *positionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, `DELETE FROM positions WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *positionRepository) GetByID(ctx context.Context, id int64) (*domain.Position, error) {
	const query = `
        SELECT p.id, p.name, p.department_id, d.name
        FROM positions p JOIN departments d ON d.id = p.department_id
        WHERE p.id=$1`
	var pos domain.Position
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&pos.ID, &pos.Name, &pos.DepartmentID, &pos.DepartmentName,
	); err != nil {
		return nil, err
	}
	return &pos, nil
}

// List returns every position, or only those of departmentID when it is set.
func (r *positionRepository) List(ctx context.Context, departmentID *int64) ([]domain.Position, error) {
	const query = `
        SELECT p.id, p.name, p.department_id, d.name
        FROM positions p JOIN departments d ON d.id = p.department_id
        WHERE $1::bigint IS NULL OR p.department_id = $1
        ORDER BY p.name, p.id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Position, 0)
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(&pos.ID, &pos.Name, &pos.DepartmentID, &pos.DepartmentName); err != nil {
			return nil, err
		}
		result = append(result, pos)
	}
	return result, rows.Err()
}

func (r *positionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, `SELECT id FROM positions WHERE id=$1 FOR SHARE`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *positionRepository) CountEmployees(ctx context.Context, id int64) (int, error) {
	var count int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE position_id=$1`, id).Scan(&count)
	return count, err
}
