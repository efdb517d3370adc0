package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
)

// hierarchyLockKey serializes reparenting so two concurrent moves cannot close a loop.
const hierarchyLockKey int64 = 0x6465707473 // "depts"

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ParentOf(ctx context.Context, id int64) (*int64, bool, error)
	CodeTaken(ctx context.Context, organization, code string, excludeID int64) (bool, error)
	Usage(ctx context.Context, id int64) (domain.DepartmentUsage, error)
	Hierarchy(ctx context.Context) ([]domain.HierarchyEntry, error)
	ListWithEmployees(ctx context.Context) ([]domain.DepartmentWithEmployees, error)
	LockHierarchy(ctx context.Context) error
}

type departmentRepository struct {
	db persistence.Querier
}

// NewDepartmentRepository builds the repository. Calls join the transaction carried by ctx.
func NewDepartmentRepository(db persistence.Querier) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, fullname, code_zup, organization, parent_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		dept.Name,
		dept.Fullname,
		dept.CodeZup,
		dept.Organization,
		dept.ParentID,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments
        SET name=$1, fullname=$2, code_zup=$3, organization=$4, parent_id=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		dept.Name,
		dept.Fullname,
		dept.CodeZup,
		dept.Organization,
		dept.ParentID,
		dept.ID,
	).Scan(&dept.UpdatedAt)
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM departments WHERE id=$1`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	const query = `
        SELECT id, name, fullname, code_zup, organization, parent_id, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Fullname,
		&dept.CodeZup,
		&dept.Organization,
		&dept.ParentID,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, fullname, code_zup, organization, parent_id, created_at, updated_at
        FROM departments ORDER BY name, id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Department, 0)
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Fullname,
			&dept.CodeZup,
			&dept.Organization,
			&dept.ParentID,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

// Exists share-locks the row so it cannot be deleted before the caller's transaction ends.
func (r *departmentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT id FROM departments WHERE id=$1 FOR SHARE`
	var found int64
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *departmentRepository) ParentOf(ctx context.Context, id int64) (*int64, bool, error) {
	const query = `SELECT parent_id FROM departments WHERE id=$1`
	var parentID *int64
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&parentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return parentID, true, nil
}

func (r *departmentRepository) CodeTaken(ctx context.Context, organization, code string, excludeID int64) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM departments
            WHERE organization=$1 AND code_zup=$2 AND id<>$3
        )`
	var taken bool
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, organization, code, excludeID).Scan(&taken)
	return taken, err
}

func (r *departmentRepository) Usage(ctx context.Context, id int64) (domain.DepartmentUsage, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM users WHERE department_id=$1),
            (SELECT COUNT(*) FROM employees WHERE department_id=$1),
            (SELECT COUNT(*) FROM positions WHERE department_id=$1),
            (SELECT COUNT(*) FROM departments WHERE parent_id=$1)`
	var usage domain.DepartmentUsage
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&usage.Users,
		&usage.Employees,
		&usage.Positions,
		&usage.Children,
	)
	return usage, err
}

// Hierarchy walks the tree from every root. Rows not reachable from a root are skipped.
func (r *departmentRepository) Hierarchy(ctx context.Context) ([]domain.HierarchyEntry, error) {
	const query = `
        WITH RECURSIVE tree AS (
            SELECT id, name, parent_id, 0 AS level
            FROM departments
            WHERE parent_id IS NULL
            UNION ALL
            SELECT d.id, d.name, d.parent_id, t.level + 1
            FROM departments d
            JOIN tree t ON d.parent_id = t.id
        )
        SELECT id, name, parent_id, level FROM tree
        ORDER BY level, name, id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.HierarchyEntry, 0)
	for rows.Next() {
		var entry domain.HierarchyEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.ParentID, &entry.Level); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *departmentRepository) ListWithEmployees(ctx context.Context) ([]domain.DepartmentWithEmployees, error) {
	const query = `
        SELECT d.id, d.name, d.fullname, d.code_zup, d.organization, d.parent_id,
               e.id, e.lastname, e.firstname, e.middlename, e.position_id, p.name
        FROM departments d
        LEFT JOIN employees e ON e.department_id = d.id
        LEFT JOIN positions p ON p.id = e.position_id
        ORDER BY d.name, d.id, e.lastname, e.firstname, e.id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flat []departmentEmployeeRow
	for rows.Next() {
		var row departmentEmployeeRow
		if err := rows.Scan(
			&row.DepartmentID,
			&row.Name,
			&row.Fullname,
			&row.CodeZup,
			&row.Organization,
			&row.ParentID,
			&row.EmployeeID,
			&row.Lastname,
			&row.Firstname,
			&row.Middlename,
			&row.PositionID,
			&row.PositionName,
		); err != nil {
			return nil, err
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupDepartmentRows(flat), nil
}

// LockHierarchy takes a transaction-scoped advisory lock; it must run inside a transaction.
func (r *departmentRepository) LockHierarchy(ctx context.Context) error {
	const query = `SELECT pg_advisory_xact_lock($1)`
	_, err := persistence.Conn(ctx, r.db).Exec(ctx, query, hierarchyLockKey)
	return err
}

// departmentEmployeeRow is one row of the departments ⟕ employees ⟕ positions join.
type departmentEmployeeRow struct {
	DepartmentID int64
	Name         string
	Fullname     string
	CodeZup      string
	Organization string
	ParentID     *int64
	EmployeeID   *int64
	Lastname     *string
	Firstname    *string
	Middlename   *string
	PositionID   *int64
	PositionName *string
}

// groupDepartmentRows folds joined rows into one entry per department, keeping row order.
// A department without employees yields an empty slice, never a phantom employee.
func groupDepartmentRows(rows []departmentEmployeeRow) []domain.DepartmentWithEmployees {
	result := make([]domain.DepartmentWithEmployees, 0)
	index := make(map[int64]int)
	for _, row := range rows {
		pos, ok := index[row.DepartmentID]
		if !ok {
			result = append(result, domain.DepartmentWithEmployees{
				ID:           row.DepartmentID,
				Name:         row.Name,
				Fullname:     row.Fullname,
				CodeZup:      row.CodeZup,
				Organization: row.Organization,
				ParentID:     row.ParentID,
				Employees:    []domain.DepartmentEmployee{},
			})
			pos = len(result) - 1
			index[row.DepartmentID] = pos
		}
		if row.EmployeeID == nil {
			continue
		}
		result[pos].Employees = append(result[pos].Employees, domain.DepartmentEmployee{
			ID:           *row.EmployeeID,
			Lastname:     deref(row.Lastname),
			Firstname:    deref(row.Firstname),
			Middlename:   deref(row.Middlename),
			PositionID:   derefID(row.PositionID),
			PositionName: row.PositionName,
		})
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
