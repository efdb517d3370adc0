package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
)

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	DepartmentID     *int64
	IncludeDismissed bool
}

// EmployeeRepository persists employees.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	Update(ctx context.Context, emp *domain.Employee) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	Count(ctx context.Context) (int, error)
}

type employeeRepository struct {
	db persistence.Querier
}

func NewEmployeeRepository(db persistence.Querier) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeSelect = `
        SELECT e.id, e.lastname, e.firstname, e.middlename, e.department_id, e.position_id,
               e.birth_date, e.hire_date, e.dismissal_date, e.phone, e.email, d.name, p.name
        FROM employees e
        JOIN departments d ON d.id = e.department_id
        JOIN positions p ON p.id = e.position_id`

func scanEmployee(row interface{ Scan(dest ...any) error }) (*domain.Employee, error) {
	var emp domain.Employee
	if err := row.Scan(
		&emp.ID,
		&emp.Lastname,
		&emp.Firstname,
		&emp.Middlename,
		&emp.DepartmentID,
		&emp.PositionID,
		&emp.BirthDate,
		&emp.HireDate,
		&emp.DismissalDate,
		&emp.Phone,
		&emp.Email,
		&emp.DepartmentName,
		&emp.PositionName,
	); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	const query = `
        INSERT INTO employees (lastname, firstname, middlename, department_id, position_id,
            birth_date, hire_date, dismissal_date, phone, email)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		emp.Lastname,
		emp.Firstname,
		emp.Middlename,
		emp.DepartmentID,
		emp.PositionID,
		emp.BirthDate,
		emp.HireDate,
		emp.DismissalDate,
		emp.Phone,
		emp.Email,
	).Scan(&emp.ID)
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	const query = `
        UPDATE employees SET lastname=$1, firstname=$2, middlename=$3, department_id=$4,
            position_id=$5, birth_date=$6, hire_date=$7, dismissal_date=$8, phone=$9, email=$10
        WHERE id=$11`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query,
		emp.Lastname,
		emp.Firstname,
		emp.Middlename,
		emp.DepartmentID,
		emp.PositionID,
		emp.BirthDate,
		emp.HireDate,
		emp.DismissalDate,
		emp.Phone,
		emp.Email,
		emp.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return scanEmployee(persistence.Conn(ctx, r.db).QueryRow(ctx, employeeSelect+` WHERE e.id=$1`, id))
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	query := employeeSelect + `
        WHERE ($1::bigint IS NULL OR e.department_id = $1)
          AND ($2 OR e.dismissal_date IS NULL)
        ORDER BY e.lastname, e.firstname, e.middlename, e.id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, filter.DepartmentID, filter.IncludeDismissed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *emp)
	}
	return result, rows.Err()
}

func (r *employeeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count)
	return count, err
}
