package repository

import (
	"context"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
)

// UserRepository defines persistence access for portal accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
}

type userRepository struct {
	db persistence.Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.Querier) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, lastname, firstname, middlename, role, status,
        department_id, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Lastname,
		&user.Firstname,
		&user.Middlename,
		&user.Role,
		&user.Status,
		&user.DepartmentID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, lastname, firstname, middlename, role, status, department_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Lastname,
		user.Firstname,
		user.Middlename,
		user.Role,
		user.Status,
		user.DepartmentID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, lastname=$3, firstname=$4, middlename=$5,
            role=$6, status=$7, department_id=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`

	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Lastname,
		user.Firstname,
		user.Middlename,
		user.Role,
		user.Status,
		user.DepartmentID,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(persistence.Conn(ctx, r.db).QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY lastname, firstname, id`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email)=lower($1) AND id<>$2)`
	var taken bool
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, email, excludeID).Scan(&taken)
	return taken, err
}
