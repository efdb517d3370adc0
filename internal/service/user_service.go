package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// UserService manages portal accounts.
type UserService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tx          persistence.TxManager
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	TxManager      persistence.TxManager
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	BcryptCost     int
}

type UserCreateInput struct {
	Email        string
	Password     string
	Lastname     string
	Firstname    string
	Middlename   string
	Role         domain.Role
	Status       domain.UserStatus
	DepartmentID int64
}

// UserUpdateInput is a partial update. A nil or empty Password keeps the current hash.
type UserUpdateInput struct {
	Email        *string
	Password     *string
	Lastname     *string
	Firstname    *string
	Middlename   *string
	Role         *domain.Role
	Status       *domain.UserStatus
	DepartmentID *int64
}

func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		tx:          deps.TxManager,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  deps.BcryptCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (in *UserCreateInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Middlename = strings.TrimSpace(in.Middlename)
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Status == "" {
		in.Status = domain.UserStatusActive
	}

	errs := fieldErrors{}
	if !validEmail(in.Email) {
		errs["email"] = "must be a valid email"
	}
	if in.Password == "" {
		errs["password"] = "required"
	}
	errs.require("lastname", in.Lastname)
	errs.require("firstname", in.Firstname)
	if !in.Role.Valid() {
		errs["role"] = "must be one of admin, user, hr"
	}
	if !in.Status.Valid() {
		errs["status"] = "must be active or blocked"
	}
	errs.requireID("department_id", in.DepartmentID)
	if len(errs) > 0 {
		return apperrors.NewValidationError("invalid user", errs)
	}
	return nil
}

func (in *UserUpdateInput) validate() error {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	in.Lastname = trimPtr(in.Lastname)
	in.Firstname = trimPtr(in.Firstname)
	in.Middlename = trimPtr(in.Middlename)

	errs := fieldErrors{}
	if in.Email != nil && !validEmail(*in.Email) {
		errs["email"] = "must be a valid email"
	}
	errs.requireIfSet("lastname", in.Lastname)
	errs.requireIfSet("firstname", in.Firstname)
	if in.Role != nil && !in.Role.Valid() {
		errs["role"] = "must be one of admin, user, hr"
	}
	if in.Status != nil && !in.Status.Valid() {
		errs["status"] = "must be active or blocked"
	}
	if in.DepartmentID != nil {
		errs.requireID("department_id", *in.DepartmentID)
	}
	if len(errs) > 0 {
		return apperrors.NewValidationError("invalid user", errs)
	}
	return nil
}

// Create registers an account in an existing department.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hash,
		Lastname:     input.Lastname,
		Firstname:    input.Firstname,
		Middlename:   input.Middlename,
		Role:         input.Role,
		Status:       input.Status,
		DepartmentID: input.DepartmentID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireDepartment(ctx, s.departments, user.DepartmentID); err != nil {
			return err
		}
		if err := s.requireFreeEmail(ctx, user.Email, 0); err != nil {
			return err
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserCreated, user.ID, nil,
		events.UserCreatedPayload{Email: user.Email, Role: string(user.Role), DepartmentID: user.DepartmentID}))
	return user, nil
}

// Get returns nil without error when the user does not exist.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// FindByEmail returns nil without error when no account uses the email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Update merges the given fields into the stored account; false means no such user.
func (s *UserService) Update(ctx context.Context, id int64, input UserUpdateInput) (bool, error) {
	if err := input.validate(); err != nil {
		return false, err
	}

	var newHash string
	switch {
	case input.Password == nil:
	case *input.Password == "":
	default:
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return false, apperrors.NewInternalError(err)
		}
		newHash = hash
	}

	found := true
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		if input.Email != nil && *input.Email != user.Email {
			if err := s.requireFreeEmail(ctx, *input.Email, id); err != nil {
				return err
			}
			user.Email = *input.Email
		}
		if input.DepartmentID != nil && *input.DepartmentID != user.DepartmentID {
			if err := requireDepartment(ctx, s.departments, *input.DepartmentID); err != nil {
				return err
			}
			user.DepartmentID = *input.DepartmentID
		}
		if input.Lastname != nil {
			user.Lastname = *input.Lastname
		}
		if input.Firstname != nil {
			user.Firstname = *input.Firstname
		}
		if input.Middlename != nil {
			user.Middlename = *input.Middlename
		}
		if input.Role != nil {
			user.Role = *input.Role
		}
		if input.Status != nil {
			user.Status = *input.Status
		}
		if newHash != "" {
			user.PasswordHash = newHash
		}
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if found {
		s.logger.Info("user updated", zap.Int64("user_id", id), zap.Bool("password_changed", newHash != ""))
	}
	return found, nil
}

// SetPassword replaces the password of the account with the given email.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return apperrors.NewValidationError("invalid password", map[string]any{"password": "required"})
	}
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	_, err = s.Update(ctx, user.ID, UserUpdateInput{Password: &password})
	return err
}

func (s *UserService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if ok {
		s.logger.Info("user deleted", zap.Int64("user_id", id))
	}
	return ok, nil
}

func (s *UserService) requireFreeEmail(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.users.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return nil
}

// requireDepartment fails with not-found when the department is missing. The row stays
// share-locked for the rest of the transaction.
func requireDepartment(ctx context.Context, departments repository.DepartmentRepository, id int64) error {
	exists, err := departments.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("department", map[string]any{"department_id": id})
	}
	return nil
}
