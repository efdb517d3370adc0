package dto

import (
	"time"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
)

// UserCreateRequest payload for new accounts.
type UserCreateRequest struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required"`
	Lastname     string `json:"lastname" validate:"required,max=100"`
	Firstname    string `json:"firstname" validate:"required,max=100"`
	Middlename   string `json:"middlename" validate:"omitempty,max=100"`
	Role         string `json:"role" validate:"omitempty,oneof=admin user hr"`
	Status       string `json:"status" validate:"omitempty,oneof=active blocked"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
}

func (r UserCreateRequest) Input() service.UserCreateInput {
	return service.UserCreateInput{
		Email:        r.Email,
		Password:     r.Password,
		Lastname:     r.Lastname,
		Firstname:    r.Firstname,
		Middlename:   r.Middlename,
		Role:         domain.Role(r.Role),
		Status:       domain.UserStatus(r.Status),
		DepartmentID: r.DepartmentID,
	}
}

// UserUpdateRequest is a partial update; an empty password keeps the current one.
type UserUpdateRequest struct {
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	Password     *string `json:"password"`
	Lastname     *string `json:"lastname" validate:"omitempty,max=100"`
	Firstname    *string `json:"firstname" validate:"omitempty,max=100"`
	Middlename   *string `json:"middlename" validate:"omitempty,max=100"`
	Role         *string `json:"role" validate:"omitempty,oneof=admin user hr"`
	Status       *string `json:"status" validate:"omitempty,oneof=active blocked"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,gt=0"`
}

func (r UserUpdateRequest) Input() service.UserUpdateInput {
	in := service.UserUpdateInput{
		Email:        r.Email,
		Password:     r.Password,
		Lastname:     r.Lastname,
		Firstname:    r.Firstname,
		Middlename:   r.Middlename,
		DepartmentID: r.DepartmentID,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	if r.Status != nil {
		status := domain.UserStatus(*r.Status)
		in.Status = &status
	}
	return in
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Lastname     string    `json:"lastname"`
	Firstname    string    `json:"firstname"`
	Middlename   string    `json:"middlename"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	DepartmentID int64     `json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Lastname:     u.Lastname,
		Firstname:    u.Firstname,
		Middlename:   u.Middlename,
		Role:         string(u.Role),
		Status:       string(u.Status),
		DepartmentID: u.DepartmentID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
