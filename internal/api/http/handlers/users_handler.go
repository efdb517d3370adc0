package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/api/dto"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
)

type UserService interface {
	Create(ctx context.Context, input service.UserCreateInput) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, input service.UserUpdateInput) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// UsersHandler manages portal accounts.
type UsersHandler struct {
	users UserService
}

func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewUserResponses(users))
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewUserResponse(user))
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user", id)
	}
	return respond(c, fiber.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, err := h.users.Update(c.UserContext(), id, req.Input())
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user", id)
	}
	return h.Get(c)
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := h.users.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
