package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/api/dto"
	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/service"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token domain.Token) error
}

// AuthHandler exposes login, logout and the current principal.
type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.AuthResponse{
		Token:     res.AccessToken,
		ExpiresAt: res.Token.ExpiresAt,
		User:      dto.NewUserResponse(res.User),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), p.Token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return respond(c, fiber.StatusOK, dto.NewUserResponse(p.User))
}
