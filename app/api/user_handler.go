package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ingexai/auth"
	"ingexai/store"
	"ingexai/types"
)

type UserHandler struct {
	userStore store.DBStorer
	jwtSecret string
}

func NewUserHandler(userStore store.DBStorer, jwtSecret string) *UserHandler {
	return &UserHandler{
		userStore: userStore,
		jwtSecret: jwtSecret,
	}
}

func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var params types.UserParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	hashed, err := auth.HashPassword(params.Password)
	if err != nil {
		return err
	}

	user := &types.User{
		Username:       params.Username,
		HashedPassword: hashed,
	}
	if err := h.userStore.CreateUser(c.Context(), user); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var params types.UserParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	user, err := h.userStore.GetUserByUsername(c.Context(), params.Username)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return ErrInvalidCredentials()
		}
		return err
	}
	if !auth.CheckPassword(user.HashedPassword, params.Password) {
		return ErrInvalidCredentials()
	}

	token, err := auth.GenerateToken(user.Username, h.jwtSecret)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
