package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
)

// UserHandler serves the administrator's user management routes.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type createUserRequest struct {
	Username    string   `json:"username"     validate:"required,max=64"`
	Password    string   `json:"password"     validate:"required"`
	DisplayName string   `json:"display_name" validate:"max=128"`
	Role        string   `json:"role"         validate:"max=64"`
	Permissions []string `json:"permissions"  validate:"omitempty,dive,required"`
}

type updateUserRequest struct {
	Password    *string  `json:"password"     validate:"omitempty,min=1"`
	DisplayName *string  `json:"display_name" validate:"omitempty,max=128"`
	Role        *string  `json:"role"         validate:"omitempty,min=1,max=64"`
	Permissions []string `json:"permissions"  validate:"omitempty,dive,required"`
	Active      *bool    `json:"active"`
}

type userListResponse struct {
	Users []domain.UserView `json:"users"`
	Total int               `json:"total"`
}

// List returns every user without passwords.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {object}  userListResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.authService.ListUsersForAdmin(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userListResponse{Users: users, Total: len(users)})
}

// Create adds a user.
//
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.UserView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.authService.CreateUser(c.Request().Context(), domain.NewUser{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// Update applies a partial change; absent fields are left alone.
//
// @Summary      Update user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        username  path      string             true  "Username"
// @Param        body      body      updateUserRequest  true  "Fields to change"
// @Success      200       {object}  domain.UserView
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /admin/users/{username} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.authService.UpdateUser(c.Request().Context(), c.Param("username"), domain.UserPatch{
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Permissions: req.Permissions,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Activate handles POST /admin/users/:username/activate.
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles POST /admin/users/:username/deactivate.
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	view, err := h.authService.SetUserActive(c.Request().Context(), c.Param("username"), active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
