package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type sessionResponse struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	LoginTime   time.Time `json:"login_time"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type roleResponse struct {
	Role    string `json:"role"`
	Granted bool   `json:"granted"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		Username:    s.Username,
		DisplayName: s.DisplayName,
		Role:        s.Role,
		LoginTime:   s.LoginTime,
		ExpiresAt:   s.ExpiresAt,
	}
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidInput("invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return invalidInput(err.Error())
	}
	return nil
}

// Login checks credentials and opens the session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Logout revokes the session. Calling it without a session is not an error.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current session, extending it.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	session, ok := h.authService.CurrentUser(c.Request().Context())
	if !ok {
		return domain.ErrNoSession
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// HasRole reports whether the session holds the role in the path.
//
// @Summary      Role check
// @Tags         auth
// @Produce      json
// @Param        role  path      string  true  "Role name"
// @Success      200   {object}  roleResponse
// @Router       /auth/roles/{role} [get]
func (h *AuthHandler) HasRole(c echo.Context) error {
	role := c.Param("role")
	return c.JSON(http.StatusOK, roleResponse{
		Role:    role,
		Granted: h.authService.HasRole(c.Request().Context(), role),
	})
}

// ChangePassword replaces a password after checking the old one. The
// username defaults to the session owner.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Param        body  body  changePasswordRequest  true  "Old and new password"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	username := req.Username
	if username == "" {
		session, ok := h.authService.CurrentUser(ctx)
		if !ok {
			return invalidInput("username is required without a session")
		}
		username = session.Username
	}

	if err := h.authService.ChangePassword(ctx, username, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
