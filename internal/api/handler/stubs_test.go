package handler

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/formauth/internal/core/domain"
)

type stubAuthService struct {
	authenticateFn   func(ctx context.Context, username, password string) (*domain.Session, error)
	logoutFn         func(ctx context.Context) error
	currentFn        func(ctx context.Context) (*domain.Session, bool)
	hasRoleFn        func(ctx context.Context, role string) bool
	changePasswordFn func(ctx context.Context, username, oldPassword, newPassword string) error
	listFn           func(ctx context.Context) ([]domain.UserView, error)
	createFn         func(ctx context.Context, in domain.NewUser) (*domain.UserView, error)
	updateFn         func(ctx context.Context, username string, patch domain.UserPatch) (*domain.UserView, error)
	setActiveFn      func(ctx context.Context, username string, active bool) (*domain.UserView, error)
}

func (s *stubAuthService) Authenticate(ctx context.Context, username, password string) (*domain.Session, error) {
	return s.authenticateFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context) error {
	return s.logoutFn(ctx)
}

func (s *stubAuthService) CurrentUser(ctx context.Context) (*domain.Session, bool) {
	if s.currentFn == nil {
		return nil, false
	}
	return s.currentFn(ctx)
}

func (s *stubAuthService) HasRole(ctx context.Context, role string) bool {
	return s.hasRoleFn(ctx, role)
}

func (s *stubAuthService) IsAdmin(ctx context.Context) bool {
	return s.HasRole(ctx, domain.RoleAdmin)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, username, oldPassword, newPassword)
}

func (s *stubAuthService) ListUsersForAdmin(ctx context.Context) ([]domain.UserView, error) {
	return s.listFn(ctx)
}

func (s *stubAuthService) CreateUser(ctx context.Context, in domain.NewUser) (*domain.UserView, error) {
	return s.createFn(ctx, in)
}

func (s *stubAuthService) UpdateUser(ctx context.Context, username string, patch domain.UserPatch) (*domain.UserView, error) {
	return s.updateFn(ctx, username, patch)
}

func (s *stubAuthService) SetUserActive(ctx context.Context, username string, active bool) (*domain.UserView, error) {
	return s.setActiveFn(ctx, username, active)
}

// newTestEcho returns an Echo instance with the validator installed and an
// error handler that renders errors through ErrorStatus.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code, msg, _ := ErrorStatus(err)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
	return e
}

// serve runs h against c and renders a returned error the way the router does.
func serve(t *testing.T, e *echo.Echo, c echo.Context, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	rec, ok := c.Response().Writer.(*httptest.ResponseRecorder)
	if !ok {
		t.Fatalf("context not backed by a recorder")
	}
	return rec
}
