package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/middleware"
	"github.com/iliyamo/pos-backoffice/internal/service"
)

// AuthHandler serves the account endpoints: login, registration, password
// reset, session close and the admin connection update.
type AuthHandler struct {
	Auth *service.AuthService
	Log  *logrus.Entry
}

func NewAuthHandler(a *service.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log.WithField("handler", "auth")}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IP       string `json:"ip"`
}
type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type usernameReq struct {
	Username string `json:"username"`
}
type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
type connectionReq struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Port string `json:"port"`
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
}

// Login: verify credentials, open the tenant pool and return a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	tok, err := h.Auth.Login(c.Request().Context(), strings.TrimSpace(req.Username), req.Password, req.IP)
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to log in")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "token": tok.Token})
}

// Register: create a directory account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	err := h.Auth.Register(c.Request().Context(), strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to register. Try different username")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User added successfully"})
}

// ForgotPassword: store a reset ticket and mail the link.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req usernameReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := h.Auth.ForgotPassword(c.Request().Context(), strings.TrimSpace(req.Username)); err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to send password reset email")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset email sent"})
}

// ResetPassword: consume a reset ticket.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), strings.TrimSpace(req.Token), req.NewPassword); err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to reset password")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully"})
}

// CloseConnection releases the tenant pool held by a session.  The client
// calls it on logout with only the username, so no token is required.
func (h *AuthHandler) CloseConnection(c echo.Context) error {
	var req usernameReq
	_ = c.Bind(&req)
	if err := h.Auth.CloseSession(c.Request().Context(), strings.TrimSpace(req.Username)); err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to close the connection")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Connection Closed successfully"})
}

// ResetDatabaseConnection changes the tenant server of an account.  Admin
// only; the caller is recorded as registered_by.
func (h *AuthHandler) ResetDatabaseConnection(c echo.Context) error {
	var req connectionReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	err := h.Auth.ResetConnection(c.Request().Context(), middleware.Username(c), service.ConnectionUpdate{
		Name: req.Name, Host: req.IP, Port: req.Port,
	})
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to establish the connection.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Database connection updated successfully"})
}
