package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	"github.com/polkiloo/pathway/internal/server/http/dto"
)

const (
	registeredMessage    = "User registered successfully"
	emailTakenDetail     = "Email already registered"
	invalidRegistration  = "Name, email and password must not be blank"
	invalidCredentials   = "Invalid email or password"
	registerFailedPrefix = "Failed to register user: "
	internalErrorDetail  = "internal server error"
	bearerTokenType      = "bearer"
)

// AuthHandler processes registration and login.
type AuthHandler struct {
	facade AuthFacade
	logger *slog.Logger
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{facade: facade, logger: logger}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindRequest(c, &req) {
		return
	}

	err := h.facade.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: emailTakenDetail})
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: invalidRegistration})
		default:
			h.logger.Error("register user", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: registerFailedPrefix + cause(err)})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: registeredMessage})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindRequest(c, &req) {
		return
	}

	token, err := h.facade.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: invalidCredentials})
		default:
			h.logger.Error("login", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: internalErrorDetail})
		}
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: bearerTokenType})
}

// cause returns the store's own message for persistence failures.
func cause(err error) string {
	var pe *domainErrors.PersistenceError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
