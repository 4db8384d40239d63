package handlers

import (
	"github.com/ArowuTest/tripledigit-backend/internal/middleware"
	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/signup
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"token": result.Token, "user": result.Account})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"token": result.Token, "user": result.Account})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Error(c, apperror.ErrMissingToken())
		return
	}

	account, err := h.authService.Me(c.Request.Context(), p.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": account})
}
