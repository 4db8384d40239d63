package handlers

import (
	"github.com/ArowuTest/tripledigit-backend/internal/middleware"
	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// GameHandler handles wager HTTP requests
type GameHandler struct {
	gameService *services.GameService
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// Play handles POST /api/game/play
func (h *GameHandler) Play(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.PlayRequest
	if !bindJSON(c, &req) {
		return
	}

	wager, err := h.gameService.Play(c.Request.Context(), accountID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"result": wager, "balance": wager.BalanceAfter})
}

// History handles GET /api/game/history
func (h *GameHandler) History(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, limit := pagination(c)
	wagers, err := h.gameService.History(c.Request.Context(), accountID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"wagers": wagers, "page": page, "limit": limit})
}

// Settings handles GET /api/game/settings
func (h *GameHandler) Settings(c *gin.Context) {
	cfg, err := h.gameService.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"settings": cfg})
}
