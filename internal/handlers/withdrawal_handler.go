package handlers

import (
	"github.com/ArowuTest/tripledigit-backend/internal/middleware"
	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// WithdrawalHandler handles player withdrawal requests
type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawalService *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// Request handles POST /api/withdrawals/request
func (h *WithdrawalHandler) Request(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.withdrawalService.Request(c.Request.Context(), accountID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"withdrawal": entry})
}

// Mine handles GET /api/withdrawals/my-withdrawals
func (h *WithdrawalHandler) Mine(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, limit := pagination(c)
	entries, err := h.withdrawalService.Mine(c.Request.Context(), accountID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"withdrawals": entries})
}
