package handlers

import (
	"errors"
	"io"

	"github.com/ArowuTest/tripledigit-backend/internal/middleware"
	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles the admin console endpoints. Every route is behind
// JWTAuth and RequireRole(admin).
type AdminHandler struct {
	adminService      *services.AdminService
	withdrawalService *services.WithdrawalService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *services.AdminService, withdrawalService *services.WithdrawalService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		withdrawalService: withdrawalService,
	}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pagination(c)
	accounts, total, err := h.adminService.ListAccounts(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"users": accounts, "total": total, "page": page, "limit": limit})
}

// CreditUser handles POST /api/admin/credit-user
func (h *AdminHandler) CreditUser(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.CreditRequest
	if !bindJSON(c, &req) {
		return
	}

	account, entry, err := h.adminService.Credit(c.Request.Context(), adminID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": account, "transaction": entry})
}

// ListWithdrawals handles GET /api/admin/withdrawals?status=
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	var status models.LedgerStatus
	if raw := c.Query("status"); raw != "" {
		s, ok := models.ParseLedgerStatus(raw)
		if !ok {
			response.Error(c, apperror.Validation("Unknown status "+raw))
			return
		}
		status = s
	}

	page, limit := pagination(c)
	entries, err := h.withdrawalService.List(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"withdrawals": entries})
}

// ApproveWithdrawal handles POST /api/admin/approve-withdrawal/:id
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := services.ParseID("Withdrawal", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	entry, err := h.withdrawalService.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"withdrawal": entry})
}

// RejectWithdrawal handles POST /api/admin/reject-withdrawal/:id. The body
// is optional.
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := services.ParseID("Withdrawal", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Chunked bodies report ContentLength -1; only a known-empty body skips binding.
	var req models.RejectWithdrawalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, apperror.Validation(err.Error()))
			return
		}
	}

	entry, err := h.withdrawalService.Reject(c.Request.Context(), id, adminID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"withdrawal": entry})
}

// UpdateGameSettings handles PUT /api/admin/game-settings
func (h *AdminHandler) UpdateGameSettings(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.PayoutConfigUpdate
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.adminService.UpdatePayoutConfig(c.Request.Context(), adminID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"settings": cfg})
}

// SendSMS handles POST /api/admin/send-sms
func (h *AdminHandler) SendSMS(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.SendSMSRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.adminService.SendSMS(c.Request.Context(), adminID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"sent": result.Sent, "failed": result.Failed, "log": result.Log})
}

// SendSMSAll handles POST /api/admin/send-sms-all
func (h *AdminHandler) SendSMSAll(c *gin.Context) {
	adminID, err := middleware.AccountID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.BroadcastRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.adminService.SendSMSAll(c.Request.Context(), adminID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"sent": result.Sent, "failed": result.Failed, "log": result.Log})
}

// SMSLogs handles GET /api/admin/sms-logs
func (h *AdminHandler) SMSLogs(c *gin.Context) {
	page, limit := pagination(c)
	logs, total, err := h.adminService.SMSLogs(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"logs": logs, "total": total, "page": page, "limit": limit})
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}
