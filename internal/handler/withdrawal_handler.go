package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/service"
	"melodist/internal/validate"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	svc    *service.WithdrawalService
	logger *slog.Logger
}

func NewWithdrawalHandler(svc *service.WithdrawalService, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc, logger: logging.Component(logger, "withdrawals")}
}

type WithdrawalRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	PayoutMethod      string          `json:"payout_method" binding:"omitempty,oneof=upi bank"`
	UPIID             string          `json:"upi_id" binding:"max=128"`
	AccountHolderName string          `json:"account_holder_name" binding:"max=255"`
	AccountNumber     string          `json:"account_number" binding:"max=64"`
	IFSCCode          string          `json:"ifsc_code" binding:"max=16"`
	BankName          string          `json:"bank_name" binding:"max=255"`
}

// method falls back to inferring the payout method from which details were sent.
func (r WithdrawalRequest) method() string {
	if r.PayoutMethod != "" {
		return r.PayoutMethod
	}
	if strings.TrimSpace(r.UPIID) != "" {
		return "upi"
	}
	return "bank"
}

// Create files a withdrawal request. The wallet is debited only when an admin approves it.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), service.WithdrawalInput{
		Amount: req.Amount,
		Payout: validate.Payout{
			Method:            req.method(),
			UPIID:             req.UPIID,
			AccountHolderName: req.AccountHolderName,
			AccountNumber:     req.AccountNumber,
			IFSCCode:          req.IFSCCode,
			BankName:          req.BankName,
		},
	})
	if err != nil {
		writeError(c, h.logger, err, "failed to create withdrawal")
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	f := ownFilter(c)
	list, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list withdrawals")
		return
	}
	page(c, list, total, f)
}
