package handler

import (
	"log/slog"
	"net/http"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/repository"
	"melodist/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletRepo *repository.WalletRepository
	royalties  *service.RoyaltyService
	logger     *slog.Logger
}

func NewWalletHandler(walletRepo *repository.WalletRepository, royalties *service.RoyaltyService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, royalties: royalties, logger: logging.Component(logger, "wallet")}
}

// GetBalance returns the caller's wallet, creating an empty one for accounts that predate wallets.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	w, err := h.walletRepo.GetOrCreate(c.Request.Context(), middleware.GetUserID(c), "")
	if err != nil {
		writeError(c, h.logger, err, "wallet error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":  w.Balance.StringFixed(2),
		"currency": w.Currency,
	})
}

// Transactions lists ledger rows; ?type= filters by royalty, withdrawal or refund.
func (h *WalletHandler) Transactions(c *gin.Context) {
	f := ownFilter(c)
	f.Status = c.Query("type")
	list, total, err := h.walletRepo.Transactions(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list transactions")
		return
	}
	page(c, list, total, f)
}

func (h *WalletHandler) RoyaltyReports(c *gin.Context) {
	f := ownFilter(c)
	list, total, err := h.royalties.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list royalty reports")
		return
	}
	page(c, list, total, f)
}
