package api

import (
	"net/http"

	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletHandler serves the wallet-facing read endpoints: balances and
// transfer history.
type WalletHandler struct {
	portfolioService service.PortfolioService
	historyService   service.HistoryService
	logger           *zap.Logger
}

// NewWalletHandler creates a new instance of WalletHandler.
func NewWalletHandler(portfolioService service.PortfolioService, historyService service.HistoryService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		portfolioService: portfolioService,
		historyService:   historyService,
		logger:           logger.Named("WalletHandler"),
	}
}

// GetBalancesHandler returns the aggregated portfolio for a wallet.
func (h *WalletHandler) GetBalancesHandler(c *gin.Context) {
	walletAddress := c.Query("wallet")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet query parameter required"})
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(c.Request.Context(), walletAddress)
	if err != nil {
		h.logger.Error("Failed to build portfolio", zap.String("walletAddress", walletAddress), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// GetHistoryHandler returns one page of merged sent/received transfers.
// Callers echo back sentPageKey/receivedPageKey to advance; omitting both
// starts from the newest transfers.
func (h *WalletHandler) GetHistoryHandler(c *gin.Context) {
	walletAddress := c.Query("wallet")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet query parameter required"})
		return
	}

	page, err := h.historyService.GetHistory(c.Request.Context(), walletAddress,
		c.Query("sentPageKey"), c.Query("receivedPageKey"))
	if err != nil {
		h.logger.Error("Failed to fetch history", zap.String("walletAddress", walletAddress), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTokensHandler returns the tracked token list.
func (h *WalletHandler) GetTokensHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": h.portfolioService.TrackedTokens()})
}
