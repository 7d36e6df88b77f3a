package api

import (
	"net/http"
	"strings"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketHandler serves per-token market data.
type MarketHandler struct {
	marketService    service.MarketService
	portfolioService service.PortfolioService
	logger           *zap.Logger
}

// NewMarketHandler creates a new instance of MarketHandler.
func NewMarketHandler(marketService service.MarketService, portfolioService service.PortfolioService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		marketService:    marketService,
		portfolioService: portfolioService,
		logger:           logger.Named("MarketHandler"),
	}
}

// GetMarketDataHandler returns spot metrics and a price history series for
// one tracked token.
func (h *MarketHandler) GetMarketDataHandler(c *gin.Context) {
	symbol := c.Param("symbol")

	var token *entity.TokenInfo
	for _, tracked := range h.portfolioService.TrackedTokens() {
		if strings.EqualFold(tracked.Symbol, symbol) {
			t := tracked
			token = &t
			break
		}
	}
	if token == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token symbol"})
		return
	}

	period := entity.ChartPeriod(c.DefaultQuery("period", string(entity.Period30D)))

	data, err := h.marketService.GetMarketData(c.Request.Context(), *token, period)
	if err != nil {
		h.logger.Error("Failed to fetch market data",
			zap.String("symbol", token.Symbol),
			zap.String("period", string(period)),
			zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
