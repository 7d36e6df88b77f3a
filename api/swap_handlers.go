package api

import (
	"net/http"
	"strconv"
	"strings"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SwapHandler serves swap quoting and pool discovery.
type SwapHandler struct {
	swapService      service.SwapService
	portfolioService service.PortfolioService
	logger           *zap.Logger
}

// NewSwapHandler creates a new instance of SwapHandler.
func NewSwapHandler(swapService service.SwapService, portfolioService service.PortfolioService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{
		swapService:      swapService,
		portfolioService: portfolioService,
		logger:           logger.Named("SwapHandler"),
	}
}

// resolveToken finds a tracked token by symbol or address.
func (h *SwapHandler) resolveToken(identifier string) (entity.TokenInfo, bool) {
	for _, tracked := range h.portfolioService.TrackedTokens() {
		if strings.EqualFold(tracked.Symbol, identifier) || strings.EqualFold(tracked.Address, identifier) {
			return tracked, true
		}
	}
	return entity.TokenInfo{}, false
}

// GetQuoteHandler estimates a swap for a tracked token pair. amountIn is a
// decimal string in the smallest unit of the input token.
func (h *SwapHandler) GetQuoteHandler(c *gin.Context) {
	tokenIn, okIn := h.resolveToken(c.Query("tokenIn"))
	tokenOut, okOut := h.resolveToken(c.Query("tokenOut"))
	if !okIn || !okOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokenIn and tokenOut must be tracked tokens"})
		return
	}
	if strings.EqualFold(tokenIn.Address, tokenOut.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokenIn and tokenOut must differ"})
		return
	}

	amountIn := c.Query("amountIn")
	if amountIn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amountIn query parameter required"})
		return
	}

	slippageBps := 0
	if raw := c.Query("slippageBps"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed >= 10000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slippageBps must be an integer in [0, 10000)"})
			return
		}
		slippageBps = parsed
	}

	quote, err := h.swapService.GetQuote(c.Request.Context(), tokenIn, tokenOut, amountIn, slippageBps)
	if err != nil {
		h.logger.Warn("Failed to quote swap",
			zap.String("tokenIn", tokenIn.Symbol),
			zap.String("tokenOut", tokenOut.Symbol),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetPoolsHandler returns the candidate pools for a token pair.
func (h *SwapHandler) GetPoolsHandler(c *gin.Context) {
	tokenA := c.Query("tokenA")
	tokenB := c.Query("tokenB")
	if tokenA == "" || tokenB == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokenA and tokenB query parameters required"})
		return
	}

	pools := h.swapService.DiscoverPools(tokenA, tokenB)
	c.JSON(http.StatusOK, gin.H{"pools": pools})
}
