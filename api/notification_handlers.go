package api

import (
	"net/http"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler serves push dispatch and the grant cycle proxy.
type NotificationHandler struct {
	notificationService service.NotificationService
	worldAppClient      client.WorldAppClient
	cfg                 *config.Config
	logger              *zap.Logger
}

// NewNotificationHandler creates a new instance of NotificationHandler.
func NewNotificationHandler(
	notificationService service.NotificationService,
	worldAppClient client.WorldAppClient,
	cfg *config.Config,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		worldAppClient:      worldAppClient,
		cfg:                 cfg,
		logger:              logger.Named("NotificationHandler"),
	}
}

// SendTypedHandler dispatches a transactional push rendered from the
// template catalog.
func (h *NotificationHandler) SendTypedHandler(c *gin.Context) {
	var req entity.TypedNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	response, err := h.notificationService.SendTyped(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Typed notification dispatch failed", zap.String("type", req.Type), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}

// SendBroadcastHandler dispatches a free-form admin broadcast.
func (h *NotificationHandler) SendBroadcastHandler(c *gin.Context) {
	var req entity.AdminNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	response, err := h.notificationService.SendBroadcast(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Broadcast dispatch failed", zap.Int("walletCount", len(req.WalletAddresses)), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}

// GetGrantCycleHandler proxies a wallet's grant cycle state from the
// Worldcoin developer API unchanged.
func (h *NotificationHandler) GetGrantCycleHandler(c *gin.Context) {
	walletAddress := c.Query("wallet_address")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
		return
	}
	if h.cfg.Secrets.WorldAppAPIKey == "" {
		h.logger.Error("WORLD_APP_API_KEY not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	body, err := h.worldAppClient.GetUserGrantCycle(c.Request.Context(), walletAddress, h.cfg.WorldApp.AppID)
	if err != nil {
		h.logger.Error("Grant cycle lookup failed", zap.String("walletAddress", walletAddress), zap.Error(err))
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
