package api

import (
	"net/http"

	"orbid_backend/internal/config"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Wallet       *WalletHandler
	Market       *MarketHandler
	Swap         *SwapHandler
	Support      *SupportHandler
	Analytics    *AnalyticsHandler
	Notification *NotificationHandler
}

// RegisterRoutes mounts all application routes on the router.
func RegisterRoutes(router *gin.Engine, handlers Handlers, cfg *config.Config) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/balances", handlers.Wallet.GetBalancesHandler)
		apiGroup.GET("/history", handlers.Wallet.GetHistoryHandler)
		apiGroup.GET("/tokens", handlers.Wallet.GetTokensHandler)
		apiGroup.GET("/market/:symbol", handlers.Market.GetMarketDataHandler)
		apiGroup.GET("/swap/quote", handlers.Swap.GetQuoteHandler)
		apiGroup.GET("/swap/pools", handlers.Swap.GetPoolsHandler)
		apiGroup.GET("/grants", handlers.Notification.GetGrantCycleHandler)
		apiGroup.GET("/auth/orb-status", handlers.Analytics.GetOrbStatusHandler)

		apiGroup.POST("/support", handlers.Support.CreateTicketHandler)
		apiGroup.POST("/analytics", handlers.Analytics.TrackEventHandler)
		apiGroup.POST("/analytics/user/check", handlers.Analytics.CheckIdentityLinkHandler)
		apiGroup.POST("/notifications/send", handlers.Notification.SendTypedHandler)
	}

	admin := apiGroup.Group("", AdminAuth(cfg.Secrets.AdminToken))
	{
		admin.GET("/support", handlers.Support.ListTicketsHandler)
		admin.PATCH("/support", handlers.Support.UpdateTicketHandler)
		admin.DELETE("/support", handlers.Support.DeleteTicketHandler)
		admin.GET("/analytics", handlers.Analytics.GetStatsHandler)
		admin.POST("/admin/notifications/send", handlers.Notification.SendBroadcastHandler)
	}
}
