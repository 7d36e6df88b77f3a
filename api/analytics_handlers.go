package api

import (
	"net/http"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsHandler serves event tracking, the admin stats endpoint and the
// identity link checks.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new instance of AnalyticsHandler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger.Named("AnalyticsHandler"),
	}
}

// TrackEventHandler stores one tracked event.
func (h *AnalyticsHandler) TrackEventHandler(c *gin.Context) {
	var event entity.AnalyticsEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if event.EventName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_name required"})
		return
	}

	if err := h.analyticsService.TrackEvent(c.Request.Context(), &event); err != nil {
		h.logger.Error("Failed to track event", zap.String("eventName", event.EventName), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStatsHandler serves one dashboard statistic selected by ?stat=.
func (h *AnalyticsHandler) GetStatsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	switch c.Query("stat") {
	case "overview":
		stats, err := h.analyticsService.Overview(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)

	case "countries":
		counts, err := h.analyticsService.Distribution(ctx, "country")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"countries": relabel(counts, "country")})

	case "growth":
		growth, err := h.analyticsService.Growth(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"growth": growth})

	case "devices":
		counts, err := h.analyticsService.Distribution(ctx, "device_type")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"devices": relabel(counts, "device")})

	case "browsers":
		counts, err := h.analyticsService.Distribution(ctx, "browser")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"browsers": relabel(counts, "browser")})

	case "os":
		counts, err := h.analyticsService.Distribution(ctx, "os")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"os": relabel(counts, "os")})

	case "recent":
		users, err := h.analyticsService.RecentUsers(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})

	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// relabel renders a distribution with its stat-specific key name.
func relabel(counts []entity.LabelCount, key string) []gin.H {
	out := make([]gin.H, 0, len(counts))
	for _, count := range counts {
		out = append(out, gin.H{key: count.Label, "count": count.Count})
	}
	return out
}

// CheckIdentityLinkHandler verifies a wallet/email pair can be linked.
func (h *AnalyticsHandler) CheckIdentityLinkHandler(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Email         string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.WalletAddress == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing wallet or email"})
		return
	}

	if err := h.analyticsService.CheckIdentityLink(c.Request.Context(), req.WalletAddress, req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetOrbStatusHandler reports whether a wallet is Orb verified. Lookup
// failures report unverified rather than an error.
func (h *AnalyticsHandler) GetOrbStatusHandler(c *gin.Context) {
	walletAddress := c.Query("wallet")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"isVerifiedHuman": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isVerifiedHuman": h.analyticsService.OrbStatus(c.Request.Context(), walletAddress)})
}
