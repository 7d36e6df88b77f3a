package api

import (
	"net/http"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SupportHandler serves the support ticket endpoints. Creation is public;
// listing, updates and deletion sit behind the admin token.
type SupportHandler struct {
	ticketService service.TicketService
	logger        *zap.Logger
}

// NewSupportHandler creates a new instance of SupportHandler.
func NewSupportHandler(ticketService service.TicketService, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{
		ticketService: ticketService,
		logger:        logger.Named("SupportHandler"),
	}
}

// CreateTicketHandler opens a new ticket and returns its public id.
func (h *SupportHandler) CreateTicketHandler(c *gin.Context) {
	var req entity.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Email == "" || req.Topic == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, topic, and message required"})
		return
	}

	ticketID, err := h.ticketService.Create(c.Request.Context(), req, requestLanguage(c))
	if err != nil {
		h.logger.Error("Failed to create ticket", zap.String("topic", req.Topic), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticketId": ticketID})
}

// ListTicketsHandler returns every ticket, newest first.
func (h *SupportHandler) ListTicketsHandler(c *gin.Context) {
	tickets, err := h.ticketService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// UpdateTicketHandler applies an admin update or action to a ticket.
func (h *SupportHandler) UpdateTicketHandler(c *gin.Context) {
	var req entity.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.TicketID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ticket ID required"})
		return
	}

	ticket, err := h.ticketService.Update(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to update ticket", zap.String("ticketID", req.TicketID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

// DeleteTicketHandler removes a ticket.
func (h *SupportHandler) DeleteTicketHandler(c *gin.Context) {
	ticketID := c.Query("id")
	if ticketID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ticket ID required"})
		return
	}

	if err := h.ticketService.Delete(c.Request.Context(), ticketID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
