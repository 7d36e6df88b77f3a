package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/entity"
	"orbid_backend/internal/repository"

	"go.uber.org/zap"
)

const (
	supportAgentAuthor = "Thian from OrbId Labs"
	systemAuthor       = "System"

	emailSendTimeout = 15 * time.Second
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// TicketService manages the support ticket lifecycle and its email side
// effects. Every state transition appends to the ticket's conversation log.
type TicketService interface {
	Create(ctx context.Context, req entity.CreateTicketRequest, language string) (string, error)
	ListAll(ctx context.Context) ([]entity.SupportTicket, error)
	Update(ctx context.Context, req entity.UpdateTicketRequest) (*entity.SupportTicket, error)
	Delete(ctx context.Context, ticketID string) error
}

// ticketServiceImpl is the implementation of TicketService.
type ticketServiceImpl struct {
	logger      *zap.Logger
	repo        repository.TicketRepository
	brevoClient client.BrevoClient
}

// NewTicketService creates a new instance of ticketServiceImpl.
// A nil repository means no database is configured; every call then returns
// repository.ErrDatabaseUnavailable.
func NewTicketService(logger *zap.Logger, repo repository.TicketRepository, brevoClient client.BrevoClient) TicketService {
	return &ticketServiceImpl{
		logger:      logger.Named("TicketService"),
		repo:        repo,
		brevoClient: brevoClient,
	}
}

// GenerateTicketID builds a public ticket identifier: a base36 timestamp plus
// four random base36 characters, uppercased.
func GenerateTicketID() string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return strings.ToUpper(fmt.Sprintf("TKT-%s-%s", timestamp, suffix))
}

// Create stores a new ticket and sends the confirmation email.
func (s *ticketServiceImpl) Create(ctx context.Context, req entity.CreateTicketRequest, language string) (string, error) {
	if s.repo == nil {
		return "", repository.ErrDatabaseUnavailable
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	ticket := &entity.SupportTicket{
		TicketID:      GenerateTicketID(),
		Email:         req.Email,
		Topic:         req.Topic,
		Message:       req.Message,
		Status:        entity.TicketStatusNew,
		Priority:      priority,
		WalletAddress: req.WalletAddress,
		Language:      language,
		Attachments:   req.Attachments,
		History: []entity.HistoryEntry{{
			Type:        entity.HistoryUserMessage,
			Content:     req.Message,
			Attachments: req.Attachments,
			Author:      req.Email,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		return "", err
	}
	s.logger.Info("Created support ticket",
		zap.String("ticketID", ticket.TicketID),
		zap.String("topic", ticket.Topic),
		zap.String("priority", ticket.Priority))

	s.sendEmail(req.Email, confirmationEmail(ticket.TicketID, req.Topic, language))
	return ticket.TicketID, nil
}

// ListAll returns every ticket, newest first.
func (s *ticketServiceImpl) ListAll(ctx context.Context) ([]entity.SupportTicket, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}
	return s.repo.ListAll(ctx)
}

// Update applies an admin update. The reply action moves the ticket to
// in-progress and logs the reply; the resolve action closes it out with a
// status-change entry. Both notify the reporter by email.
func (s *ticketServiceImpl) Update(ctx context.Context, req entity.UpdateTicketRequest) (*entity.SupportTicket, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}

	current, err := s.repo.GetByTicketID(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}

	updates := repository.TicketUpdates{
		InternalNotes: req.InternalNotes,
		AdminReply:    req.AdminReply,
	}
	if req.Status != "" {
		updates.Status = &req.Status
	}
	if req.Priority != "" {
		updates.Priority = &req.Priority
	}

	now := time.Now().UTC()
	history := current.History
	adminReply := ""
	if req.AdminReply != nil {
		adminReply = *req.AdminReply
	}

	switch {
	case req.Action == entity.TicketActionReply && adminReply != "":
		status := entity.TicketStatusInProgress
		updates.Status = &status
		history = append(history, entity.HistoryEntry{
			Type:        entity.HistoryAdminReply,
			Content:     adminReply,
			Attachments: req.AttachmentURLs,
			Author:      supportAgentAuthor,
			Timestamp:   now.Format(time.RFC3339),
		})
		updates.History = history

	case req.Action == entity.TicketActionResolve:
		status := entity.TicketStatusResolved
		updates.Status = &status
		updates.ResolvedAt = &now
		if adminReply != "" {
			history = append(history, entity.HistoryEntry{
				Type:        entity.HistoryAdminReply,
				Content:     adminReply,
				Attachments: req.AttachmentURLs,
				Author:      supportAgentAuthor,
				Timestamp:   now.Format(time.RFC3339),
			})
		}
		history = append(history, entity.HistoryEntry{
			Type:      entity.HistoryStatusChange,
			Content:   "Ticket marked as resolved",
			Author:    systemAuthor,
			Timestamp: now.Format(time.RFC3339),
		})
		updates.History = history

	case req.Status == entity.TicketStatusResolved || req.Status == entity.TicketStatusClosed:
		updates.ResolvedAt = &now
	}

	updated, err := s.repo.Update(ctx, req.TicketID, updates)
	if err != nil {
		return nil, err
	}

	language := current.Language
	if language == "" {
		language = "en"
	}
	if current.Email != "" {
		switch {
		case req.Action == entity.TicketActionReply && adminReply != "":
			s.sendEmail(current.Email, replyEmail(req.TicketID, adminReply, language))
		case req.Action == entity.TicketActionResolve:
			s.sendEmail(current.Email, resolvedEmail(req.TicketID, adminReply, language))
		}
	}
	return updated, nil
}

// Delete removes a ticket.
func (s *ticketServiceImpl) Delete(ctx context.Context, ticketID string) error {
	if s.repo == nil {
		return repository.ErrDatabaseUnavailable
	}
	return s.repo.Delete(ctx, ticketID)
}

// sendEmail delivers best-effort: failures are logged, never surfaced.
func (s *ticketServiceImpl) sendEmail(toEmail string, email ticketEmail) {
	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()

	if err := s.brevoClient.SendEmail(ctx, toEmail, email.subject, email.html); err != nil {
		s.logger.Warn("Failed to send ticket email", zap.String("subject", email.subject), zap.Error(err))
	}
}
