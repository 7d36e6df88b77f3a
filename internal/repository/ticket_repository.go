package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orbid_backend/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TicketUpdates carries the optional fields of a ticket update. Nil fields
// are left untouched; a non-nil History replaces the stored log wholesale.
type TicketUpdates struct {
	Status        *string
	Priority      *string
	InternalNotes *string
	AdminReply    *string
	History       []entity.HistoryEntry
	ResolvedAt    *time.Time
}

// TicketRepository persists support tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.SupportTicket) error
	GetByTicketID(ctx context.Context, ticketID string) (*entity.SupportTicket, error)
	ListAll(ctx context.Context) ([]entity.SupportTicket, error)
	Update(ctx context.Context, ticketID string, updates TicketUpdates) (*entity.SupportTicket, error)
	Delete(ctx context.Context, ticketID string) error
}

// ticketRepositoryImpl is the Postgres implementation of TicketRepository.
type ticketRepositoryImpl struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTicketRepository creates a new instance of ticketRepositoryImpl.
func NewTicketRepository(pool *pgxpool.Pool, logger *zap.Logger) TicketRepository {
	return &ticketRepositoryImpl{
		pool:   pool,
		logger: logger.Named("TicketRepository"),
	}
}

const ticketColumns = `id, ticket_id, email, topic, message, status, priority,
	COALESCE(wallet_address, ''), COALESCE(language, 'en'),
	COALESCE(internal_notes, ''), COALESCE(admin_reply, ''),
	COALESCE(attachments, '[]'::jsonb), COALESCE(history, '[]'::jsonb),
	created_at, updated_at, resolved_at`

// Create inserts a new ticket row.
func (r *ticketRepositoryImpl) Create(ctx context.Context, ticket *entity.SupportTicket) error {
	attachmentsJSON, err := json.Marshal(ticket.Attachments)
	if err != nil {
		return fmt.Errorf("failed to marshal attachments: %w", err)
	}
	historyJSON, err := json.Marshal(ticket.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `INSERT INTO support_tickets
		(ticket_id, email, topic, message, status, priority, wallet_address, language, attachments, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query,
		ticket.TicketID, ticket.Email, ticket.Topic, ticket.Message,
		ticket.Status, ticket.Priority, ticket.WalletAddress, ticket.Language,
		attachmentsJSON, historyJSON,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert ticket", zap.String("ticketID", ticket.TicketID), zap.Error(err))
		return fmt.Errorf("failed to insert ticket %s: %w", ticket.TicketID, err)
	}
	return nil
}

// GetByTicketID fetches one ticket by its public identifier.
func (r *ticketRepositoryImpl) GetByTicketID(ctx context.Context, ticketID string) (*entity.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE ticket_id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to fetch ticket", zap.String("ticketID", ticketID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch ticket %s: %w", ticketID, err)
	}
	return ticket, nil
}

// ListAll returns every ticket, newest first.
func (r *ticketRepositoryImpl) ListAll(ctx context.Context) ([]entity.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]entity.SupportTicket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

// Update applies the non-nil fields and returns the updated row.
func (r *ticketRepositoryImpl) Update(ctx context.Context, ticketID string, updates TicketUpdates) (*entity.SupportTicket, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{ticketID}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if updates.Status != nil {
		appendSet("status", *updates.Status)
	}
	if updates.Priority != nil {
		appendSet("priority", *updates.Priority)
	}
	if updates.InternalNotes != nil {
		appendSet("internal_notes", *updates.InternalNotes)
	}
	if updates.AdminReply != nil {
		appendSet("admin_reply", *updates.AdminReply)
	}
	if updates.ResolvedAt != nil {
		appendSet("resolved_at", *updates.ResolvedAt)
	}
	if updates.History != nil {
		historyJSON, err := json.Marshal(updates.History)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}
		appendSet("history", historyJSON)
	}

	query := "UPDATE support_tickets SET "
	for i, clause := range setClauses {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE ticket_id = $1 RETURNING " + ticketColumns

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to update ticket", zap.String("ticketID", ticketID), zap.Error(err))
		return nil, fmt.Errorf("failed to update ticket %s: %w", ticketID, err)
	}
	return ticket, nil
}

// Delete removes a ticket by its public identifier.
func (r *ticketRepositoryImpl) Delete(ctx context.Context, ticketID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM support_tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		r.logger.Error("Failed to delete ticket", zap.String("ticketID", ticketID), zap.Error(err))
		return fmt.Errorf("failed to delete ticket %s: %w", ticketID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (*entity.SupportTicket, error) {
	var (
		ticket          entity.SupportTicket
		attachmentsJSON []byte
		historyJSON     []byte
	)
	err := row.Scan(
		&ticket.ID, &ticket.TicketID, &ticket.Email, &ticket.Topic, &ticket.Message,
		&ticket.Status, &ticket.Priority, &ticket.WalletAddress, &ticket.Language,
		&ticket.InternalNotes, &ticket.AdminReply,
		&attachmentsJSON, &historyJSON,
		&ticket.CreatedAt, &ticket.UpdatedAt, &ticket.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachmentsJSON, &ticket.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &ticket.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &ticket, nil
}
