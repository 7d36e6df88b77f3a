package entity

import "time"

// Ticket status values.
const (
	TicketStatusNew        = "new"
	TicketStatusInProgress = "in-progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// History entry types.
const (
	HistoryUserMessage  = "user_message"
	HistoryAdminReply   = "admin_reply"
	HistoryStatusChange = "status_change"
	HistoryNote         = "note"
)

// HistoryEntry is one element of a ticket's ordered conversation log.
type HistoryEntry struct {
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	Author      string   `json:"author,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// SupportTicket is a persisted support request.
type SupportTicket struct {
	ID            int64          `json:"id"`
	TicketID      string         `json:"ticket_id"`
	Email         string         `json:"email"`
	Topic         string         `json:"topic"`
	Message       string         `json:"message"`
	Status        string         `json:"status"`
	Priority      string         `json:"priority"`
	WalletAddress string         `json:"wallet_address,omitempty"`
	Language      string         `json:"language"`
	InternalNotes string         `json:"internal_notes,omitempty"`
	AdminReply    string         `json:"admin_reply,omitempty"`
	Attachments   []string       `json:"attachments,omitempty"`
	History       []HistoryEntry `json:"history,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
}

// CreateTicketRequest is the payload accepted by POST /api/support.
type CreateTicketRequest struct {
	Email         string   `json:"email"`
	Topic         string   `json:"topic"`
	Message       string   `json:"message"`
	WalletAddress string   `json:"walletAddress"`
	Priority      string   `json:"priority"`
	Attachments   []string `json:"attachments"`
}

// Ticket update actions with append-to-history semantics.
const (
	TicketActionReply   = "reply"
	TicketActionResolve = "resolve"
)

// UpdateTicketRequest is the payload accepted by PATCH /api/support.
type UpdateTicketRequest struct {
	TicketID       string   `json:"ticketId"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	InternalNotes  *string  `json:"internal_notes"`
	AdminReply     *string  `json:"admin_reply"`
	Action         string   `json:"action"`
	AttachmentURLs []string `json:"attachmentUrls"`
}
