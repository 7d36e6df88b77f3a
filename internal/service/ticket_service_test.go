package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTicketRepo struct {
	created *entity.SupportTicket
	stored  *entity.SupportTicket
	updates *repository.TicketUpdates
	deleted string
	listed  []entity.SupportTicket
	err     error
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *entity.SupportTicket) error {
	f.created = ticket
	return f.err
}

func (f *fakeTicketRepo) GetByTicketID(_ context.Context, _ string) (*entity.SupportTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stored, nil
}

func (f *fakeTicketRepo) ListAll(_ context.Context) ([]entity.SupportTicket, error) {
	return f.listed, f.err
}

func (f *fakeTicketRepo) Update(_ context.Context, _ string, updates repository.TicketUpdates) (*entity.SupportTicket, error) {
	f.updates = &updates
	if f.err != nil {
		return nil, f.err
	}
	return f.stored, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, ticketID string) error {
	f.deleted = ticketID
	return f.err
}

type sentEmail struct {
	to      string
	subject string
	html    string
}

type fakeBrevoClient struct {
	emails []sentEmail
}

func (f *fakeBrevoClient) SendEmail(_ context.Context, toEmail string, subject string, htmlContent string) error {
	f.emails = append(f.emails, sentEmail{to: toEmail, subject: subject, html: htmlContent})
	return nil
}

var ticketIDPattern = regexp.MustCompile(`^TKT-[0-9A-Z]+-[0-9A-Z]{4}$`)

func TestGenerateTicketID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := GenerateTicketID()
		assert.Regexp(t, ticketIDPattern, id)
		assert.Equal(t, strings.ToUpper(id), id)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 1, "ids must not all collide")
}

func TestCreateTicket(t *testing.T) {
	repo := &fakeTicketRepo{}
	brevo := &fakeBrevoClient{}
	svc := NewTicketService(zap.NewNop(), repo, brevo)

	ticketID, err := svc.Create(context.Background(), entity.CreateTicketRequest{
		Email:   "user@example.com",
		Topic:   "transactions",
		Message: "My transfer is stuck",
	}, "en")
	require.NoError(t, err)
	assert.Regexp(t, ticketIDPattern, ticketID)

	require.NotNil(t, repo.created)
	assert.Equal(t, entity.TicketStatusNew, repo.created.Status)
	assert.Equal(t, "medium", repo.created.Priority, "priority defaults when omitted")
	require.Len(t, repo.created.History, 1)
	assert.Equal(t, entity.HistoryUserMessage, repo.created.History[0].Type)
	assert.Equal(t, "My transfer is stuck", repo.created.History[0].Content)
	assert.Equal(t, "user@example.com", repo.created.History[0].Author)

	require.Len(t, brevo.emails, 1)
	assert.Equal(t, "user@example.com", brevo.emails[0].to)
	assert.Contains(t, brevo.emails[0].subject, ticketID)
}

func TestCreateTicketSpanishConfirmation(t *testing.T) {
	repo := &fakeTicketRepo{}
	brevo := &fakeBrevoClient{}
	svc := NewTicketService(zap.NewNop(), repo, brevo)

	_, err := svc.Create(context.Background(), entity.CreateTicketRequest{
		Email:   "user@example.com",
		Topic:   "account",
		Message: "Hola",
	}, "es")
	require.NoError(t, err)

	require.Len(t, brevo.emails, 1)
	assert.Contains(t, brevo.emails[0].subject, "recibido")
}

func TestUpdateTicketReplyAction(t *testing.T) {
	repo := &fakeTicketRepo{stored: &entity.SupportTicket{
		TicketID: "TKT-TEST-0001",
		Email:    "user@example.com",
		Status:   entity.TicketStatusNew,
		Language: "en",
		History: []entity.HistoryEntry{
			{Type: entity.HistoryUserMessage, Content: "original message", Author: "user@example.com"},
		},
	}}
	brevo := &fakeBrevoClient{}
	svc := NewTicketService(zap.NewNop(), repo, brevo)

	reply := "We are looking into it."
	_, err := svc.Update(context.Background(), entity.UpdateTicketRequest{
		TicketID:   "TKT-TEST-0001",
		Action:     entity.TicketActionReply,
		AdminReply: &reply,
	})
	require.NoError(t, err)

	require.NotNil(t, repo.updates)
	require.NotNil(t, repo.updates.Status)
	assert.Equal(t, entity.TicketStatusInProgress, *repo.updates.Status)
	assert.Nil(t, repo.updates.ResolvedAt)

	require.Len(t, repo.updates.History, 2)
	entry := repo.updates.History[1]
	assert.Equal(t, entity.HistoryAdminReply, entry.Type)
	assert.Equal(t, reply, entry.Content)
	assert.Equal(t, "Thian from OrbId Labs", entry.Author)

	require.Len(t, brevo.emails, 1)
	assert.Contains(t, brevo.emails[0].subject, "Reply to your ticket")
	assert.Contains(t, brevo.emails[0].html, reply)
}

func TestUpdateTicketResolveAction(t *testing.T) {
	repo := &fakeTicketRepo{stored: &entity.SupportTicket{
		TicketID: "TKT-TEST-0002",
		Email:    "user@example.com",
		Status:   entity.TicketStatusInProgress,
		Language: "en",
	}}
	brevo := &fakeBrevoClient{}
	svc := NewTicketService(zap.NewNop(), repo, brevo)

	reply := "Fixed on our side."
	_, err := svc.Update(context.Background(), entity.UpdateTicketRequest{
		TicketID:   "TKT-TEST-0002",
		Action:     entity.TicketActionResolve,
		AdminReply: &reply,
	})
	require.NoError(t, err)

	require.NotNil(t, repo.updates)
	require.NotNil(t, repo.updates.Status)
	assert.Equal(t, entity.TicketStatusResolved, *repo.updates.Status)
	require.NotNil(t, repo.updates.ResolvedAt)

	require.Len(t, repo.updates.History, 2)
	assert.Equal(t, entity.HistoryAdminReply, repo.updates.History[0].Type)
	assert.Equal(t, entity.HistoryStatusChange, repo.updates.History[1].Type)
	assert.Equal(t, "Ticket marked as resolved", repo.updates.History[1].Content)
	assert.Equal(t, "System", repo.updates.History[1].Author)

	require.Len(t, brevo.emails, 1)
	assert.Contains(t, brevo.emails[0].subject, "resolved")
}

func TestUpdateTicketPlainStatusChangeSetsResolvedAt(t *testing.T) {
	repo := &fakeTicketRepo{stored: &entity.SupportTicket{TicketID: "TKT-TEST-0003", Language: "en"}}
	svc := NewTicketService(zap.NewNop(), repo, &fakeBrevoClient{})

	_, err := svc.Update(context.Background(), entity.UpdateTicketRequest{
		TicketID: "TKT-TEST-0003",
		Status:   entity.TicketStatusClosed,
	})
	require.NoError(t, err)

	require.NotNil(t, repo.updates)
	require.NotNil(t, repo.updates.Status)
	assert.Equal(t, entity.TicketStatusClosed, *repo.updates.Status)
	assert.NotNil(t, repo.updates.ResolvedAt)
	assert.Nil(t, repo.updates.History, "plain status changes leave the log untouched")
}

func TestTicketServiceWithoutDatabase(t *testing.T) {
	svc := NewTicketService(zap.NewNop(), nil, &fakeBrevoClient{})

	_, err := svc.Create(context.Background(), entity.CreateTicketRequest{Email: "a@b.c"}, "en")
	assert.ErrorIs(t, err, repository.ErrDatabaseUnavailable)

	_, err = svc.ListAll(context.Background())
	assert.ErrorIs(t, err, repository.ErrDatabaseUnavailable)

	_, err = svc.Update(context.Background(), entity.UpdateTicketRequest{TicketID: "TKT-X"})
	assert.ErrorIs(t, err, repository.ErrDatabaseUnavailable)

	assert.ErrorIs(t, svc.Delete(context.Background(), "TKT-X"), repository.ErrDatabaseUnavailable)
}
