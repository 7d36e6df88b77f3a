package service

import (
	"context"
	"strings"
	"time"

	"orbid_backend/internal/entity"
	"orbid_backend/internal/pkg/utils"
	"orbid_backend/internal/repository"

	"go.uber.org/zap"
)

const (
	growthWindowDays = 30
	recentUsersLimit = 20
)

// LinkConflict reports that a wallet/email pair cannot be linked because one
// side already belongs to a different identity.
type LinkConflict struct {
	Code        string
	Message     string
	LinkedEmail string
}

func (e *LinkConflict) Error() string {
	return e.Message
}

// AnalyticsService tracks events and serves the admin dashboard statistics.
type AnalyticsService interface {
	TrackEvent(ctx context.Context, event *entity.AnalyticsEvent) error
	Overview(ctx context.Context) (*entity.OverviewStats, error)
	Distribution(ctx context.Context, column string) ([]entity.LabelCount, error)
	Growth(ctx context.Context) ([]entity.GrowthPoint, error)
	RecentUsers(ctx context.Context) ([]entity.RecentUser, error)
	CheckIdentityLink(ctx context.Context, walletAddress string, email string) error
	OrbStatus(ctx context.Context, walletAddress string) bool
}

// analyticsServiceImpl is the implementation of AnalyticsService.
type analyticsServiceImpl struct {
	logger *zap.Logger
	repo   repository.AnalyticsRepository
}

// NewAnalyticsService creates a new instance of analyticsServiceImpl.
// A nil repository means no database is configured.
func NewAnalyticsService(logger *zap.Logger, repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsServiceImpl{
		logger: logger.Named("AnalyticsService"),
		repo:   repo,
	}
}

// TrackEvent stores one event.
func (s *analyticsServiceImpl) TrackEvent(ctx context.Context, event *entity.AnalyticsEvent) error {
	if s.repo == nil {
		return repository.ErrDatabaseUnavailable
	}
	return s.repo.InsertEvent(ctx, event)
}

// Overview returns the dashboard headline counters.
func (s *analyticsServiceImpl) Overview(ctx context.Context) (*entity.OverviewStats, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}
	return s.repo.Overview(ctx)
}

// Distribution returns the value distribution of one user attribute.
func (s *analyticsServiceImpl) Distribution(ctx context.Context, column string) ([]entity.LabelCount, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}
	return s.repo.GroupCounts(ctx, column)
}

// Growth returns the signup series for the last 30 days, zero-filling days
// without signups so charts render a continuous axis.
func (s *analyticsServiceImpl) Growth(ctx context.Context) ([]entity.GrowthPoint, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -growthWindowDays)
	perDay, err := s.repo.SignupsPerDay(ctx, since)
	if err != nil {
		return nil, err
	}

	growth := make([]entity.GrowthPoint, 0, growthWindowDays)
	for i := growthWindowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		growth = append(growth, entity.GrowthPoint{Date: day, Count: perDay[day]})
	}
	return growth, nil
}

// RecentUsers returns the newest signups.
func (s *analyticsServiceImpl) RecentUsers(ctx context.Context) ([]entity.RecentUser, error) {
	if s.repo == nil {
		return nil, repository.ErrDatabaseUnavailable
	}
	return s.repo.RecentUsers(ctx, recentUsersLimit)
}

// CheckIdentityLink verifies that a wallet/email pair can be linked. A
// conflicting link on either side returns a LinkConflict; the wallet side
// includes the masked email already linked.
func (s *analyticsServiceImpl) CheckIdentityLink(ctx context.Context, walletAddress string, email string) error {
	if s.repo == nil {
		return repository.ErrDatabaseUnavailable
	}

	byWallet, err := s.repo.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return err
	}
	if byWallet != nil && byWallet.Email != "" && byWallet.Email != email {
		return &LinkConflict{
			Code:        "wallet_already_linked",
			Message:     "This World ID is already linked to another email",
			LinkedEmail: utils.MaskEmail(byWallet.Email),
		}
	}

	byEmail, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.WalletAddress != "" && byEmail.WalletAddress != walletAddress {
		return &LinkConflict{
			Code:    "email_already_linked",
			Message: "This email is linked to a different World ID",
		}
	}
	return nil
}

// OrbStatus reports whether a wallet belongs to an Orb-verified human.
// Lookup failures degrade to false; verification checks must never block
// the sign-in flow.
func (s *analyticsServiceImpl) OrbStatus(ctx context.Context, walletAddress string) bool {
	if s.repo == nil {
		return false
	}
	user, err := s.repo.GetUserByWallet(ctx, strings.ToLower(walletAddress))
	if err != nil {
		s.logger.Warn("Orb status lookup failed, reporting unverified",
			zap.String("walletAddress", walletAddress),
			zap.Error(err))
		return false
	}
	return user != nil && user.IsOrbVerified
}
