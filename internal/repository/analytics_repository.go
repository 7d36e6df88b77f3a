package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orbid_backend/internal/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// groupableColumns whitelists columns the distribution queries may group by.
var groupableColumns = map[string]bool{
	"country":     true,
	"device_type": true,
	"browser":     true,
	"os":          true,
}

// AnalyticsRepository persists tracked events and user analytics rows.
type AnalyticsRepository interface {
	InsertEvent(ctx context.Context, event *entity.AnalyticsEvent) error
	GetUserByWallet(ctx context.Context, walletAddress string) (*entity.AnalyticsUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.AnalyticsUser, error)
	Overview(ctx context.Context) (*entity.OverviewStats, error)
	GroupCounts(ctx context.Context, column string) ([]entity.LabelCount, error)
	SignupsPerDay(ctx context.Context, since time.Time) (map[string]int64, error)
	RecentUsers(ctx context.Context, limit int) ([]entity.RecentUser, error)
}

// analyticsRepositoryImpl is the Postgres implementation of AnalyticsRepository.
type analyticsRepositoryImpl struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAnalyticsRepository creates a new instance of analyticsRepositoryImpl.
func NewAnalyticsRepository(pool *pgxpool.Pool, logger *zap.Logger) AnalyticsRepository {
	return &analyticsRepositoryImpl{
		pool:   pool,
		logger: logger.Named("AnalyticsRepository"),
	}
}

// InsertEvent stores one tracked event, assigning it a fresh id.
func (r *analyticsRepositoryImpl) InsertEvent(ctx context.Context, event *entity.AnalyticsEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	query := `INSERT INTO analytics_events (id, event_name, metadata, user_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), now()) RETURNING created_at`

	if err := r.pool.QueryRow(ctx, query, event.ID, event.EventName, metadataJSON, event.UserID).Scan(&event.CreatedAt); err != nil {
		r.logger.Error("Failed to insert analytics event", zap.String("eventName", event.EventName), zap.Error(err))
		return fmt.Errorf("failed to insert analytics event %s: %w", event.EventName, err)
	}
	return nil
}

const userColumns = `id, COALESCE(email, ''), COALESCE(wallet_address, ''), COALESCE(country, ''),
	COALESCE(device_type, ''), COALESCE(browser, ''), COALESCE(os, ''),
	COALESCE(is_orb_verified, false), COALESCE(total_logins, 0), created_at`

// GetUserByWallet returns the user row for a wallet, or nil when absent.
func (r *analyticsRepositoryImpl) GetUserByWallet(ctx context.Context, walletAddress string) (*entity.AnalyticsUser, error) {
	query := `SELECT ` + userColumns + ` FROM analytics_users WHERE wallet_address = $1`
	return r.getUser(ctx, query, walletAddress)
}

// GetUserByEmail returns the user row for an email, or nil when absent.
func (r *analyticsRepositoryImpl) GetUserByEmail(ctx context.Context, email string) (*entity.AnalyticsUser, error) {
	query := `SELECT ` + userColumns + ` FROM analytics_users WHERE email = $1`
	return r.getUser(ctx, query, email)
}

func (r *analyticsRepositoryImpl) getUser(ctx context.Context, query string, arg string) (*entity.AnalyticsUser, error) {
	var user entity.AnalyticsUser
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.WalletAddress, &user.Country,
		&user.DeviceType, &user.Browser, &user.OS,
		&user.IsOrbVerified, &user.TotalLogins, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to fetch analytics user", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch analytics user: %w", err)
	}
	return &user, nil
}

// Overview computes the dashboard headline counters in one query.
func (r *analyticsRepositoryImpl) Overview(ctx context.Context) (*entity.OverviewStats, error) {
	query := `SELECT
		count(*),
		count(*) FILTER (WHERE is_orb_verified),
		count(*) FILTER (WHERE created_at >= current_date),
		COALESCE(sum(total_logins), 0)
		FROM analytics_users`

	var stats entity.OverviewStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.VerifiedUsers, &stats.NewUsersToday, &stats.TotalLogins)
	if err != nil {
		r.logger.Error("Failed to compute overview stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute overview stats: %w", err)
	}
	return &stats, nil
}

// GroupCounts returns the value distribution of one whitelisted column,
// most frequent first.
func (r *analyticsRepositoryImpl) GroupCounts(ctx context.Context, column string) ([]entity.LabelCount, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("column %q is not groupable", column)
	}

	query := fmt.Sprintf(`SELECT %s, count(*) FROM analytics_users
		WHERE %s IS NOT NULL AND %s <> ''
		GROUP BY %s ORDER BY count(*) DESC`, column, column, column, column)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to compute distribution", zap.String("column", column), zap.Error(err))
		return nil, fmt.Errorf("failed to compute %s distribution: %w", column, err)
	}
	defer rows.Close()

	counts := make([]entity.LabelCount, 0)
	for rows.Next() {
		var lc entity.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}

// SignupsPerDay returns signup counts keyed by YYYY-MM-DD since the given time.
func (r *analyticsRepositoryImpl) SignupsPerDay(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `SELECT to_char(created_at::date, 'YYYY-MM-DD'), count(*)
		FROM analytics_users WHERE created_at >= $1 GROUP BY 1`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		r.logger.Error("Failed to compute signup series", zap.Error(err))
		return nil, fmt.Errorf("failed to compute signup series: %w", err)
	}
	defer rows.Close()

	perDay := make(map[string]int64)
	for rows.Next() {
		var (
			day   string
			count int64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan signup row: %w", err)
		}
		perDay[day] = count
	}
	return perDay, rows.Err()
}

// RecentUsers returns the newest signups.
func (r *analyticsRepositoryImpl) RecentUsers(ctx context.Context, limit int) ([]entity.RecentUser, error) {
	query := `SELECT COALESCE(email, ''), COALESCE(wallet_address, ''), COALESCE(country, ''),
		created_at, GREATEST(COALESCE(total_logins, 0), 1)
		FROM analytics_users ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to fetch recent users", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch recent users: %w", err)
	}
	defer rows.Close()

	users := make([]entity.RecentUser, 0, limit)
	for rows.Next() {
		var user entity.RecentUser
		if err := rows.Scan(&user.Email, &user.Wallet, &user.Country, &user.Created, &user.Logins); err != nil {
			return nil, fmt.Errorf("failed to scan recent user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
