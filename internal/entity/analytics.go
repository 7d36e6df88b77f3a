package entity

import "time"

// AnalyticsEvent is a single tracked event.
type AnalyticsEvent struct {
	ID        string         `json:"id"`
	EventName string         `json:"event_name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AnalyticsUser is one row of the user analytics table.
type AnalyticsUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	Country       string    `json:"country,omitempty"`
	DeviceType    string    `json:"device_type,omitempty"`
	Browser       string    `json:"browser,omitempty"`
	OS            string    `json:"os,omitempty"`
	IsOrbVerified bool      `json:"is_orb_verified"`
	TotalLogins   int64     `json:"total_logins"`
	CreatedAt     time.Time `json:"created_at"`
}

// OverviewStats is the admin dashboard headline block.
type OverviewStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	VerifiedUsers int64 `json:"verifiedUsers"`
	NewUsersToday int64 `json:"newUsersToday"`
	TotalLogins   int64 `json:"totalLogins"`
}

// LabelCount is a generic grouped distribution entry (country, device, ...).
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GrowthPoint is one day of the signup growth series.
type GrowthPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RecentUser is one row of the "recent signups" admin view.
type RecentUser struct {
	Email   string    `json:"email,omitempty"`
	Wallet  string    `json:"wallet,omitempty"`
	Country string    `json:"country,omitempty"`
	Created time.Time `json:"created"`
	Logins  int64     `json:"logins"`
}
