package entity

// Localisation is a per-language title/message pair for a push notification.
type Localisation struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// AdminNotificationRequest is the payload of the admin broadcast endpoint.
type AdminNotificationRequest struct {
	WalletAddresses []string       `json:"walletAddresses"`
	Localisations   []Localisation `json:"localisations"`
	MiniAppPath     string         `json:"miniAppPath"`
}

// Typed notification kinds carried by the transactional endpoint.
const (
	NotificationTxReceived = "tx_received"
	NotificationTxSent     = "tx_sent"
)

// TypedNotificationRequest is the payload of the transactional endpoint:
// a template id plus the amount/token substitutions.
type TypedNotificationRequest struct {
	WalletAddresses []string `json:"walletAddresses"`
	Type            string   `json:"type"`
	Amount          string   `json:"amount"`
	Token           string   `json:"token"`
	MiniAppPath     string   `json:"miniAppPath"`
}
