package entity

// TransferDirection marks a history entry as outgoing or incoming.
type TransferDirection string

const (
	TransferSend    TransferDirection = "send"
	TransferReceive TransferDirection = "receive"
)

// Transaction is one entry of a wallet's transfer history.
type Transaction struct {
	Hash        string            `json:"hash"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	TokenSymbol string            `json:"tokenSymbol"`
	Amount      string            `json:"amount"`
	Timestamp   int64             `json:"timestamp"` // unix millis
	BlockNumber string            `json:"blockNumber"`
	Direction   TransferDirection `json:"direction"`
	Status      string            `json:"status"`
}

// HistoryPage is one page of merged sent/received transfers.
// The page keys are opaque cursors from the upstream indexer; an empty key
// means the corresponding side is exhausted.
type HistoryPage struct {
	Transactions    []Transaction `json:"transactions"`
	SentPageKey     string        `json:"sentPageKey,omitempty"`
	ReceivedPageKey string        `json:"receivedPageKey,omitempty"`
	HasMore         bool          `json:"hasMore"`
}

// AssetTransfer mirrors one transfer object from alchemy_getAssetTransfers.
type AssetTransfer struct {
	BlockNum    string  `json:"blockNum"`
	Hash        string  `json:"hash"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Value       float64 `json:"value"`
	Asset       string  `json:"asset"`
	Category    string  `json:"category"`
	RawContract struct {
		Address string `json:"address"`
		Decimal string `json:"decimal"`
	} `json:"rawContract"`
}

// AssetTransfersResult is the result payload of alchemy_getAssetTransfers.
type AssetTransfersResult struct {
	Transfers []AssetTransfer `json:"transfers"`
	PageKey   string          `json:"pageKey"`
}
