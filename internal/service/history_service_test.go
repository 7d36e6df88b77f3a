package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func historyTestConfig() *config.Config {
	return &config.Config{
		Chain:      config.ChainConfig{NativeSymbol: "WLD"},
		HistorySvc: config.HistoryServiceConfig{PageSize: 10},
	}
}

func historyTestTokens() []entity.TokenInfo {
	return []entity.TokenInfo{
		{Symbol: "WLD", Address: "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", Decimals: 18},
		{Symbol: "USDC.e", Address: "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1", Decimals: 6},
	}
}

func makeTransfer(hash, blockNum, asset, contract string, value float64) entity.AssetTransfer {
	transfer := entity.AssetTransfer{BlockNum: blockNum, Hash: hash, Asset: asset, Value: value}
	transfer.RawContract.Address = contract
	return transfer
}

// directedTransfers routes sent fetches (FromAddress set) and received fetches
// (ToAddress set) to separate results, recording every request.
func directedTransfers(sent, received *entity.AssetTransfersResult, captured *[]client.AssetTransfersParams) func(client.AssetTransfersParams) (*entity.AssetTransfersResult, error) {
	var mu sync.Mutex
	return func(params client.AssetTransfersParams) (*entity.AssetTransfersResult, error) {
		mu.Lock()
		if captured != nil {
			*captured = append(*captured, params)
		}
		mu.Unlock()
		if params.FromAddress != "" {
			return sent, nil
		}
		return received, nil
	}
}

func TestGetHistoryMergesAndSortsNewestFirst(t *testing.T) {
	sent := &entity.AssetTransfersResult{
		Transfers: []entity.AssetTransfer{makeTransfer("0xaaa", "0x10", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 1.5)},
		PageKey:   "sent-cursor-2",
	}
	received := &entity.AssetTransfersResult{
		Transfers: []entity.AssetTransfer{makeTransfer("0xbbb", "0x20", "USDC.e", "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1", 25)},
	}
	chain := &fakeChainClient{
		blockTimestamps: map[string]int64{"0x10": 1_700_000_000_000, "0x20": 1_700_000_060_000},
		transfersFn:     directedTransfers(sent, received, nil),
	}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "0xbbb", page.Transactions[0].Hash, "newer block comes first")
	assert.Equal(t, "0xaaa", page.Transactions[1].Hash)
	assert.Equal(t, entity.TransferReceive, page.Transactions[0].Direction)
	assert.Equal(t, entity.TransferSend, page.Transactions[1].Direction)
	assert.Equal(t, "25", page.Transactions[0].Amount)
	assert.Equal(t, "1.5", page.Transactions[1].Amount)
	assert.Equal(t, "confirmed", page.Transactions[0].Status)

	assert.Equal(t, "sent-cursor-2", page.SentPageKey)
	assert.Empty(t, page.ReceivedPageKey)
	assert.True(t, page.HasMore)
}

func TestGetHistoryDeduplicatesSelfTransfers(t *testing.T) {
	selfTransfer := makeTransfer("0xself", "0x10", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 3)
	chain := &fakeChainClient{
		blockTimestamps: map[string]int64{"0x10": 1_700_000_000_000},
		transfersFn: directedTransfers(
			&entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{selfTransfer}},
			&entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{selfTransfer}},
			nil,
		),
	}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	require.Len(t, page.Transactions, 1)
	assert.Equal(t, entity.TransferSend, page.Transactions[0].Direction, "sent side wins the tie")
	assert.False(t, page.HasMore)
}

func TestGetHistoryCursorLoadFetchesOnlyRequestedSide(t *testing.T) {
	var captured []client.AssetTransfersParams
	chain := &fakeChainClient{
		blockTimestamps: map[string]int64{},
		transfersFn: directedTransfers(
			&entity.AssetTransfersResult{PageKey: "sent-cursor-3"},
			&entity.AssetTransfersResult{},
			&captured,
		),
	}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "sent-cursor-2", "")
	require.NoError(t, err)

	require.Len(t, captured, 1, "exhausted side must not be refetched")
	assert.Equal(t, "0xWALLET", captured[0].FromAddress)
	assert.Equal(t, "sent-cursor-2", captured[0].PageKey)
	assert.Equal(t, 10, captured[0].MaxCount)

	assert.Equal(t, "sent-cursor-3", page.SentPageKey)
	assert.True(t, page.HasMore)
}

func TestGetHistorySymbolResolution(t *testing.T) {
	sent := &entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{
		// Tracked contract: configured symbol wins over the indexer's asset name.
		makeTransfer("0x1", "0x10", "USDC", "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1", 1),
		// Untracked contract: the indexer's asset name is kept.
		makeTransfer("0x2", "0x10", "FOO", "0x0000000000000000000000000000000000000abc", 1),
		// Native transfer with no asset name at all.
		makeTransfer("0x3", "0x10", "", "", 1),
	}}
	chain := &fakeChainClient{
		blockTimestamps: map[string]int64{"0x10": 1_700_000_000_000},
		transfersFn:     directedTransfers(sent, &entity.AssetTransfersResult{}, nil),
	}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	symbols := make(map[string]string, len(page.Transactions))
	for _, tx := range page.Transactions {
		symbols[tx.Hash] = tx.TokenSymbol
	}
	assert.Equal(t, "USDC.e", symbols["0x1"])
	assert.Equal(t, "FOO", symbols["0x2"])
	assert.Equal(t, "WLD", symbols["0x3"])
}

func TestGetHistoryReusesCachedBlockTimestamps(t *testing.T) {
	chain := &fakeChainClient{
		blockTimestamps: map[string]int64{"0x10": 1_700_000_000_000, "0x20": 1_700_000_060_000},
	}
	firstPage := &entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{
		makeTransfer("0x1", "0x10", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 1),
	}}
	secondPage := &entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{
		makeTransfer("0x2", "0x10", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 2),
		makeTransfer("0x3", "0x20", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 3),
	}}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())

	chain.transfersFn = directedTransfers(firstPage, &entity.AssetTransfersResult{}, nil)
	_, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	// Second page mixes a cached block with a fresh one.
	chain.transfersFn = directedTransfers(secondPage, &entity.AssetTransfersResult{}, nil)
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	require.Len(t, page.Transactions, 2)
	assert.Equal(t, int64(1_700_000_060_000), page.Transactions[0].Timestamp)
	assert.Equal(t, int64(1_700_000_000_000), page.Transactions[1].Timestamp)

	assert.Equal(t, 1, chain.timestampCalls["0x10"], "cached block must not be refetched")
	assert.Equal(t, 1, chain.timestampCalls["0x20"])
}

func TestGetHistoryTimestampLookupFailureFallsBackToNow(t *testing.T) {
	sent := &entity.AssetTransfersResult{Transfers: []entity.AssetTransfer{
		makeTransfer("0x1", "0x10", "WLD", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", 1),
	}}
	chain := &fakeChainClient{
		timestampErr: errors.New("rpc unavailable"),
		transfersFn:  directedTransfers(sent, &entity.AssetTransfersResult{}, nil),
	}

	before := time.Now().UnixMilli()
	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	page, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	require.NoError(t, err)

	require.Len(t, page.Transactions, 1)
	assert.GreaterOrEqual(t, page.Transactions[0].Timestamp, before)
}

func TestGetHistoryPropagatesFetchErrors(t *testing.T) {
	chain := &fakeChainClient{
		transfersFn: func(client.AssetTransfersParams) (*entity.AssetTransfersResult, error) {
			return nil, errors.New("indexer down")
		},
	}

	svc := NewHistoryService(zap.NewNop(), historyTestConfig(), chain, historyTestTokens())
	_, err := svc.GetHistory(context.Background(), "0xWALLET", "", "")
	assert.ErrorContains(t, err, "indexer down")
}
