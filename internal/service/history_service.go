package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const blockTimestampFetchConcurrency = 8

// HistoryService pages through a wallet's merged transfer history.
// Paging is stateless: callers echo back the sent/received cursors from the
// previous page. Both cursors empty means an initial load.
type HistoryService interface {
	GetHistory(ctx context.Context, walletAddress string, sentPageKey string, receivedPageKey string) (*entity.HistoryPage, error)
}

// historyServiceImpl is the implementation of HistoryService.
type historyServiceImpl struct {
	logger          *zap.Logger
	cfg             *config.Config
	chainClient     client.ChainClient
	tokensByAddress map[string]entity.TokenInfo
	blockTimestamps *cache.Cache // key: hex block number -> int64 unix millis
}

// NewHistoryService creates a new instance of historyServiceImpl.
func NewHistoryService(
	logger *zap.Logger,
	cfg *config.Config,
	chainClient client.ChainClient,
	tokens []entity.TokenInfo,
) HistoryService {
	byAddress := make(map[string]entity.TokenInfo, len(tokens))
	for _, token := range tokens {
		byAddress[strings.ToLower(token.Address)] = token
	}

	return &historyServiceImpl{
		logger:          logger.Named("HistoryService"),
		cfg:             cfg,
		chainClient:     chainClient,
		tokensByAddress: byAddress,
		// Block timestamps never change; the TTL only bounds memory.
		blockTimestamps: cache.New(6*time.Hour, 30*time.Minute),
	}
}

// GetHistory fetches the next page of sent and received transfers, resolves
// block timestamps, and returns a merged list sorted newest first.
func (s *historyServiceImpl) GetHistory(ctx context.Context, walletAddress string, sentPageKey string, receivedPageKey string) (*entity.HistoryPage, error) {
	initialLoad := sentPageKey == "" && receivedPageKey == ""

	var (
		sentResult     *entity.AssetTransfersResult
		receivedResult *entity.AssetTransfersResult
	)

	g, gCtx := errgroup.WithContext(ctx)
	if initialLoad || sentPageKey != "" {
		g.Go(func() error {
			result, err := s.chainClient.GetAssetTransfers(gCtx, client.AssetTransfersParams{
				FromAddress: walletAddress,
				PageKey:     sentPageKey,
				MaxCount:    s.cfg.HistorySvc.PageSize,
			})
			if err != nil {
				return err
			}
			sentResult = result
			return nil
		})
	}
	if initialLoad || receivedPageKey != "" {
		g.Go(func() error {
			result, err := s.chainClient.GetAssetTransfers(gCtx, client.AssetTransfersParams{
				ToAddress: walletAddress,
				PageKey:   receivedPageKey,
				MaxCount:  s.cfg.HistorySvc.PageSize,
			})
			if err != nil {
				return err
			}
			receivedResult = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to fetch asset transfers",
			zap.String("walletAddress", walletAddress),
			zap.Error(err))
		return nil, err
	}

	page := &entity.HistoryPage{Transactions: []entity.Transaction{}}
	var sentTransfers, receivedTransfers []entity.AssetTransfer
	if sentResult != nil {
		sentTransfers = sentResult.Transfers
		page.SentPageKey = sentResult.PageKey
	}
	if receivedResult != nil {
		receivedTransfers = receivedResult.Transfers
		page.ReceivedPageKey = receivedResult.PageKey
	}
	page.HasMore = page.SentPageKey != "" || page.ReceivedPageKey != ""

	timestamps := s.resolveBlockTimestamps(ctx, sentTransfers, receivedTransfers)

	merged := make([]entity.Transaction, 0, len(sentTransfers)+len(receivedTransfers))
	for _, transfer := range sentTransfers {
		merged = append(merged, s.toTransaction(transfer, entity.TransferSend, timestamps))
	}
	for _, transfer := range receivedTransfers {
		merged = append(merged, s.toTransaction(transfer, entity.TransferReceive, timestamps))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})

	// Self-transfers show up on both sides; keep the first occurrence.
	seen := make(map[string]struct{}, len(merged))
	for _, tx := range merged {
		if _, dup := seen[tx.Hash]; dup {
			continue
		}
		seen[tx.Hash] = struct{}{}
		page.Transactions = append(page.Transactions, tx)
	}
	return page, nil
}

// resolveBlockTimestamps looks up the timestamp of every referenced block,
// serving repeats from cache. A failed lookup falls back to the current time.
func (s *historyServiceImpl) resolveBlockTimestamps(ctx context.Context, transferLists ...[]entity.AssetTransfer) map[string]int64 {
	blockNums := make(map[string]struct{})
	for _, transfers := range transferLists {
		for _, transfer := range transfers {
			blockNums[transfer.BlockNum] = struct{}{}
		}
	}

	timestamps := make(map[string]int64, len(blockNums))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(blockTimestampFetchConcurrency)
	for blockNum := range blockNums {
		currentBlock := blockNum
		if cached, found := s.blockTimestamps.Get(currentBlock); found {
			if ts, ok := cached.(int64); ok {
				// The fetch goroutines write this map too; cache hits
				// need the same lock.
				mu.Lock()
				timestamps[currentBlock] = ts
				mu.Unlock()
				continue
			}
		}
		g.Go(func() error {
			ts, err := s.chainClient.GetBlockTimestamp(gCtx, currentBlock)
			if err != nil {
				s.logger.Warn("Failed to resolve block timestamp, using current time",
					zap.String("blockNum", currentBlock),
					zap.Error(err))
				ts = time.Now().UnixMilli()
			} else {
				s.blockTimestamps.Set(currentBlock, ts, cache.DefaultExpiration)
			}
			mu.Lock()
			timestamps[currentBlock] = ts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return timestamps
}

func (s *historyServiceImpl) toTransaction(transfer entity.AssetTransfer, direction entity.TransferDirection, timestamps map[string]int64) entity.Transaction {
	symbol := transfer.Asset
	if token, known := s.tokensByAddress[strings.ToLower(transfer.RawContract.Address)]; known {
		symbol = token.Symbol
	}
	if symbol == "" {
		symbol = s.cfg.Chain.NativeSymbol
	}

	timestamp, found := timestamps[transfer.BlockNum]
	if !found {
		timestamp = time.Now().UnixMilli()
	}

	return entity.Transaction{
		Hash:        transfer.Hash,
		From:        transfer.From,
		To:          transfer.To,
		TokenSymbol: symbol,
		Amount:      strconv.FormatFloat(transfer.Value, 'f', -1, 64),
		Timestamp:   timestamp,
		BlockNumber: transfer.BlockNum,
		Direction:   direction,
		Status:      "confirmed",
	}
}
