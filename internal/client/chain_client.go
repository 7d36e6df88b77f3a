package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"orbid_backend/internal/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// balanceOfSelector is the 4-byte selector of the ERC20 balanceOf(address) call.
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// ChainClient reads token balances, block timestamps and asset transfers
// from a JSON-RPC endpoint.
type ChainClient interface {
	GetTokenBalances(ctx context.Context, ownerAddress string, tokens []entity.TokenInfo) ([]entity.RawBalance, error)
	GetBlockTimestamp(ctx context.Context, blockNum string) (int64, error)
	GetAssetTransfers(ctx context.Context, params AssetTransfersParams) (*entity.AssetTransfersResult, error)
	Close()
}

// AssetTransfersParams selects one direction of a wallet's transfer history.
type AssetTransfersParams struct {
	FromAddress string
	ToAddress   string
	PageKey     string
	MaxCount    int
}

// chainClientImpl is the implementation of ChainClient.
type chainClientImpl struct {
	rpcClient      *rpc.Client
	logger         *zap.Logger
	rpcCallTimeout time.Duration
}

// NewChainClient dials the RPC endpoint and returns a ChainClient.
func NewChainClient(rpcURL string, rpcCallTimeout time.Duration, logger *zap.Logger) (ChainClient, error) {
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}
	return &chainClientImpl{
		rpcClient:      rpcClient,
		logger:         logger.Named("ChainClient"),
		rpcCallTimeout: rpcCallTimeout,
	}, nil
}

// GetTokenBalances fetches balanceOf for every token in one JSON-RPC batch.
// RPC failures, whether per element or for the whole batch, degrade to zero
// balances with a log; a flaky endpoint never blocks the portfolio.
func (c *chainClientImpl) GetTokenBalances(ctx context.Context, ownerAddress string, tokens []entity.TokenInfo) ([]entity.RawBalance, error) {
	if len(tokens) == 0 {
		return []entity.RawBalance{}, nil
	}

	paddedOwner := common.LeftPadBytes(common.HexToAddress(ownerAddress).Bytes(), 32)
	callData := append(append([]byte{}, balanceOfSelector...), paddedOwner...)

	batchElems := make([]rpc.BatchElem, len(tokens))
	for i, token := range tokens {
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(token.Address),
			"data": hexutil.Bytes(callData),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.rpcClient.BatchCallContext(rpcCtx, batchElems); err != nil {
		c.logger.Warn("RPC batch call failed, substituting zero balances",
			zap.String("owner", ownerAddress),
			zap.Int("tokenCount", len(tokens)),
			zap.Error(err))
		return zeroBalances(tokens), nil
	}

	results := make([]entity.RawBalance, len(tokens))
	for i, elem := range batchElems {
		results[i] = entity.RawBalance{Token: tokens[i], Amount: big.NewInt(0)}

		if elem.Error != nil {
			c.logger.Warn("RPC error reading token balance, substituting zero",
				zap.String("tokenSymbol", tokens[i].Symbol),
				zap.String("tokenAddress", tokens[i].Address),
				zap.String("owner", ownerAddress),
				zap.Error(elem.Error))
			continue
		}

		raw, ok := elem.Result.(*hexutil.Bytes)
		if !ok || raw == nil || len(*raw) == 0 {
			continue
		}
		results[i].Amount = new(big.Int).SetBytes(*raw)
	}
	return results, nil
}

func zeroBalances(tokens []entity.TokenInfo) []entity.RawBalance {
	balances := make([]entity.RawBalance, len(tokens))
	for i, token := range tokens {
		balances[i] = entity.RawBalance{Token: token, Amount: big.NewInt(0)}
	}
	return balances
}

// GetBlockTimestamp resolves a block number to its unix timestamp in millis.
func (c *chainClientImpl) GetBlockTimestamp(ctx context.Context, blockNum string) (int64, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	var header struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}
	if err := c.rpcClient.CallContext(rpcCtx, &header, "eth_getBlockByNumber", blockNum, false); err != nil {
		return 0, fmt.Errorf("eth_getBlockByNumber %s failed: %w", blockNum, err)
	}
	return int64(header.Timestamp) * 1000, nil
}

// GetAssetTransfers queries one direction of the wallet's transfer history.
func (c *chainClientImpl) GetAssetTransfers(ctx context.Context, params AssetTransfersParams) (*entity.AssetTransfersResult, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	callParams := map[string]interface{}{
		"category":         []string{"erc20", "external"},
		"order":            "desc",
		"maxCount":         hexutil.EncodeUint64(uint64(params.MaxCount)),
		"excludeZeroValue": true,
	}
	if params.FromAddress != "" {
		callParams["fromAddress"] = params.FromAddress
	}
	if params.ToAddress != "" {
		callParams["toAddress"] = params.ToAddress
	}
	if params.PageKey != "" {
		callParams["pageKey"] = params.PageKey
	}

	var result entity.AssetTransfersResult
	if err := c.rpcClient.CallContext(rpcCtx, &result, "alchemy_getAssetTransfers", callParams); err != nil {
		return nil, fmt.Errorf("alchemy_getAssetTransfers failed: %w", err)
	}
	return &result, nil
}

// Close releases the underlying RPC connection.
func (c *chainClientImpl) Close() {
	c.rpcClient.Close()
}
