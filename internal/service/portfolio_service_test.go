package service

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePriceService struct {
	quotes map[string]entity.PriceQuote
	calls  int
}

func (f *fakePriceService) GetPrices(_ context.Context, tokens []entity.TokenInfo) map[string]entity.PriceQuote {
	f.calls++
	out := make(map[string]entity.PriceQuote, len(tokens))
	for _, token := range tokens {
		addrLower := strings.ToLower(token.Address)
		out[addrLower] = f.quotes[addrLower]
	}
	return out
}

type fakeChainClient struct {
	balances    []entity.RawBalance
	balancesErr error
	balanceCall int

	mu              sync.Mutex
	blockTimestamps map[string]int64
	timestampCalls  map[string]int
	timestampErr    error

	transfersFn func(params client.AssetTransfersParams) (*entity.AssetTransfersResult, error)
}

func (f *fakeChainClient) GetTokenBalances(_ context.Context, _ string, _ []entity.TokenInfo) ([]entity.RawBalance, error) {
	f.balanceCall++
	return f.balances, f.balancesErr
}

func (f *fakeChainClient) GetBlockTimestamp(_ context.Context, blockNum string) (int64, error) {
	f.mu.Lock()
	if f.timestampCalls == nil {
		f.timestampCalls = make(map[string]int)
	}
	f.timestampCalls[blockNum]++
	f.mu.Unlock()
	if f.timestampErr != nil {
		return 0, f.timestampErr
	}
	return f.blockTimestamps[blockNum], nil
}

func (f *fakeChainClient) GetAssetTransfers(_ context.Context, params client.AssetTransfersParams) (*entity.AssetTransfersResult, error) {
	if f.transfersFn == nil {
		return &entity.AssetTransfersResult{}, nil
	}
	return f.transfersFn(params)
}

func (f *fakeChainClient) Close() {}

func writeTokensFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	content := `[
		{"symbol": "WLD", "name": "Worldcoin", "address": "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", "decimals": 18},
		{"symbol": "USDC.e", "name": "Bridged USDC", "address": "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1", "decimals": 6},
		{"symbol": "WETH", "name": "Wrapped Ether", "address": "0x4200000000000000000000000000000000000006", "decimals": 18}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func portfolioTestConfig(tokensFile string) *config.Config {
	return &config.Config{
		Chain: config.ChainConfig{
			NativeSymbol: "WLD",
			TokensFile:   tokensFile,
			RateLimit:    100,
			BurstLimit:   100,
		},
		PortfolioSvc: config.PortfolioServiceConfig{
			CacheTTLSeconds:       30,
			BalanceFetchTimeoutMs: 5000,
		},
	}
}

func TestGetPortfolioOrdersNativeFirstThenByValue(t *testing.T) {
	tokensFile := writeTokensFile(t)
	cfg := portfolioTestConfig(tokensFile)

	chain := &fakeChainClient{balances: []entity.RawBalance{
		{Token: entity.TokenInfo{Symbol: "WLD", Address: "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", Decimals: 18}, Amount: mustBigInt("2000000000000000000")},
		{Token: entity.TokenInfo{Symbol: "USDC.e", Address: "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1", Decimals: 6}, Amount: mustBigInt("5000000")},
		{Token: entity.TokenInfo{Symbol: "WETH", Address: "0x4200000000000000000000000000000000000006", Decimals: 18}, Amount: mustBigInt("1000000000000000000")},
	}}
	prices := &fakePriceService{quotes: map[string]entity.PriceQuote{
		"0x2cfc85d8e48f8eab294be644d9e25c3030863003": {USD: 1.25, Change24h: 2.0, Source: PriceSourceDEXScreener},
		"0x79a02482a880bce3f13e09da970dc34db4cd24d1": {USD: 1.00, Source: PriceSourceStable},
		"0x4200000000000000000000000000000000000006": {USD: 3000, Change24h: -1.5, Source: PriceSourceDEXScreener},
	}}

	svc, err := NewPortfolioService(zap.NewNop(), cfg, chain, prices)
	require.NoError(t, err)

	portfolio, err := svc.GetPortfolio(context.Background(), "0xABCDEF0000000000000000000000000000000001")
	require.NoError(t, err)

	require.Len(t, portfolio.Balances, 3)
	assert.Equal(t, "WLD", portfolio.Balances[0].Token.Symbol, "native token leads regardless of value")
	assert.Equal(t, "WETH", portfolio.Balances[1].Token.Symbol)
	assert.Equal(t, "USDC.e", portfolio.Balances[2].Token.Symbol)

	assert.Equal(t, "2", portfolio.Balances[0].Balance)
	assert.InDelta(t, 2.5, portfolio.Balances[0].ValueUSD, 1e-9)
	assert.InDelta(t, 3000.0, portfolio.Balances[1].ValueUSD, 1e-9)
	assert.InDelta(t, 5.0, portfolio.Balances[2].ValueUSD, 1e-9)
	assert.InDelta(t, 3007.5, portfolio.TotalValueUSD, 1e-9)

	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", portfolio.WalletAddress)
}

func TestGetPortfolioEmptyWallet(t *testing.T) {
	tokensFile := writeTokensFile(t)
	cfg := portfolioTestConfig(tokensFile)

	chain := &fakeChainClient{balances: []entity.RawBalance{
		{Token: entity.TokenInfo{Symbol: "WLD", Address: "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", Decimals: 18}, Amount: mustBigInt("0")},
	}}
	prices := &fakePriceService{quotes: map[string]entity.PriceQuote{
		"0x2cfc85d8e48f8eab294be644d9e25c3030863003": {USD: 1.25},
	}}

	svc, err := NewPortfolioService(zap.NewNop(), cfg, chain, prices)
	require.NoError(t, err)

	portfolio, err := svc.GetPortfolio(context.Background(), "0xEMPTY")
	require.NoError(t, err)
	require.Len(t, portfolio.Balances, 1)
	assert.Equal(t, "0", portfolio.Balances[0].Balance)
	assert.Zero(t, portfolio.TotalValueUSD)
}

func TestGetPortfolioServesRepeatsFromCache(t *testing.T) {
	tokensFile := writeTokensFile(t)
	cfg := portfolioTestConfig(tokensFile)

	chain := &fakeChainClient{balances: []entity.RawBalance{
		{Token: entity.TokenInfo{Symbol: "WLD", Address: "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", Decimals: 18}, Amount: mustBigInt("1000000000000000000")},
	}}
	prices := &fakePriceService{quotes: map[string]entity.PriceQuote{
		"0x2cfc85d8e48f8eab294be644d9e25c3030863003": {USD: 1.25},
	}}

	svc, err := NewPortfolioService(zap.NewNop(), cfg, chain, prices)
	require.NoError(t, err)

	first, err := svc.GetPortfolio(context.Background(), "0xCACHED")
	require.NoError(t, err)
	second, err := svc.GetPortfolio(context.Background(), "0xCACHED")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, chain.balanceCall)
	assert.Equal(t, 1, prices.calls)
}

func TestGetPortfolioDegradesToZeroBalancesOnFetchFailure(t *testing.T) {
	tokensFile := writeTokensFile(t)
	cfg := portfolioTestConfig(tokensFile)

	chain := &fakeChainClient{balancesErr: errors.New("rpc unavailable")}
	prices := &fakePriceService{quotes: map[string]entity.PriceQuote{
		"0x2cfc85d8e48f8eab294be644d9e25c3030863003": {USD: 1.25},
	}}

	svc, err := NewPortfolioService(zap.NewNop(), cfg, chain, prices)
	require.NoError(t, err)

	portfolio, err := svc.GetPortfolio(context.Background(), "0xFAIL")
	require.NoError(t, err, "a failed balance fetch must not surface as an error")

	require.Len(t, portfolio.Balances, 3, "every tracked token still gets an entry")
	for _, balance := range portfolio.Balances {
		assert.Equal(t, "0", balance.Balance)
		assert.Zero(t, balance.ValueUSD)
	}
	assert.Zero(t, portfolio.TotalValueUSD)

	// The degraded snapshot is not cached, so the next request retries.
	_, err = svc.GetPortfolio(context.Background(), "0xFAIL")
	require.NoError(t, err)
	assert.Equal(t, 2, chain.balanceCall)
}

func TestGetPortfolioHonorsConcurrencyLimit(t *testing.T) {
	tokensFile := writeTokensFile(t)
	cfg := portfolioTestConfig(tokensFile)
	cfg.PortfolioSvc.MaxConcurrentRequests = 1

	chain := &fakeChainClient{balances: []entity.RawBalance{
		{Token: entity.TokenInfo{Symbol: "WLD", Address: "0x2cFc85d8E48F8EAB294be644d9E25C3030863003", Decimals: 18}, Amount: mustBigInt("1000000000000000000")},
	}}
	prices := &fakePriceService{quotes: map[string]entity.PriceQuote{
		"0x2cfc85d8e48f8eab294be644d9e25c3030863003": {USD: 1.25},
	}}

	svc, err := NewPortfolioService(zap.NewNop(), cfg, chain, prices)
	require.NoError(t, err)

	portfolio, err := svc.GetPortfolio(context.Background(), "0xSERIAL")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, portfolio.TotalValueUSD, 1e-9)
	assert.Equal(t, 1, prices.calls)
}

func TestNewPortfolioServiceRejectsMissingTokensFile(t *testing.T) {
	cfg := portfolioTestConfig(filepath.Join(t.TempDir(), "missing.json"))
	_, err := NewPortfolioService(zap.NewNop(), cfg, &fakeChainClient{}, &fakePriceService{})
	assert.Error(t, err)
}

func mustBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big.Int literal: " + s)
	}
	return v
}

func TestTrackedTokens(t *testing.T) {
	tokensFile := writeTokensFile(t)
	svc, err := NewPortfolioService(zap.NewNop(), portfolioTestConfig(tokensFile), &fakeChainClient{}, &fakePriceService{})
	require.NoError(t, err)

	tokens := svc.TrackedTokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, "WLD", tokens[0].Symbol)
	assert.Equal(t, uint8(6), tokens[1].Decimals)
}
