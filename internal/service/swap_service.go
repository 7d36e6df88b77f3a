package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"
	"orbid_backend/internal/pkg/utils"

	"go.uber.org/zap"
)

// defaultPoolTiers are the fee/tick-spacing candidates probed for pairs
// without a known pool, cheapest tier first.
var defaultPoolTiers = []entity.PoolConfig{
	{Fee: 100, TickSpacing: 1, Hooks: entity.ZeroAddress},
	{Fee: 500, TickSpacing: 10, Hooks: entity.ZeroAddress},
	{Fee: 3000, TickSpacing: 60, Hooks: entity.ZeroAddress},
	{Fee: 10000, TickSpacing: 200, Hooks: entity.ZeroAddress},
}

// SwapService quotes token swaps and discovers candidate liquidity pools.
type SwapService interface {
	GetQuote(ctx context.Context, tokenIn entity.TokenInfo, tokenOut entity.TokenInfo, amountIn string, slippageBps int) (*entity.SwapQuote, error)
	DiscoverPools(tokenA string, tokenB string) []entity.PoolConfig
}

// swapServiceImpl is the implementation of SwapService.
type swapServiceImpl struct {
	logger       *zap.Logger
	cfg          *config.Config
	priceService PriceService
	knownPools   map[string]entity.KnownPool // key: canonical "token0_token1" pair
}

// NewSwapService loads the static pool table and creates the service.
func NewSwapService(
	logger *zap.Logger,
	cfg *config.Config,
	priceService PriceService,
) (SwapService, error) {
	knownPools := make(map[string]entity.KnownPool)
	if cfg.SwapSvc.PoolsFile != "" {
		pools, err := utils.LoadKnownPoolsFromJSON(cfg.SwapSvc.PoolsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load pools from %s: %w", cfg.SwapSvc.PoolsFile, err)
		}
		for _, pool := range pools {
			knownPools[poolKey(pool.Token0, pool.Token1)] = pool
		}
		logger.Info("Loaded known pool table",
			zap.String("poolsFile", cfg.SwapSvc.PoolsFile),
			zap.Int("poolCount", len(knownPools)))
	}

	return &swapServiceImpl{
		logger:       logger.Named("SwapService"),
		cfg:          cfg,
		priceService: priceService,
		knownPools:   knownPools,
	}, nil
}

// poolKey builds the canonical identifier of a token pair: both addresses
// lowercased, smaller one first, so key(a, b) == key(b, a).
func poolKey(tokenA string, tokenB string) string {
	a, b := strings.ToLower(tokenA), strings.ToLower(tokenB)
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// DiscoverPools returns candidate pools for a pair: the known pool when the
// table has one, otherwise the default fee tiers.
func (s *swapServiceImpl) DiscoverPools(tokenA string, tokenB string) []entity.PoolConfig {
	if pool, known := s.knownPools[poolKey(tokenA, tokenB)]; known {
		s.logger.Debug("Found pair in known pool table",
			zap.String("pairSymbol", pool.Symbol),
			zap.Int("fee", pool.Fee))
		return []entity.PoolConfig{{Fee: pool.Fee, TickSpacing: pool.TickSpacing, Hooks: pool.Hooks}}
	}

	candidates := make([]entity.PoolConfig, len(defaultPoolTiers))
	copy(candidates, defaultPoolTiers)
	return candidates
}

// GetQuote estimates a swap from current USD prices. Amounts are decimal
// strings in the smallest unit of their token.
func (s *swapServiceImpl) GetQuote(ctx context.Context, tokenIn entity.TokenInfo, tokenOut entity.TokenInfo, amountIn string, slippageBps int) (*entity.SwapQuote, error) {
	amountInUnits, ok := new(big.Int).SetString(amountIn, 10)
	if !ok || amountInUnits.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amountIn %q", amountIn)
	}
	if slippageBps <= 0 {
		slippageBps = s.cfg.SwapSvc.DefaultSlippageBps
	}

	quotes := s.priceService.GetPrices(ctx, []entity.TokenInfo{tokenIn, tokenOut})
	priceIn := quotes[strings.ToLower(tokenIn.Address)].USD
	priceOut := quotes[strings.ToLower(tokenOut.Address)].USD
	if priceIn <= 0 || priceOut <= 0 {
		return nil, fmt.Errorf("no price available for pair %s/%s", tokenIn.Symbol, tokenOut.Symbol)
	}

	// amountOut = amountIn * priceIn / priceOut, rescaled between decimals.
	amountOutFloat := new(big.Float).SetInt(amountInUnits)
	amountOutFloat.Mul(amountOutFloat, big.NewFloat(priceIn/priceOut))
	amountOutFloat.Mul(amountOutFloat, decimalsScale(tokenOut.Decimals))
	amountOutFloat.Quo(amountOutFloat, decimalsScale(tokenIn.Decimals))
	amountOutUnits, _ := amountOutFloat.Int(nil)

	minFloat := new(big.Float).SetInt(amountOutUnits)
	minFloat.Mul(minFloat, big.NewFloat(float64(10000-slippageBps)))
	minFloat.Quo(minFloat, big.NewFloat(10000))
	amountOutMinUnits, _ := minFloat.Int(nil)

	deadline := time.Now().Add(time.Duration(s.cfg.SwapSvc.DeadlineMinutes) * time.Minute).Unix()

	return &entity.SwapQuote{
		TokenIn:      tokenIn.Address,
		TokenOut:     tokenOut.Address,
		AmountIn:     amountInUnits.String(),
		AmountOut:    amountOutUnits.String(),
		AmountOutMin: amountOutMinUnits.String(),
		PriceInUSD:   priceIn,
		PriceOutUSD:  priceOut,
		SlippageBps:  slippageBps,
		Deadline:     deadline,
		Pools:        s.DiscoverPools(tokenIn.Address, tokenOut.Address),
	}, nil
}

func decimalsScale(decimals uint8) *big.Float {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Float).SetInt(scale)
}
