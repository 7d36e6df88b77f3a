package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"
	"orbid_backend/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PortfolioService aggregates balances and USD valuations for a wallet.
type PortfolioService interface {
	GetPortfolio(ctx context.Context, walletAddress string) (*entity.Portfolio, error)
	TrackedTokens() []entity.TokenInfo
}

// portfolioServiceImpl is the implementation of PortfolioService.
type portfolioServiceImpl struct {
	logger       *zap.Logger
	cfg          *config.Config
	chainClient  client.ChainClient
	priceService PriceService
	tokens       []entity.TokenInfo
	snapshots    *cache.Cache // key: lowercase wallet address -> *entity.Portfolio
	rpcLimiter   *rate.Limiter
}

// NewPortfolioService loads the tracked token list and creates the service.
func NewPortfolioService(
	logger *zap.Logger,
	cfg *config.Config,
	chainClient client.ChainClient,
	priceService PriceService,
) (PortfolioService, error) {
	tokens, err := utils.LoadTokensFromJSON(cfg.Chain.TokensFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens from %s: %w", cfg.Chain.TokensFile, err)
	}
	logger.Info("Loaded tracked token list",
		zap.String("tokensFile", cfg.Chain.TokensFile),
		zap.Int("tokenCount", len(tokens)))

	return &portfolioServiceImpl{
		logger:       logger.Named("PortfolioService"),
		cfg:          cfg,
		chainClient:  chainClient,
		priceService: priceService,
		tokens:       tokens,
		snapshots:    cache.New(time.Duration(cfg.PortfolioSvc.CacheTTLSeconds)*time.Second, 10*time.Minute),
		rpcLimiter:   rate.NewLimiter(rate.Limit(cfg.Chain.RateLimit), cfg.Chain.BurstLimit),
	}, nil
}

// TrackedTokens returns the configured token list.
func (s *portfolioServiceImpl) TrackedTokens() []entity.TokenInfo {
	return s.tokens
}

// GetPortfolio returns the aggregated portfolio for a wallet. Balances and
// prices are fetched concurrently; recent snapshots are served from cache.
// A failed balance fetch degrades to an all-zero portfolio, which is not
// cached so the next request retries the chain.
func (s *portfolioServiceImpl) GetPortfolio(ctx context.Context, walletAddress string) (*entity.Portfolio, error) {
	walletLower := strings.ToLower(walletAddress)

	if cached, found := s.snapshots.Get(walletLower); found {
		if snapshot, ok := cached.(*entity.Portfolio); ok {
			s.logger.Debug("Serving portfolio from cache", zap.String("walletAddress", walletLower))
			return snapshot, nil
		}
	}

	var (
		rawBalances []entity.RawBalance
		quotes      map[string]entity.PriceQuote
		degraded    bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	if limit := s.cfg.PortfolioSvc.MaxConcurrentRequests; limit > 0 {
		g.SetLimit(limit)
	}
	g.Go(func() error {
		if err := s.rpcLimiter.Wait(gCtx); err != nil {
			rawBalances, degraded = zeroBalances(s.tokens), true
			return nil
		}
		fetchCtx, cancel := context.WithTimeout(gCtx, time.Duration(s.cfg.PortfolioSvc.BalanceFetchTimeoutMs)*time.Millisecond)
		defer cancel()

		balances, err := s.chainClient.GetTokenBalances(fetchCtx, walletAddress, s.tokens)
		if err != nil {
			// Balances degrade to zero, never to an error response.
			s.logger.Warn("Balance fetch failed, serving zero balances",
				zap.String("walletAddress", walletAddress),
				zap.Error(err))
			rawBalances, degraded = zeroBalances(s.tokens), true
			return nil
		}
		rawBalances = balances
		return nil
	})
	g.Go(func() error {
		quotes = s.priceService.GetPrices(gCtx, s.tokens)
		return nil
	})
	_ = g.Wait()

	portfolio := s.assemble(walletLower, rawBalances, quotes)
	if !degraded {
		s.snapshots.Set(walletLower, portfolio, cache.DefaultExpiration)
	}
	return portfolio, nil
}

func zeroBalances(tokens []entity.TokenInfo) []entity.RawBalance {
	balances := make([]entity.RawBalance, len(tokens))
	for i, token := range tokens {
		balances[i] = entity.RawBalance{Token: token, Amount: big.NewInt(0)}
	}
	return balances
}

// assemble builds the ordered portfolio: native token first, the rest
// descending by USD value. The sort is stable so equal-value tokens keep
// their configured order.
func (s *portfolioServiceImpl) assemble(walletAddress string, rawBalances []entity.RawBalance, quotes map[string]entity.PriceQuote) *entity.Portfolio {
	balances := make([]entity.TokenBalance, 0, len(rawBalances))
	totalValueUSD := 0.0

	for _, raw := range rawBalances {
		formatted := utils.FormatBalance(raw.Amount, raw.Token.Decimals)
		quote := quotes[strings.ToLower(raw.Token.Address)]

		numeric, err := strconv.ParseFloat(formatted, 64)
		if err != nil {
			s.logger.Warn("Unparseable formatted balance, valuing at zero",
				zap.String("tokenSymbol", raw.Token.Symbol),
				zap.String("formatted", formatted))
			numeric = 0
		}
		valueUSD := numeric * quote.USD

		balances = append(balances, entity.TokenBalance{
			Token:     raw.Token,
			Balance:   formatted,
			ValueUSD:  valueUSD,
			Change24h: quote.Change24h,
		})
		totalValueUSD += valueUSD
	}

	nativeSymbol := s.cfg.Chain.NativeSymbol
	sort.SliceStable(balances, func(i, j int) bool {
		iNative := balances[i].Token.Symbol == nativeSymbol
		jNative := balances[j].Token.Symbol == nativeSymbol
		if iNative != jNative {
			return iNative
		}
		return balances[i].ValueUSD > balances[j].ValueUSD
	})

	return &entity.Portfolio{
		WalletAddress: walletAddress,
		Balances:      balances,
		TotalValueUSD: totalValueUSD,
	}
}
