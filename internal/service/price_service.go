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
	"orbid_backend/internal/pkg/utils"
	"orbid_backend/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Price sources, recorded on each quote for observability.
const (
	PriceSourceStable      = "stable"
	PriceSourceDEXScreener = "dexscreener"
	PriceSourceCoinGecko   = "coingecko"
	PriceSourceNone        = "none"
)

// PriceService resolves USD quotes for tokens. Resolution runs as a cascade:
// stablecoins are pinned at 1.00, then DEX Screener pairs, then CoinGecko by
// configured coin id. Tokens that every tier misses get a zero quote; price
// resolution never fails a caller.
type PriceService interface {
	GetPrices(ctx context.Context, tokens []entity.TokenInfo) map[string]entity.PriceQuote
}

// priceServiceImpl is the implementation of PriceService.
type priceServiceImpl struct {
	logger            *zap.Logger
	cfg               *config.Config
	dexscreenerClient client.DEXScreenerClient
	coinGeckoClient   client.CoinGeckoClient
	pricesCache       *cache.Cache // key: lowercase token address -> entity.PriceQuote
	stablecoins       map[string]struct{}
}

// NewPriceService creates a new instance of priceServiceImpl.
func NewPriceService(
	logger *zap.Logger,
	cfg *config.Config,
	dexscreenerClient client.DEXScreenerClient,
	coinGeckoClient client.CoinGeckoClient,
) PriceService {
	stablecoins := make(map[string]struct{}, len(cfg.PriceSvc.Stablecoins))
	for _, symbol := range cfg.PriceSvc.Stablecoins {
		stablecoins[strings.ToUpper(symbol)] = struct{}{}
	}

	return &priceServiceImpl{
		logger:            logger.Named("PriceService"),
		cfg:               cfg,
		dexscreenerClient: dexscreenerClient,
		coinGeckoClient:   coinGeckoClient,
		pricesCache:       cache.New(time.Duration(cfg.PriceSvc.CacheTTLSeconds)*time.Second, 10*time.Minute),
		stablecoins:       stablecoins,
	}
}

// GetPrices resolves a quote for every requested token. The returned map is
// keyed by lowercase token address and always contains one entry per input.
func (s *priceServiceImpl) GetPrices(ctx context.Context, tokens []entity.TokenInfo) map[string]entity.PriceQuote {
	quotes := make(map[string]entity.PriceQuote, len(tokens))
	var unresolved []entity.TokenInfo

	for _, token := range tokens {
		addrLower := strings.ToLower(token.Address)

		if _, isStable := s.stablecoins[strings.ToUpper(token.Symbol)]; isStable {
			quotes[addrLower] = entity.PriceQuote{USD: 1.00, Change24h: 0, Source: PriceSourceStable}
			continue
		}
		if cached, found := s.pricesCache.Get(addrLower); found {
			if quote, ok := cached.(entity.PriceQuote); ok {
				quotes[addrLower] = quote
				continue
			}
		}
		unresolved = append(unresolved, token)
	}

	if len(unresolved) > 0 {
		unresolved = s.resolveFromDEXScreener(ctx, unresolved, quotes)
	}
	if len(unresolved) > 0 {
		unresolved = s.resolveFromCoinGecko(ctx, unresolved, quotes)
	}

	for _, token := range unresolved {
		addrLower := strings.ToLower(token.Address)
		s.logger.Warn("All price sources missed token, returning zero quote",
			zap.String("tokenSymbol", token.Symbol),
			zap.String("tokenAddress", token.Address))
		quotes[addrLower] = entity.PriceQuote{USD: 0, Change24h: 0, Source: PriceSourceNone}
	}

	for _, quote := range quotes {
		metrics.PriceResolutionsTotal.WithLabelValues(quote.Source).Inc()
	}
	return quotes
}

// resolveFromDEXScreener fills quotes from DEX Screener pair data and returns
// the tokens that remain unresolved.
func (s *priceServiceImpl) resolveFromDEXScreener(ctx context.Context, tokens []entity.TokenInfo, quotes map[string]entity.PriceQuote) []entity.TokenInfo {
	addresses := make([]string, 0, len(tokens))
	for _, token := range tokens {
		addresses = append(addresses, token.Address)
	}

	var (
		mu       sync.Mutex
		allPairs []entity.PairData
	)
	g, gCtx := errgroup.WithContext(ctx)
	for _, batch := range utils.BatchStrings(addresses, s.cfg.PriceSvc.MaxTokensPerBatchRequest) {
		currentBatch := batch
		g.Go(func() error {
			pairs, err := s.dexscreenerClient.GetTokenPairsByAddresses(gCtx, s.cfg.DEXScreener.ChainID, currentBatch)
			if err != nil {
				s.logger.Warn("DEXScreener batch failed, falling through to next price source",
					zap.Strings("tokenAddresses", currentBatch),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			allPairs = append(allPairs, pairs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	pairsByBase := make(map[string][]entity.PairData)
	pairsByQuote := make(map[string][]entity.PairData)
	for _, pair := range allPairs {
		pairsByBase[strings.ToLower(pair.BaseToken.Address)] = append(pairsByBase[strings.ToLower(pair.BaseToken.Address)], pair)
		pairsByQuote[strings.ToLower(pair.QuoteToken.Address)] = append(pairsByQuote[strings.ToLower(pair.QuoteToken.Address)], pair)
	}

	var unresolved []entity.TokenInfo
	for _, token := range tokens {
		addrLower := strings.ToLower(token.Address)

		quote, ok := selectQuoteFromPairs(pairsByBase[addrLower], pairsByQuote[addrLower])
		if !ok {
			unresolved = append(unresolved, token)
			continue
		}
		quote.Source = PriceSourceDEXScreener
		quotes[addrLower] = quote
		s.pricesCache.Set(addrLower, quote, cache.DefaultExpiration)
	}
	return unresolved
}

// selectQuoteFromPairs picks the most liquid usable pair for a token.
// Base-side pairs are preferred; when the token only appears as the quote leg
// the base price is divided through the native rate and the 24h change flips
// sign, since the pair moves inversely to its quote token.
func selectQuoteFromPairs(basePairs, quotePairs []entity.PairData) (entity.PriceQuote, bool) {
	byLiquidityDesc := func(pairs []entity.PairData) []entity.PairData {
		sorted := make([]entity.PairData, len(pairs))
		copy(sorted, pairs)
		sort.SliceStable(sorted, func(i, j int) bool {
			return liquidityUSD(sorted[i]) > liquidityUSD(sorted[j])
		})
		return sorted
	}

	for _, pair := range byLiquidityDesc(basePairs) {
		priceUSD, err := strconv.ParseFloat(pair.PriceUsd, 64)
		if err != nil || priceUSD <= 0 {
			continue
		}
		return entity.PriceQuote{USD: priceUSD, Change24h: pair.PriceChange.H24}, true
	}

	for _, pair := range byLiquidityDesc(quotePairs) {
		basePriceUSD, err := strconv.ParseFloat(pair.PriceUsd, 64)
		if err != nil {
			continue
		}
		priceNative, err := strconv.ParseFloat(pair.PriceNative, 64)
		if err != nil {
			continue
		}
		if basePriceUSD <= 0 || priceNative <= 0 {
			continue
		}
		return entity.PriceQuote{USD: basePriceUSD / priceNative, Change24h: -pair.PriceChange.H24}, true
	}

	return entity.PriceQuote{}, false
}

func liquidityUSD(pair entity.PairData) float64 {
	if pair.Liquidity == nil {
		return 0
	}
	return pair.Liquidity.Usd
}

// resolveFromCoinGecko fills quotes for tokens that have a configured
// CoinGecko id and returns the tokens that remain unresolved.
func (s *priceServiceImpl) resolveFromCoinGecko(ctx context.Context, tokens []entity.TokenInfo, quotes map[string]entity.PriceQuote) []entity.TokenInfo {
	coinIDs := make([]string, 0, len(tokens))
	tokensByCoinID := make(map[string][]entity.TokenInfo)
	var unresolved []entity.TokenInfo

	for _, token := range tokens {
		coinID, ok := s.cfg.CoinGecko.CoinIDs[strings.ToUpper(token.Symbol)]
		if !ok {
			unresolved = append(unresolved, token)
			continue
		}
		if _, seen := tokensByCoinID[coinID]; !seen {
			coinIDs = append(coinIDs, coinID)
		}
		tokensByCoinID[coinID] = append(tokensByCoinID[coinID], token)
	}

	if len(coinIDs) == 0 {
		return unresolved
	}

	prices, err := s.coinGeckoClient.GetSimplePrices(ctx, coinIDs)
	if err != nil {
		s.logger.Warn("CoinGecko fallback failed", zap.Strings("coinIDs", coinIDs), zap.Error(err))
		for _, grouped := range tokensByCoinID {
			unresolved = append(unresolved, grouped...)
		}
		return unresolved
	}

	for coinID, grouped := range tokensByCoinID {
		price, found := prices[coinID]
		if !found || price.USD <= 0 {
			unresolved = append(unresolved, grouped...)
			continue
		}
		quote := entity.PriceQuote{USD: price.USD, Change24h: price.USD24hChange, Source: PriceSourceCoinGecko}
		for _, token := range grouped {
			addrLower := strings.ToLower(token.Address)
			quotes[addrLower] = quote
			s.pricesCache.Set(addrLower, quote, cache.DefaultExpiration)
		}
	}
	return unresolved
}
