package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const marketDataCacheTTL = time.Minute

// MarketService serves detailed market data for a single token: spot metrics
// plus a price history series. Tokens with a configured CoinGecko id use
// CoinGecko; everything else falls back to GeckoTerminal pool data.
type MarketService interface {
	GetMarketData(ctx context.Context, token entity.TokenInfo, period entity.ChartPeriod) (*entity.TokenMarketData, error)
}

// marketServiceImpl is the implementation of MarketService.
type marketServiceImpl struct {
	logger              *zap.Logger
	cfg                 *config.Config
	coinGeckoClient     client.CoinGeckoClient
	geckoTerminalClient client.GeckoTerminalClient
	marketCache         *cache.Cache // key: "symbol_period" -> *entity.TokenMarketData
}

// NewMarketService creates a new instance of marketServiceImpl.
func NewMarketService(
	logger *zap.Logger,
	cfg *config.Config,
	coinGeckoClient client.CoinGeckoClient,
	geckoTerminalClient client.GeckoTerminalClient,
) MarketService {
	return &marketServiceImpl{
		logger:              logger.Named("MarketService"),
		cfg:                 cfg,
		coinGeckoClient:     coinGeckoClient,
		geckoTerminalClient: geckoTerminalClient,
		marketCache:         cache.New(marketDataCacheTTL, 10*time.Minute),
	}
}

// GetMarketData returns spot metrics and a history series for a token.
func (s *marketServiceImpl) GetMarketData(ctx context.Context, token entity.TokenInfo, period entity.ChartPeriod) (*entity.TokenMarketData, error) {
	cacheKey := fmt.Sprintf("%s_%s", strings.ToUpper(token.Symbol), period)
	if cached, found := s.marketCache.Get(cacheKey); found {
		if data, ok := cached.(*entity.TokenMarketData); ok {
			return data, nil
		}
	}

	var (
		data *entity.TokenMarketData
		err  error
	)
	if coinID, listed := s.cfg.CoinGecko.CoinIDs[strings.ToUpper(token.Symbol)]; listed {
		data, err = s.fromCoinGecko(ctx, coinID, period)
	} else {
		data, err = s.fromGeckoTerminal(ctx, token, period)
	}
	if err != nil {
		return nil, err
	}

	s.marketCache.Set(cacheKey, data, cache.DefaultExpiration)
	return data, nil
}

// fromCoinGecko fetches coin metrics and the market chart concurrently.
func (s *marketServiceImpl) fromCoinGecko(ctx context.Context, coinID string, period entity.ChartPeriod) (*entity.TokenMarketData, error) {
	var (
		market *entity.CoinMarketResponse
		chart  *entity.CoinMarketChartResponse
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := s.coinGeckoClient.GetCoinMarket(gCtx, coinID)
		if err != nil {
			return err
		}
		market = result
		return nil
	})
	g.Go(func() error {
		result, err := s.coinGeckoClient.GetMarketChart(gCtx, coinID, period.Days())
		if err != nil {
			return err
		}
		chart = result
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to fetch CoinGecko market data", zap.String("coinID", coinID), zap.Error(err))
		return nil, err
	}

	volumesByTimestamp := make(map[int64]float64, len(chart.TotalVolumes))
	for _, point := range chart.TotalVolumes {
		volumesByTimestamp[int64(point[0])] = point[1]
	}

	history := make([]entity.PricePoint, 0, len(chart.Prices))
	for _, point := range chart.Prices {
		timestamp := int64(point[0])
		history = append(history, entity.PricePoint{
			Timestamp: timestamp,
			Price:     point[1],
			Volume:    volumesByTimestamp[timestamp],
		})
	}

	md := market.MarketData
	return &entity.TokenMarketData{
		Price:        md.CurrentPrice["usd"],
		Change24h:    md.PriceChange24h,
		Change7d:     md.PriceChange7d,
		Volume24h:    md.TotalVolume["usd"],
		MarketCap:    md.MarketCap["usd"],
		FDV:          md.FullyDilutedValuation["usd"],
		High24h:      md.High24h["usd"],
		Low24h:       md.Low24h["usd"],
		PriceHistory: history,
	}, nil
}

// fromGeckoTerminal derives market data from the token's most liquid pool.
func (s *marketServiceImpl) fromGeckoTerminal(ctx context.Context, token entity.TokenInfo, period entity.ChartPeriod) (*entity.TokenMarketData, error) {
	network := s.cfg.GeckoTerminal.Network

	pools, err := s.geckoTerminalClient.GetTopPools(ctx, network, token.Address)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("no pools found for token %s", token.Symbol)
	}
	topPool := pools[0]

	timeframe, aggregate, limit := ohlcvWindow(period)
	ohlcv, err := s.geckoTerminalClient.GetPoolOHLCV(ctx, network, topPool.Attributes.Address, timeframe, aggregate, limit)
	if err != nil {
		s.logger.Warn("Failed to fetch OHLCV, serving spot data without history",
			zap.String("tokenSymbol", token.Symbol),
			zap.String("poolAddress", topPool.Attributes.Address),
			zap.Error(err))
	}

	history := []entity.PricePoint{}
	high24h, low24h := 0.0, 0.0
	if ohlcv != nil {
		candles := ohlcv.Data.Attributes.OHLCVList
		dayAgo := time.Now().Add(-24 * time.Hour).Unix()
		// Candles arrive newest first; the series reads oldest first.
		for i := len(candles) - 1; i >= 0; i-- {
			candle := candles[i]
			history = append(history, entity.PricePoint{
				Timestamp: int64(candle[0]) * 1000,
				Price:     candle[4],
				Volume:    candle[5],
			})
			if int64(candle[0]) >= dayAgo {
				if candle[2] > high24h {
					high24h = candle[2]
				}
				if low24h == 0 || candle[3] < low24h {
					low24h = candle[3]
				}
			}
		}
	}

	attrs := topPool.Attributes
	return &entity.TokenMarketData{
		Price:        parseWireFloat(attrs.BaseTokenPriceUSD),
		Change24h:    parseWireFloat(attrs.PriceChangePercentage["h24"]),
		Volume24h:    parseWireFloat(attrs.VolumeUSD["h24"]),
		High24h:      high24h,
		Low24h:       low24h,
		PriceHistory: history,
	}, nil
}

// ohlcvWindow maps a chart period onto GeckoTerminal candle parameters.
func ohlcvWindow(period entity.ChartPeriod) (timeframe string, aggregate string, limit int) {
	switch period {
	case entity.Period1D:
		return "hour", "1", 24
	case entity.Period7D:
		return "hour", "4", 42
	case entity.Period365D:
		return "day", "1", 365
	case entity.PeriodMax:
		return "day", "1", 1000
	default:
		return "day", "1", 30
	}
}

func parseWireFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
