package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMarketCoinGecko struct {
	market    *entity.CoinMarketResponse
	chart     *entity.CoinMarketChartResponse
	chartDays string
	err       error
}

func (f *fakeMarketCoinGecko) GetSimplePrices(_ context.Context, _ []string) (map[string]client.SimplePrice, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMarketCoinGecko) GetCoinMarket(_ context.Context, _ string) (*entity.CoinMarketResponse, error) {
	return f.market, f.err
}

func (f *fakeMarketCoinGecko) GetMarketChart(_ context.Context, _ string, days string) (*entity.CoinMarketChartResponse, error) {
	f.chartDays = days
	return f.chart, f.err
}

type fakeGeckoTerminal struct {
	pools    []entity.GTPool
	poolsErr error
	ohlcv    *entity.GTOHLCVResponse
	ohlcvErr error
}

func (f *fakeGeckoTerminal) GetTopPools(_ context.Context, _ string, _ string) ([]entity.GTPool, error) {
	return f.pools, f.poolsErr
}

func (f *fakeGeckoTerminal) GetPoolOHLCV(_ context.Context, _ string, _ string, _ string, _ string, _ int) (*entity.GTOHLCVResponse, error) {
	return f.ohlcv, f.ohlcvErr
}

func marketTestConfig() *config.Config {
	return &config.Config{
		CoinGecko: config.CoinGeckoConfig{
			CoinIDs: map[string]string{"WLD": "worldcoin-wld"},
		},
		GeckoTerminal: config.GeckoTerminalConfig{Network: "world-chain"},
	}
}

func coinMarketFixture() *entity.CoinMarketResponse {
	market := &entity.CoinMarketResponse{}
	market.MarketData.CurrentPrice = map[string]float64{"usd": 1.42}
	market.MarketData.PriceChange24h = 2.1
	market.MarketData.PriceChange7d = -5.3
	market.MarketData.TotalVolume = map[string]float64{"usd": 9_000_000}
	market.MarketData.MarketCap = map[string]float64{"usd": 2_000_000_000}
	market.MarketData.FullyDilutedValuation = map[string]float64{"usd": 14_000_000_000}
	market.MarketData.High24h = map[string]float64{"usd": 1.5}
	market.MarketData.Low24h = map[string]float64{"usd": 1.3}
	return market
}

func TestGetMarketDataFromCoinGecko(t *testing.T) {
	gecko := &fakeMarketCoinGecko{
		market: coinMarketFixture(),
		chart: &entity.CoinMarketChartResponse{
			Prices:       [][2]float64{{1_700_000_000_000, 1.40}, {1_700_000_060_000, 1.42}},
			TotalVolumes: [][2]float64{{1_700_000_000_000, 100}, {1_700_000_060_000, 200}},
		},
	}
	svc := NewMarketService(zap.NewNop(), marketTestConfig(), gecko, &fakeGeckoTerminal{})

	data, err := svc.GetMarketData(context.Background(), wldToken, entity.Period7D)
	require.NoError(t, err)

	assert.Equal(t, "7", gecko.chartDays)
	assert.Equal(t, 1.42, data.Price)
	assert.Equal(t, 2.1, data.Change24h)
	assert.Equal(t, -5.3, data.Change7d)
	assert.Equal(t, 9_000_000.0, data.Volume24h)
	assert.Equal(t, 2_000_000_000.0, data.MarketCap)
	assert.Equal(t, 1.5, data.High24h)

	require.Len(t, data.PriceHistory, 2)
	assert.Equal(t, int64(1_700_000_000_000), data.PriceHistory[0].Timestamp)
	assert.Equal(t, 1.40, data.PriceHistory[0].Price)
	assert.Equal(t, 100.0, data.PriceHistory[0].Volume, "volumes join on timestamp")
}

func TestGetMarketDataUnlistedTokenUsesGeckoTerminal(t *testing.T) {
	now := float64(time.Now().Unix())
	pool := entity.GTPool{ID: "world-chain_0xpool"}
	pool.Attributes.Address = "0xpool"
	pool.Attributes.BaseTokenPriceUSD = "0.85"
	pool.Attributes.VolumeUSD = map[string]string{"h24": "12345.6"}
	pool.Attributes.PriceChangePercentage = map[string]string{"h24": "-2.5"}

	ohlcv := &entity.GTOHLCVResponse{}
	ohlcv.Data.Attributes.OHLCVList = [][6]float64{
		// Newest first on the wire.
		{now, 0.84, 0.90, 0.80, 0.85, 500},
		{now - 3600, 0.80, 0.86, 0.78, 0.84, 400},
	}

	terminal := &fakeGeckoTerminal{pools: []entity.GTPool{pool}, ohlcv: ohlcv}
	svc := NewMarketService(zap.NewNop(), marketTestConfig(), &fakeMarketCoinGecko{err: errors.New("must not be called")}, terminal)

	data, err := svc.GetMarketData(context.Background(), wbtcToken, entity.Period1D)
	require.NoError(t, err)

	assert.Equal(t, 0.85, data.Price)
	assert.Equal(t, -2.5, data.Change24h)
	assert.Equal(t, 12345.6, data.Volume24h)
	assert.Equal(t, 0.90, data.High24h)
	assert.Equal(t, 0.78, data.Low24h)

	require.Len(t, data.PriceHistory, 2)
	assert.Less(t, data.PriceHistory[0].Timestamp, data.PriceHistory[1].Timestamp, "series reads oldest first")
	assert.Equal(t, 0.84, data.PriceHistory[0].Price, "close price is the sample")
}

func TestGetMarketDataSpotOnlyWhenOHLCVFails(t *testing.T) {
	pool := entity.GTPool{}
	pool.Attributes.Address = "0xpool"
	pool.Attributes.BaseTokenPriceUSD = "0.85"
	pool.Attributes.VolumeUSD = map[string]string{"h24": "100"}
	pool.Attributes.PriceChangePercentage = map[string]string{"h24": "1.0"}

	terminal := &fakeGeckoTerminal{pools: []entity.GTPool{pool}, ohlcvErr: errors.New("rate limited")}
	svc := NewMarketService(zap.NewNop(), marketTestConfig(), &fakeMarketCoinGecko{}, terminal)

	data, err := svc.GetMarketData(context.Background(), wbtcToken, entity.Period30D)
	require.NoError(t, err)

	assert.Equal(t, 0.85, data.Price)
	assert.Empty(t, data.PriceHistory)
	assert.Zero(t, data.High24h)
}

func TestGetMarketDataNoPools(t *testing.T) {
	svc := NewMarketService(zap.NewNop(), marketTestConfig(), &fakeMarketCoinGecko{}, &fakeGeckoTerminal{})

	_, err := svc.GetMarketData(context.Background(), wbtcToken, entity.Period30D)
	assert.ErrorContains(t, err, "no pools found")
}

func TestOHLCVWindow(t *testing.T) {
	tests := []struct {
		period    entity.ChartPeriod
		timeframe string
		aggregate string
		limit     int
	}{
		{entity.Period1D, "hour", "1", 24},
		{entity.Period7D, "hour", "4", 42},
		{entity.Period365D, "day", "1", 365},
		{entity.PeriodMax, "day", "1", 1000},
		{entity.Period30D, "day", "1", 30},
		{entity.ChartPeriod("garbage"), "day", "1", 30},
	}
	for _, tt := range tests {
		timeframe, aggregate, limit := ohlcvWindow(tt.period)
		assert.Equal(t, tt.timeframe, timeframe, "period %s", tt.period)
		assert.Equal(t, tt.aggregate, aggregate, "period %s", tt.period)
		assert.Equal(t, tt.limit, limit, "period %s", tt.period)
	}
}

func TestChartPeriodDays(t *testing.T) {
	assert.Equal(t, "1", entity.Period1D.Days())
	assert.Equal(t, "max", entity.PeriodMax.Days())
	assert.Equal(t, "30", entity.ChartPeriod("garbage").Days())
}
