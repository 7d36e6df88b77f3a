package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"orbid_backend/internal/entity"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// SimplePrice is one coin's entry from the CoinGecko /simple/price endpoint.
type SimplePrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// CoinGeckoClient defines the interface for interacting with the CoinGecko API.
type CoinGeckoClient interface {
	GetSimplePrices(ctx context.Context, coinIDs []string) (map[string]SimplePrice, error)
	GetCoinMarket(ctx context.Context, coinID string) (*entity.CoinMarketResponse, error)
	GetMarketChart(ctx context.Context, coinID string, days string) (*entity.CoinMarketChartResponse, error)
}

// coinGeckoClientImpl is the implementation of CoinGeckoClient.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL string, timeout time.Duration, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// GetSimplePrices fetches USD spot prices and 24h change for the given coin ids.
func (c *coinGeckoClientImpl) GetSimplePrices(ctx context.Context, coinIDs []string) (map[string]SimplePrice, error) {
	if len(coinIDs) == 0 {
		return map[string]SimplePrice{}, nil
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, url.QueryEscape(strings.Join(coinIDs, ",")))

	rawBody, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]SimplePrice)
	if err := json.Unmarshal(rawBody, &prices); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko simple price response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal CoinGecko response from %s: %w", requestURL, err)
	}

	c.logger.Debug("Fetched CoinGecko simple prices",
		zap.Int("requestedCount", len(coinIDs)),
		zap.Int("returnedCount", len(prices)))
	return prices, nil
}

// GetCoinMarket fetches spot market metrics for a coin.
func (c *coinGeckoClientImpl) GetCoinMarket(ctx context.Context, coinID string) (*entity.CoinMarketResponse, error) {
	requestURL := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false",
		c.baseURL, url.PathEscape(coinID))

	rawBody, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var market entity.CoinMarketResponse
	if err := json.Unmarshal(rawBody, &market); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko coin market response",
			zap.String("coinID", coinID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal CoinGecko coin data for %s: %w", coinID, err)
	}
	return &market, nil
}

// GetMarketChart fetches a USD price history series for a coin.
func (c *coinGeckoClientImpl) GetMarketChart(ctx context.Context, coinID string, days string) (*entity.CoinMarketChartResponse, error) {
	requestURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%s",
		c.baseURL, url.PathEscape(coinID), url.QueryEscape(days))

	rawBody, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var chart entity.CoinMarketChartResponse
	if err := json.Unmarshal(rawBody, &chart); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko market chart response",
			zap.String("coinID", coinID),
			zap.String("days", days),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal CoinGecko market chart for %s: %w", coinID, err)
	}
	return &chart, nil
}

func (c *coinGeckoClientImpl) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	c.logger.Debug("Requesting data from CoinGecko", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("CoinGecko API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	// Body is reused after release; copy it out.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
