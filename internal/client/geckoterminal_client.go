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

// GeckoTerminalClient defines the interface for interacting with the GeckoTerminal API.
// It serves tokens that have no CoinGecko listing, using on-chain pool data instead.
type GeckoTerminalClient interface {
	GetTopPools(ctx context.Context, network string, tokenAddress string) ([]entity.GTPool, error)
	GetPoolOHLCV(ctx context.Context, network string, poolAddress string, timeframe string, aggregate string, limit int) (*entity.GTOHLCVResponse, error)
}

// geckoTerminalClientImpl is the implementation of GeckoTerminalClient.
type geckoTerminalClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeckoTerminalClient creates a new instance of geckoTerminalClientImpl.
func NewGeckoTerminalClient(baseURL string, timeout time.Duration, logger *zap.Logger) GeckoTerminalClient {
	return &geckoTerminalClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("GeckoTerminalClient"),
	}
}

// GetTopPools lists pools for a token ordered by liquidity, most liquid first.
func (c *geckoTerminalClientImpl) GetTopPools(ctx context.Context, network string, tokenAddress string) ([]entity.GTPool, error) {
	requestURL := fmt.Sprintf("%s/networks/%s/tokens/%s/pools?page=1",
		c.baseURL, url.PathEscape(network), url.PathEscape(strings.ToLower(tokenAddress)))

	rawBody, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var poolsResp entity.GTPoolsResponse
	if err := json.Unmarshal(rawBody, &poolsResp); err != nil {
		c.logger.Error("Failed to unmarshal GeckoTerminal pools response",
			zap.String("tokenAddress", tokenAddress),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal GeckoTerminal pools for %s: %w", tokenAddress, err)
	}

	c.logger.Debug("Fetched GeckoTerminal pools",
		zap.String("tokenAddress", tokenAddress),
		zap.Int("poolCount", len(poolsResp.Data)))
	return poolsResp.Data, nil
}

// GetPoolOHLCV fetches candle data for a pool.
func (c *geckoTerminalClientImpl) GetPoolOHLCV(ctx context.Context, network string, poolAddress string, timeframe string, aggregate string, limit int) (*entity.GTOHLCVResponse, error) {
	requestURL := fmt.Sprintf("%s/networks/%s/pools/%s/ohlcv/%s?aggregate=%s&limit=%d",
		c.baseURL, url.PathEscape(network), url.PathEscape(strings.ToLower(poolAddress)),
		url.PathEscape(timeframe), url.QueryEscape(aggregate), limit)

	rawBody, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var ohlcvResp entity.GTOHLCVResponse
	if err := json.Unmarshal(rawBody, &ohlcvResp); err != nil {
		c.logger.Error("Failed to unmarshal GeckoTerminal OHLCV response",
			zap.String("poolAddress", poolAddress),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal GeckoTerminal OHLCV for %s: %w", poolAddress, err)
	}
	return &ohlcvResp, nil
}

func (c *geckoTerminalClientImpl) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	c.logger.Debug("Requesting data from GeckoTerminal", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to GeckoTerminal", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to GeckoTerminal (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("GeckoTerminal API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("GeckoTerminal API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
