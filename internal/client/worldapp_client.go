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

// NotificationPayload is the request body for the minikit send-notification endpoint.
type NotificationPayload struct {
	AppID           string                `json:"app_id"`
	WalletAddresses []string              `json:"wallet_addresses"`
	Localisations   []entity.Localisation `json:"localisations"`
	MiniAppPath     string                `json:"mini_app_path"`
}

// NotificationDeliveryResult is one wallet's delivery outcome from the minikit API.
type NotificationDeliveryResult struct {
	WalletAddress string `json:"walletAddress"`
	Sent          bool   `json:"sent"`
	Reason        string `json:"reason,omitempty"`
}

// NotificationResponse is the minikit send-notification response body.
type NotificationResponse struct {
	Success bool                         `json:"success"`
	Result  []NotificationDeliveryResult `json:"result"`
}

// WorldAppClient defines the interface for interacting with the Worldcoin
// developer API: push notification dispatch and grant cycle lookups.
type WorldAppClient interface {
	SendNotification(ctx context.Context, payload NotificationPayload) (*NotificationResponse, error)
	GetUserGrantCycle(ctx context.Context, walletAddress string, appID string) ([]byte, error)
}

// worldAppClientImpl is the implementation of WorldAppClient.
type worldAppClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewWorldAppClient creates a new instance of worldAppClientImpl.
func NewWorldAppClient(baseURL string, apiKey string, timeout time.Duration, logger *zap.Logger) WorldAppClient {
	return &worldAppClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("WorldAppClient"),
	}
}

// SendNotification pushes localized notifications to up to 1000 wallets.
func (c *worldAppClientImpl) SendNotification(ctx context.Context, payload NotificationPayload) (*NotificationResponse, error) {
	requestURL := c.baseURL + "/api/v2/minikit/send-notification"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	c.logger.Debug("Sending notification batch to World App",
		zap.Int("walletCount", len(payload.WalletAddresses)),
		zap.Int("localisationCount", len(payload.Localisations)))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.do(ctx, req, resp, requestURL); err != nil {
		return nil, err
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("World App send-notification request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, &UpstreamError{Status: resp.StatusCode(), Body: string(rawBody)}
	}

	var notifResp NotificationResponse
	if err := json.Unmarshal(rawBody, &notifResp); err != nil {
		c.logger.Error("Failed to unmarshal World App notification response",
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal World App notification response: %w", err)
	}
	return &notifResp, nil
}

// GetUserGrantCycle fetches a wallet's grant cycle state. The response is
// returned verbatim; the handler proxies it to the caller unchanged.
func (c *worldAppClientImpl) GetUserGrantCycle(ctx context.Context, walletAddress string, appID string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/api/v2/minikit/user-grant-cycle?wallet_address=%s&app_id=%s",
		c.baseURL, url.QueryEscape(walletAddress), url.QueryEscape(appID))

	c.logger.Debug("Requesting grant cycle from World App", zap.String("walletAddress", walletAddress))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.do(ctx, req, resp, requestURL); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("World App grant cycle request failed",
			zap.String("walletAddress", walletAddress),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, &UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func (c *worldAppClientImpl) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, requestURL string) error {
	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to World App", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
		return nil
	}
	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to World App (with default timeout)", zap.String("url", requestURL), zap.Error(err))
		return fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
	}
	return nil
}
