package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// emailParty names one sender or recipient of a transactional email.
type emailParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// smtpEmailPayload is the request body for the Brevo /v3/smtp/email endpoint.
type smtpEmailPayload struct {
	Sender      emailParty   `json:"sender"`
	To          []emailParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
}

// BrevoClient sends transactional emails for support ticket lifecycle events.
type BrevoClient interface {
	SendEmail(ctx context.Context, toEmail string, subject string, htmlContent string) error
}

// brevoClientImpl is the implementation of BrevoClient.
type brevoClientImpl struct {
	client      *fasthttp.Client
	baseURL     string
	apiKey      string
	senderName  string
	senderEmail string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewBrevoClient creates a new instance of brevoClientImpl.
func NewBrevoClient(baseURL string, apiKey string, senderName string, senderEmail string, timeout time.Duration, logger *zap.Logger) BrevoClient {
	return &brevoClientImpl{
		client:      &fasthttp.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		senderName:  senderName,
		senderEmail: senderEmail,
		timeout:     timeout,
		logger:      logger.Named("BrevoClient"),
	}
}

// SendEmail delivers one HTML email through the Brevo SMTP API.
func (c *brevoClientImpl) SendEmail(ctx context.Context, toEmail string, subject string, htmlContent string) error {
	if c.apiKey == "" || c.senderEmail == "" {
		c.logger.Debug("Brevo not configured, skipping email", zap.String("subject", subject))
		return nil
	}

	requestURL := c.baseURL + "/v3/smtp/email"

	body, err := json.Marshal(smtpEmailPayload{
		Sender:      emailParty{Name: c.senderName, Email: c.senderEmail},
		To:          []emailParty{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("Failed to execute request to Brevo", zap.String("url", requestURL), zap.Error(err))
		return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	if resp.StatusCode() >= 300 {
		c.logger.Error("Brevo API request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return fmt.Errorf("Brevo API request failed with status %d", resp.StatusCode())
	}

	c.logger.Debug("Email sent", zap.String("subject", subject))
	return nil
}
