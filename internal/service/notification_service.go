package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"
	"orbid_backend/pkg/metrics"

	"go.uber.org/zap"
)

// ValidationError marks a request rejected before dispatch; handlers map it
// to a 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// notificationTemplate is one language's title/message pair, with ${amount}
// and ${token} placeholders in the message.
type notificationTemplate struct {
	title   string
	message string
}

// notificationCatalog holds the transactional templates for every supported
// language. English leads each set; the minikit API requires it.
var notificationCatalog = map[string]map[string]notificationTemplate{
	entity.NotificationTxReceived: {
		"en": {"Payment Received", "You received ${amount} ${token}"},
		"es": {"Pago Recibido", "Recibiste ${amount} ${token}"},
		"zh": {"收到付款", "您收到了 ${amount} ${token}"},
		"hi": {"भुगतान प्राप्त", "आपको ${amount} ${token} प्राप्त हुआ"},
		"pt": {"Pagamento Recebido", "Você recebeu ${amount} ${token}"},
		"fr": {"Paiement Reçu", "Vous avez reçu ${amount} ${token}"},
		"de": {"Zahlung Erhalten", "Sie haben ${amount} ${token} erhalten"},
		"ja": {"支払い受取", "${amount} ${token} を受け取りました"},
		"ko": {"결제 수신", "${amount} ${token}을(를) 받았습니다"},
		"ar": {"تم استلام الدفع", "لقد استلمت ${amount} ${token}"},
	},
	entity.NotificationTxSent: {
		"en": {"Transaction Sent", "You sent ${amount} ${token}"},
		"es": {"Transacción Enviada", "Enviaste ${amount} ${token}"},
		"zh": {"交易已发送", "您已发送 ${amount} ${token}"},
		"hi": {"लेनदेन भेजा गया", "आपने ${amount} ${token} भेजा"},
		"pt": {"Transação Enviada", "Você enviou ${amount} ${token}"},
		"fr": {"Transaction Envoyée", "Vous avez envoyé ${amount} ${token}"},
		"de": {"Transaktion Gesendet", "Sie haben ${amount} ${token} gesendet"},
		"ja": {"取引送信", "${amount} ${token} を送信しました"},
		"ko": {"거래 전송됨", "${amount} ${token}을(를) 보냈습니다"},
		"ar": {"تم إرسال المعاملة", "لقد أرسلت ${amount} ${token}"},
	},
}

// supportedLanguages fixes the emission order of generated localisations.
var supportedLanguages = []string{"en", "es", "zh", "hi", "pt", "fr", "de", "ja", "ko", "ar"}

// NotificationService dispatches push notifications through the World App
// minikit API: typed transactional pushes rendered from the template catalog,
// and free-form admin broadcasts.
type NotificationService interface {
	SendTyped(ctx context.Context, req entity.TypedNotificationRequest) (*client.NotificationResponse, error)
	SendBroadcast(ctx context.Context, req entity.AdminNotificationRequest) (*client.NotificationResponse, error)
}

// notificationServiceImpl is the implementation of NotificationService.
type notificationServiceImpl struct {
	logger         *zap.Logger
	cfg            *config.Config
	worldAppClient client.WorldAppClient
}

// NewNotificationService creates a new instance of notificationServiceImpl.
func NewNotificationService(logger *zap.Logger, cfg *config.Config, worldAppClient client.WorldAppClient) NotificationService {
	return &notificationServiceImpl{
		logger:         logger.Named("NotificationService"),
		cfg:            cfg,
		worldAppClient: worldAppClient,
	}
}

// SendTyped renders the template catalog for a transactional notification
// and dispatches it in every supported language.
func (s *notificationServiceImpl) SendTyped(ctx context.Context, req entity.TypedNotificationRequest) (*client.NotificationResponse, error) {
	if err := s.validateAddresses(req.WalletAddresses); err != nil {
		return nil, err
	}
	templates, known := notificationCatalog[req.Type]
	if !known {
		return nil, newValidationError("invalid notification type %q", req.Type)
	}

	localisations := make([]entity.Localisation, 0, len(supportedLanguages))
	for _, language := range supportedLanguages {
		template := templates[language]
		message := strings.ReplaceAll(template.message, "${amount}", req.Amount)
		message = strings.ReplaceAll(message, "${token}", req.Token)
		localisations = append(localisations, entity.Localisation{
			Language: language,
			Title:    template.title,
			Message:  message,
		})
	}

	return s.dispatch(ctx, req.WalletAddresses, localisations, req.MiniAppPath)
}

// SendBroadcast dispatches a free-form admin notification. The caller
// supplies the localisations; English is mandatory.
func (s *notificationServiceImpl) SendBroadcast(ctx context.Context, req entity.AdminNotificationRequest) (*client.NotificationResponse, error) {
	if err := s.validateAddresses(req.WalletAddresses); err != nil {
		return nil, err
	}
	if len(req.Localisations) == 0 {
		return nil, newValidationError("at least one localisation required")
	}
	hasEnglish := false
	for _, localisation := range req.Localisations {
		if localisation.Language == "en" {
			hasEnglish = true
			break
		}
	}
	if !hasEnglish {
		return nil, newValidationError("English localisation is required")
	}

	return s.dispatch(ctx, req.WalletAddresses, req.Localisations, req.MiniAppPath)
}

func (s *notificationServiceImpl) validateAddresses(walletAddresses []string) error {
	if len(walletAddresses) == 0 {
		return newValidationError("walletAddresses required")
	}
	if max := s.cfg.Notifications.MaxAddressesPerRequest; len(walletAddresses) > max {
		return newValidationError("maximum %d addresses per request", max)
	}
	return nil
}

func (s *notificationServiceImpl) dispatch(ctx context.Context, walletAddresses []string, localisations []entity.Localisation, miniAppPath string) (*client.NotificationResponse, error) {
	appID := s.cfg.WorldApp.AppID
	if appID == "" {
		return nil, fmt.Errorf("WorldApp.AppID not configured")
	}
	if miniAppPath == "" {
		miniAppPath = "/"
	}

	deepLink := fmt.Sprintf("worldapp://mini-app?app_id=%s", appID)
	if miniAppPath != "/" {
		deepLink += "&path=" + url.QueryEscape(miniAppPath)
	}

	response, err := s.worldAppClient.SendNotification(ctx, client.NotificationPayload{
		AppID:           appID,
		WalletAddresses: walletAddresses,
		Localisations:   localisations,
		MiniAppPath:     deepLink,
	})
	if err != nil {
		return nil, err
	}

	sent := 0
	for _, result := range response.Result {
		if result.Sent {
			sent++
			metrics.NotificationsSentTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.NotificationsSentTotal.WithLabelValues("failed").Inc()
		}
	}
	s.logger.Info("Dispatched notification batch",
		zap.Int("walletCount", len(walletAddresses)),
		zap.Int("sentCount", sent))
	return response, nil
}
