package service

import (
	"context"
	"errors"
	"testing"

	"orbid_backend/internal/client"
	"orbid_backend/internal/config"
	"orbid_backend/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWorldAppClient struct {
	payload  *client.NotificationPayload
	response *client.NotificationResponse
	err      error
}

func (f *fakeWorldAppClient) SendNotification(_ context.Context, payload client.NotificationPayload) (*client.NotificationResponse, error) {
	f.payload = &payload
	if f.err != nil {
		return nil, f.err
	}
	if f.response != nil {
		return f.response, nil
	}
	return &client.NotificationResponse{Success: true}, nil
}

func (f *fakeWorldAppClient) GetUserGrantCycle(_ context.Context, _ string, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func notificationTestConfig() *config.Config {
	return &config.Config{
		WorldApp:      config.WorldAppConfig{AppID: "app_test123"},
		Notifications: config.NotificationServiceConfig{MaxAddressesPerRequest: 3},
	}
}

func TestSendTypedRendersAllLanguages(t *testing.T) {
	worldApp := &fakeWorldAppClient{}
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), worldApp)

	_, err := svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Type:            entity.NotificationTxReceived,
		Amount:          "1.5",
		Token:           "WLD",
	})
	require.NoError(t, err)

	require.NotNil(t, worldApp.payload)
	assert.Equal(t, "app_test123", worldApp.payload.AppID)
	require.Len(t, worldApp.payload.Localisations, 10)

	assert.Equal(t, "en", worldApp.payload.Localisations[0].Language, "English leads the set")
	assert.Equal(t, "Payment Received", worldApp.payload.Localisations[0].Title)
	assert.Equal(t, "You received 1.5 WLD", worldApp.payload.Localisations[0].Message)

	for _, localisation := range worldApp.payload.Localisations {
		assert.NotContains(t, localisation.Message, "${amount}")
		assert.NotContains(t, localisation.Message, "${token}")
	}
}

func TestSendTypedRejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), &fakeWorldAppClient{})

	_, err := svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Type:            "tx_teleported",
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSendTypedValidatesAddresses(t *testing.T) {
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), &fakeWorldAppClient{})

	_, err := svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		Type: entity.NotificationTxSent,
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		WalletAddresses: []string{"0x1", "0x2", "0x3", "0x4"},
		Type:            entity.NotificationTxSent,
	})
	assert.ErrorAs(t, err, &validationErr)
	assert.ErrorContains(t, err, "maximum 3 addresses")
}

func TestSendBroadcastRequiresEnglish(t *testing.T) {
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), &fakeWorldAppClient{})

	_, err := svc.SendBroadcast(context.Background(), entity.AdminNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Localisations: []entity.Localisation{
			{Language: "es", Title: "Hola", Message: "Mensaje"},
		},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorContains(t, err, "English localisation is required")
}

func TestSendBroadcastDeepLink(t *testing.T) {
	worldApp := &fakeWorldAppClient{}
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), worldApp)

	_, err := svc.SendBroadcast(context.Background(), entity.AdminNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Localisations:   []entity.Localisation{{Language: "en", Title: "Hi", Message: "There"}},
		MiniAppPath:     "/rewards?tab=claim",
	})
	require.NoError(t, err)

	require.NotNil(t, worldApp.payload)
	assert.Equal(t, "worldapp://mini-app?app_id=app_test123&path=%2Frewards%3Ftab%3Dclaim", worldApp.payload.MiniAppPath)
}

func TestSendBroadcastRootPathOmitsPathParam(t *testing.T) {
	worldApp := &fakeWorldAppClient{}
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), worldApp)

	_, err := svc.SendBroadcast(context.Background(), entity.AdminNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Localisations:   []entity.Localisation{{Language: "en", Title: "Hi", Message: "There"}},
	})
	require.NoError(t, err)

	require.NotNil(t, worldApp.payload)
	assert.Equal(t, "worldapp://mini-app?app_id=app_test123", worldApp.payload.MiniAppPath)
}

func TestDispatchRequiresConfiguredAppID(t *testing.T) {
	cfg := notificationTestConfig()
	cfg.WorldApp.AppID = ""
	svc := NewNotificationService(zap.NewNop(), cfg, &fakeWorldAppClient{})

	_, err := svc.SendBroadcast(context.Background(), entity.AdminNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Localisations:   []entity.Localisation{{Language: "en", Title: "Hi", Message: "There"}},
	})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr), "missing app id is a server fault, not a client one")
}

func TestDispatchPropagatesClientErrors(t *testing.T) {
	worldApp := &fakeWorldAppClient{err: errors.New("minikit rejected the batch")}
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), worldApp)

	_, err := svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Type:            entity.NotificationTxSent,
		Amount:          "1",
		Token:           "WLD",
	})
	assert.ErrorContains(t, err, "minikit rejected the batch")
}

func TestDispatchKeepsUpstreamStatus(t *testing.T) {
	worldApp := &fakeWorldAppClient{err: &client.UpstreamError{Status: 429, Body: "rate limited"}}
	svc := NewNotificationService(zap.NewNop(), notificationTestConfig(), worldApp)

	_, err := svc.SendTyped(context.Background(), entity.TypedNotificationRequest{
		WalletAddresses: []string{"0xabc"},
		Type:            entity.NotificationTxSent,
		Amount:          "1",
		Token:           "WLD",
	})
	require.Error(t, err)

	var upstream *client.UpstreamError
	require.ErrorAs(t, err, &upstream, "upstream status must survive the service layer")
	assert.Equal(t, 429, upstream.Status)
}
