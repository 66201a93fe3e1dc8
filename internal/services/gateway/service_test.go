package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/models"
	"vigilanteye-worker-go/internal/services/gateway/cooldown"
	"vigilanteye-worker-go/internal/services/twilio"
)

type sendCall struct {
	to   string
	from string
	body string
}

type fakeSender struct {
	calls []sendCall
	sid   string
	err   error
}

func (f *fakeSender) Send(_ context.Context, to, from, body string) (string, error) {
	f.calls = append(f.calls, sendCall{to: to, from: from, body: body})
	if f.err != nil {
		return "", f.err
	}
	return f.sid, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TwilioAccountSID:  "AC00000000000000000000000000000000",
		TwilioAuthToken:   "token",
		TwilioPhoneNumber: "+15005550006",
		DefaultAlertPhone: "+14155551234",
		AlertCooldown:     60 * time.Second,
	}
}

func newTestService(t *testing.T, cfg *config.Config, sender *fakeSender) (*Service, *cooldown.Memory) {
	t.Helper()

	store := cooldown.NewMemory(cfg.AlertCooldown, 0)
	svc, err := NewService(cfg, sender, store)
	require.NoError(t, err)
	return svc, store
}

func validRequest() models.AlertRequest {
	return models.AlertRequest{
		Message:       "weapon detected by camera feed",
		DetectionType: models.DetectionTypeWeapon,
		Timestamp:     "2026-08-29T10:00:00Z",
		Confidence:    0.873,
		Location:      "Lobby",
	}
}

func TestDispatchFreshRecipient(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, store := newTestService(t, cfg, sender)

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result := svc.Dispatch(context.Background(), validRequest())

	require.True(t, result.Success)
	assert.Equal(t, "SM123", result.SID)
	assert.Equal(t, "Alert delivered", result.Message)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "+14155551234", sender.calls[0].to)
	assert.Equal(t, "+15005550006", sender.calls[0].from)
	assert.Equal(t, "ALERT: weapon at Lobby. Confidence: 87%.", sender.calls[0].body)

	last, ok, err := store.LastSent(context.Background(), "+14155551234")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, now, last)
}

func TestDispatchCooldownActive(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, _ := newTestService(t, cfg, sender)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	first := svc.Dispatch(context.Background(), validRequest())
	require.True(t, first.Success)

	// Second call strictly inside the window must not reach the provider.
	svc.now = func() time.Time { return base.Add(59 * time.Second) }
	second := svc.Dispatch(context.Background(), validRequest())

	assert.False(t, second.Success)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "Alert cooldown active", second.Message)
	assert.Len(t, sender.calls, 1)
}

func TestDispatchCooldownElapsed(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, _ := newTestService(t, cfg, sender)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.True(t, svc.Dispatch(context.Background(), validRequest()).Success)

	svc.now = func() time.Time { return base.Add(60 * time.Second) }
	result := svc.Dispatch(context.Background(), validRequest())

	assert.True(t, result.Success)
	assert.Len(t, sender.calls, 2)
}

func TestDispatchPerRecipientCooldown(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, _ := newTestService(t, cfg, sender)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.True(t, svc.Dispatch(context.Background(), validRequest()).Success)

	// A different recipient dispatches independently inside the window.
	other := validRequest()
	other.PhoneNumber = "+441632960123"
	result := svc.Dispatch(context.Background(), other)

	assert.True(t, result.Success)
	assert.Len(t, sender.calls, 2)
	assert.Equal(t, "+441632960123", sender.calls[1].to)
}

func TestFormatMessage(t *testing.T) {
	body := FormatMessage(models.DetectionTypeWeapon, "Lobby", 0.873)
	assert.Equal(t, "ALERT: weapon at Lobby. Confidence: 87%.", body)

	body = FormatMessage(models.DetectionTypeViolence, "unknown", 0)
	assert.Equal(t, "ALERT: violence at unknown. Confidence: 0%.", body)

	// Rounds to nearest integer percent
	body = FormatMessage(models.DetectionTypeViolence, "Gate 4", 0.005)
	assert.Equal(t, "ALERT: violence at Gate 4. Confidence: 1%.", body)
}

func TestDispatchValidation(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*models.AlertRequest)
		errorHas string
	}{
		{
			name:     "empty_message",
			mutate:   func(r *models.AlertRequest) { r.Message = "" },
			errorHas: "Message is required",
		},
		{
			name:     "whitespace_message",
			mutate:   func(r *models.AlertRequest) { r.Message = "   \t" },
			errorHas: "Message is required",
		},
		{
			name:     "missing_detection_type",
			mutate:   func(r *models.AlertRequest) { r.DetectionType = "" },
			errorHas: "Detection type is required",
		},
		{
			name:     "unsupported_detection_type",
			mutate:   func(r *models.AlertRequest) { r.DetectionType = "intrusion" },
			errorHas: "Unsupported detection type",
		},
		{
			name:     "missing_timestamp",
			mutate:   func(r *models.AlertRequest) { r.Timestamp = "" },
			errorHas: "Timestamp is required",
		},
		{
			name:     "no_plus_prefix",
			mutate:   func(r *models.AlertRequest) { r.PhoneNumber = "4155551234" },
			errorHas: "Invalid phone number format: 4155551234",
		},
		{
			name:     "leading_zero",
			mutate:   func(r *models.AlertRequest) { r.PhoneNumber = "+0123" },
			errorHas: "Invalid phone number format: +0123",
		},
		{
			name:     "too_many_digits",
			mutate:   func(r *models.AlertRequest) { r.PhoneNumber = "+123456789012345678" },
			errorHas: "Invalid phone number format",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			sender := &fakeSender{sid: "SM123"}
			svc, _ := newTestService(t, cfg, sender)

			req := validRequest()
			tc.mutate(&req)

			result := svc.Dispatch(context.Background(), req)

			assert.False(t, result.Success)
			assert.Equal(t, http.StatusBadRequest, result.StatusCode)
			assert.Contains(t, result.Error, tc.errorHas)
			assert.Empty(t, sender.calls, "validation failures must not reach the provider")
		})
	}
}

func TestDispatchRecipientOverride(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, _ := newTestService(t, cfg, sender)

	req := validRequest()
	req.PhoneNumber = "+14155559999"
	result := svc.Dispatch(context.Background(), req)

	require.True(t, result.Success)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "+14155559999", sender.calls[0].to)
}

func TestDispatchMissingConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TwilioAuthToken = ""
	cfg.DefaultAlertPhone = ""

	sender := &fakeSender{sid: "SM123"}
	svc, _ := newTestService(t, cfg, sender)

	result := svc.Dispatch(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Contains(t, result.Error, "TWILIO_AUTH_TOKEN")
	assert.Contains(t, result.Error, "DEFAULT_ALERT_PHONE")
	assert.NotContains(t, result.Error, "token")
	assert.Empty(t, sender.calls, "missing config must not reach the provider")
}

func TestDispatchProviderErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		code     int
		errorHas string
	}{
		{
			name:     "invalid_phone_number",
			code:     twilio.CodeInvalidPhoneNumber,
			errorHas: "Invalid phone number: +14155551234",
		},
		{
			name:     "sender_not_sms_capable",
			code:     twilio.CodeSenderNotSMSCapable,
			errorHas: "Twilio number +15005550006 not SMS enabled",
		},
		{
			name:     "account_not_authorized",
			code:     twilio.CodeAccountNotAuthorized,
			errorHas: "Account not authorized for this operation",
		},
		{
			name:     "unknown_code_falls_back_to_provider_message",
			code:     20003,
			errorHas: "provider said no",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			sender := &fakeSender{err: &twilio.APIError{
				Code:       tc.code,
				Message:    "provider said no",
				HTTPStatus: http.StatusBadRequest,
			}}
			svc, store := newTestService(t, cfg, sender)

			result := svc.Dispatch(context.Background(), validRequest())

			assert.False(t, result.Success)
			assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
			assert.Contains(t, result.Error, tc.errorHas)

			_, ok, err := store.LastSent(context.Background(), "+14155551234")
			require.NoError(t, err)
			assert.False(t, ok, "provider failure must not record a cooldown entry")
		})
	}
}

func TestDispatchUnknownProviderErrorWithoutMessage(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{err: &twilio.APIError{Code: 20003, HTTPStatus: http.StatusUnauthorized}}
	svc, _ := newTestService(t, cfg, sender)

	result := svc.Dispatch(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, fmt.Sprintf("Twilio error: %d", http.StatusUnauthorized))
}

func TestDispatchTransportFailureAllowsRetry(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{err: errors.New("failed to reach Twilio API: connection refused")}
	svc, store := newTestService(t, cfg, sender)

	result := svc.Dispatch(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	require.Len(t, sender.calls, 1)

	_, ok, err := store.LastSent(context.Background(), "+14155551234")
	require.NoError(t, err)
	assert.False(t, ok)

	// No success was recorded, so an immediate retry is not rate limited.
	sender.err = nil
	sender.sid = "SM456"
	retry := svc.Dispatch(context.Background(), validRequest())

	assert.True(t, retry.Success)
	assert.Equal(t, "SM456", retry.SID)
	assert.Len(t, sender.calls, 2)
}

type failingStore struct{}

func (failingStore) LastSent(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("store unavailable")
}

func (failingStore) MarkSent(context.Context, string, time.Time) error {
	return errors.New("store unavailable")
}

func TestDispatchStoreFailureFailsOpen(t *testing.T) {
	cfg := testConfig()
	sender := &fakeSender{sid: "SM123"}
	svc, err := NewService(cfg, sender, failingStore{})
	require.NoError(t, err)

	result := svc.Dispatch(context.Background(), validRequest())

	assert.True(t, result.Success, "an unreadable cooldown store must not swallow alerts")
	assert.Len(t, sender.calls, 1)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	cfg := testConfig()

	_, err := NewService(cfg, nil, cooldown.NewMemory(time.Minute, 0))
	assert.Error(t, err)

	_, err = NewService(cfg, &fakeSender{}, nil)
	assert.Error(t, err)
}
