package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TWILIO_ACCOUNT_SID",
		"TWILIO_AUTH_TOKEN",
		"TWILIO_PHONE_NUMBER",
		"DEFAULT_ALERT_PHONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("ALERT_COOLDOWN", "")
	t.Setenv("MIN_CONFIDENCE", "")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "alert-gateway-1", cfg.WorkerID)
	assert.Equal(t, 60*time.Second, cfg.AlertCooldown)
	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, 5*time.Minute, cfg.CooldownSweep)
	assert.Equal(t, "https://api.twilio.com/2010-04-01", cfg.TwilioAPIBase)
	assert.Equal(t, "detections", cfg.DetectionsSubject)
	assert.Equal(t, "alerts.outcomes", cfg.OutcomesSubject)
	assert.Equal(t, "", cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("ALERT_COOLDOWN", "90s")
	t.Setenv("MIN_CONFIDENCE", "0.75")
	t.Setenv("TWILIO_API_BASE", "http://localhost:4010")

	cfg := Load()

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AlertCooldown)
	assert.Equal(t, 0.75, cfg.MinConfidence)
	assert.Equal(t, "http://localhost:4010", cfg.TwilioAPIBase)
}

func TestMissingProviderKeys(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{
		"TWILIO_ACCOUNT_SID",
		"TWILIO_AUTH_TOKEN",
		"TWILIO_PHONE_NUMBER",
		"DEFAULT_ALERT_PHONE",
	}, cfg.MissingProviderKeys())

	cfg.TwilioAccountSID = "AC123"
	cfg.TwilioPhoneNumber = "+15005550006"
	assert.Equal(t, []string{
		"TWILIO_AUTH_TOKEN",
		"DEFAULT_ALERT_PHONE",
	}, cfg.MissingProviderKeys())

	cfg.TwilioAuthToken = "token"
	cfg.DefaultAlertPhone = "+14155551234"
	assert.Empty(t, cfg.MissingProviderKeys())
}

func TestValidateReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{AlertCooldown: time.Minute, MinConfidence: 0.5}

	err := cfg.Validate()
	require.Error(t, err)

	// All missing keys are reported together, names only.
	assert.Contains(t, err.Error(), "TWILIO_ACCOUNT_SID")
	assert.Contains(t, err.Error(), "TWILIO_AUTH_TOKEN")
	assert.Contains(t, err.Error(), "TWILIO_PHONE_NUMBER")
	assert.Contains(t, err.Error(), "DEFAULT_ALERT_PHONE")
}

func TestValidatePolicyBounds(t *testing.T) {
	base := Config{
		TwilioAccountSID:  "AC123",
		TwilioAuthToken:   "token",
		TwilioPhoneNumber: "+15005550006",
		DefaultAlertPhone: "+14155551234",
		AlertCooldown:     time.Minute,
		MinConfidence:     0.5,
	}

	valid := base
	require.NoError(t, valid.Validate())

	noCooldown := base
	noCooldown.AlertCooldown = 0
	assert.Error(t, noCooldown.Validate())

	badConfidence := base
	badConfidence.MinConfidence = 1.5
	assert.Error(t, badConfidence.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_FLOAT", "0.7")
	t.Setenv("TEST_DUR", "45s")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_INT", "not-a-number")

	assert.Equal(t, "value", getEnv("TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("TEST_UNSET_KEY", "default"))
	assert.Equal(t, 42, getEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 0.7, getEnvFloat("TEST_FLOAT", 0.5))
	assert.Equal(t, 45*time.Second, getEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, true, getEnvBool("TEST_BOOL", false))
}
