package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/metrics"
	"vigilanteye-worker-go/internal/models"
	"vigilanteye-worker-go/internal/services/twilio"
)

// E.164: leading +, first digit 1-9, 2 to 15 digits total.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Service converts a validated detection signal into at most one
// outbound SMS per cooldown window per recipient. Each Dispatch call is
// a single linear pass with no internal retries; retry policy belongs to
// the caller.
type Service struct {
	cfg       *config.Config
	sender    models.SMSSender
	cooldowns models.CooldownStore
	window    time.Duration

	// Injectable clock for tests.
	now func() time.Time
}

// NewService creates the alert gateway.
func NewService(cfg *config.Config, sender models.SMSSender, cooldowns models.CooldownStore) (*Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("sms sender is required")
	}
	if cooldowns == nil {
		return nil, fmt.Errorf("cooldown store is required")
	}

	s := &Service{
		cfg:       cfg,
		sender:    sender,
		cooldowns: cooldowns,
		window:    cfg.AlertCooldown,
		now:       time.Now,
	}

	log.Info().
		Dur("cooldown_window", s.window).
		Msg("Alert gateway initialized")

	return s, nil
}

// Dispatch runs the linear pass:
// validate -> rate-limit check -> format -> provider call -> cache update.
// The cooldown cache is mutated on provider success only, so a failed
// send never blocks a legitimate retry.
func (s *Service) Dispatch(ctx context.Context, req models.AlertRequest) models.AlertResult {
	if missing := s.cfg.MissingProviderKeys(); len(missing) > 0 {
		log.Error().
			Strs("missing_keys", missing).
			Msg("Alert dispatch refused, provider configuration incomplete")
		return s.failure(&ConfigError{MissingKeys: missing}, metrics.OutcomeConfig)
	}

	recipient, err := s.validate(req)
	if err != nil {
		log.Warn().Err(err).Msg("Alert request rejected")
		return s.failure(err, metrics.OutcomeValidation)
	}

	now := s.now()
	if s.cooldownActive(ctx, recipient, now) {
		log.Info().
			Str("recipient", maskPhone(recipient)).
			Msg("Alert blocked by cooldown")
		metrics.DispatchTotal.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		rateErr := &RateLimitError{Recipient: recipient}
		return models.AlertResult{
			Success:    false,
			Message:    rateErr.Error(),
			StatusCode: rateErr.StatusCode(),
		}
	}

	body := FormatMessage(req.DetectionType, location(req), req.Confidence)

	start := time.Now()
	sid, err := s.sender.Send(ctx, recipient, s.cfg.TwilioPhoneNumber, body)
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return s.providerFailure(err, recipient)
	}

	if err := s.cooldowns.MarkSent(ctx, recipient, now); err != nil {
		// The SMS is already out; a store failure only widens the
		// effective window, so log and keep the success result.
		log.Warn().Err(err).
			Str("recipient", maskPhone(recipient)).
			Msg("Failed to record cooldown entry")
	}

	log.Info().
		Str("recipient", maskPhone(recipient)).
		Str("detection_type", string(req.DetectionType)).
		Str("sid", sid).
		Msg("Alert dispatched")
	metrics.DispatchTotal.WithLabelValues(metrics.OutcomeSent).Inc()

	return models.AlertResult{
		Success:    true,
		SID:        sid,
		Message:    "Alert delivered",
		StatusCode: http.StatusOK,
	}
}

// validate applies the request checks in order and fails fast on the
// first violation. Returns the resolved recipient on success.
func (s *Service) validate(req models.AlertRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", &ValidationError{Reason: "Message is required"}
	}
	if req.DetectionType == "" {
		return "", &ValidationError{Reason: "Detection type is required"}
	}
	if !req.DetectionType.Valid() {
		return "", &ValidationError{Reason: fmt.Sprintf("Unsupported detection type: %s", req.DetectionType)}
	}
	if req.Timestamp == "" {
		return "", &ValidationError{Reason: "Timestamp is required"}
	}

	recipient := req.PhoneNumber
	if recipient == "" {
		recipient = s.cfg.DefaultAlertPhone
	}
	if !phonePattern.MatchString(recipient) {
		return "", &ValidationError{Reason: fmt.Sprintf("Invalid phone number format: %s", recipient)}
	}

	return recipient, nil
}

// cooldownActive reports whether the window for recipient is still open.
// Store errors fail open: an unreadable entry must not swallow a real
// security alert.
func (s *Service) cooldownActive(ctx context.Context, recipient string, now time.Time) bool {
	last, ok, err := s.cooldowns.LastSent(ctx, recipient)
	if err != nil {
		log.Warn().Err(err).
			Str("recipient", maskPhone(recipient)).
			Msg("Cooldown lookup failed, proceeding with dispatch")
		return false
	}
	return ok && now.Sub(last) < s.window
}

func (s *Service) providerFailure(err error, recipient string) models.AlertResult {
	var apiErr *twilio.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		switch apiErr.Code {
		case twilio.CodeInvalidPhoneNumber:
			message = fmt.Sprintf("Invalid phone number: %s", recipient)
		case twilio.CodeSenderNotSMSCapable:
			message = fmt.Sprintf("Twilio number %s not SMS enabled", s.cfg.TwilioPhoneNumber)
		case twilio.CodeAccountNotAuthorized:
			message = "Account not authorized for this operation"
		default:
			if message == "" {
				message = fmt.Sprintf("Twilio error: %d", apiErr.HTTPStatus)
			}
		}
		log.Error().
			Int("code", apiErr.Code).
			Int("status", apiErr.HTTPStatus).
			Str("recipient", maskPhone(recipient)).
			Msg("Provider rejected alert")
		return s.failure(&ProviderError{Code: apiErr.Code, Message: message}, metrics.OutcomeProvider)
	}

	log.Error().Err(err).
		Str("recipient", maskPhone(recipient)).
		Msg("Provider call failed")
	return s.failure(&TransportError{Err: err}, metrics.OutcomeTransport)
}

func (s *Service) failure(err error, outcome string) models.AlertResult {
	metrics.DispatchTotal.WithLabelValues(outcome).Inc()

	status := http.StatusInternalServerError
	if sc, ok := err.(interface{ StatusCode() int }); ok {
		status = sc.StatusCode()
	}
	return models.AlertResult{
		Success:    false,
		Error:      err.Error(),
		Message:    err.Error(),
		StatusCode: status,
	}
}

// FormatMessage builds the outbound SMS body. The template is a
// compatibility contract with downstream consumers; do not change it.
func FormatMessage(detectionType models.DetectionType, location string, confidence float64) string {
	percent := int(math.Round(confidence * 100))
	return fmt.Sprintf("ALERT: %s at %s. Confidence: %d%%.", detectionType, location, percent)
}

func location(req models.AlertRequest) string {
	if strings.TrimSpace(req.Location) == "" {
		return "unknown"
	}
	return req.Location
}

// maskPhone keeps the last four digits for log correlation.
func maskPhone(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
