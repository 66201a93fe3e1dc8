package detectionsource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/metrics"
	"vigilanteye-worker-go/internal/models"
)

// Subscriber is the slice of the messaging service the source needs.
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error)
	PublishOutcome(outcome models.AlertOutcome) error
}

// Service consumes detection events pushed by the video-analysis backend
// and invokes the alert gateway once per qualifying event. The
// minimum-confidence gate lives here, on the source side, as an explicit
// configurable policy; the HTTP entry point performs no gating.
type Service struct {
	cfg        *config.Config
	dispatcher models.AlertDispatcher
	bus        Subscriber

	sub *nats.Subscription
}

func NewService(cfg *config.Config, dispatcher models.AlertDispatcher, bus Subscriber) (*Service, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("alert dispatcher is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("message bus is required")
	}

	return &Service{
		cfg:        cfg,
		dispatcher: dispatcher,
		bus:        bus,
	}, nil
}

// Start subscribes to the detections subject. Queue-group subscription
// keeps multi-instance deployments at one dispatch per event.
func (s *Service) Start() error {
	sub, err := s.bus.QueueSubscribe(s.cfg.DetectionsSubject, s.cfg.DetectionsQueue, s.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.DetectionsSubject, err)
	}
	s.sub = sub

	log.Info().
		Str("subject", s.cfg.DetectionsSubject).
		Str("queue", s.cfg.DetectionsQueue).
		Float64("min_confidence", s.cfg.MinConfidence).
		Msg("Detection source subscribed")

	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}

// handleMessage never panics out of the subscription; malformed or
// non-qualifying events are counted and dropped.
func (s *Service) handleMessage(data []byte) {
	var event models.DetectionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Warn().Err(err).Msg("Dropping malformed detection event")
		metrics.DetectionEvents.WithLabelValues("malformed").Inc()
		return
	}

	req, ok := s.buildRequest(event)
	if !ok {
		metrics.DetectionEvents.WithLabelValues("skipped").Inc()
		return
	}
	metrics.DetectionEvents.WithLabelValues("dispatched").Inc()

	result := s.dispatcher.Dispatch(context.Background(), req)
	s.publishOutcome(req, result)

	if result.Success {
		log.Info().
			Str("detection_type", string(req.DetectionType)).
			Str("sid", result.SID).
			Msg("Detection event dispatched")
	} else {
		log.Warn().
			Str("detection_type", string(req.DetectionType)).
			Int("status", result.StatusCode).
			Str("message", result.Message).
			Msg("Detection event dispatch failed")
	}
}

// buildRequest selects the qualifying detection and maps it to an
// AlertRequest. Weapon takes precedence when both fire in one event,
// matching the backend's own alert choice.
func (s *Service) buildRequest(event models.DetectionEvent) (models.AlertRequest, bool) {
	var (
		detectionType models.DetectionType
		confidence    float64
	)

	switch {
	case event.WeaponsDetected:
		detectionType = models.DetectionTypeWeapon
		confidence = event.WeaponConfidence
	case event.ViolenceDetected:
		detectionType = models.DetectionTypeViolence
		confidence = event.ViolenceConfidence
	default:
		return models.AlertRequest{}, false
	}

	if confidence < s.cfg.MinConfidence {
		log.Debug().
			Str("detection_type", string(detectionType)).
			Float64("confidence", confidence).
			Float64("min_confidence", s.cfg.MinConfidence).
			Msg("Detection below confidence gate")
		return models.AlertRequest{}, false
	}

	timestamp := event.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	location := event.Location
	if location == "" {
		location = event.CameraID
	}

	return models.AlertRequest{
		Message:       fmt.Sprintf("%s detected by camera feed", detectionType),
		PhoneNumber:   event.PhoneNumber,
		DetectionType: detectionType,
		Timestamp:     timestamp,
		Confidence:    confidence,
		Location:      location,
	}, true
}

func (s *Service) publishOutcome(req models.AlertRequest, result models.AlertResult) {
	outcome := models.AlertOutcome{
		DetectionType: req.DetectionType,
		Recipient:     maskPhone(req.PhoneNumber, s.cfg.DefaultAlertPhone),
		Success:       result.Success,
		SID:           result.SID,
		Error:         result.Error,
		StatusCode:    result.StatusCode,
		Timestamp:     time.Now(),
	}

	if err := s.bus.PublishOutcome(outcome); err != nil {
		log.Warn().Err(err).
			Str("subject", s.cfg.OutcomesSubject).
			Msg("Failed to publish alert outcome")
	}
}

func maskPhone(override, fallback string) string {
	number := override
	if number == "" {
		number = fallback
	}
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
