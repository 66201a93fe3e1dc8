package models

import (
	"context"
	"time"
)

// DetectionType represents the detection categories that can trigger alerts
type DetectionType string

const (
	DetectionTypeViolence DetectionType = "violence"
	DetectionTypeWeapon   DetectionType = "weapon"
)

// Valid reports whether the detection type is one of the supported values.
func (t DetectionType) Valid() bool {
	return t == DetectionTypeViolence || t == DetectionTypeWeapon
}

// AlertRequest is the inbound dispatch payload. Transient, never persisted.
type AlertRequest struct {
	Message string `json:"message"`
	// Optional destination override; falls back to the configured
	// default recipient when empty.
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	DetectionType DetectionType `json:"detectionType"`
	// Opaque pass-through, not parsed here.
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence,omitempty"`
	Location   string  `json:"location,omitempty"`
}

// AlertResult is the outcome of a single dispatch attempt.
type AlertResult struct {
	Success bool   `json:"success"`
	SID     string `json:"sid,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// HTTP-style status: 200 sent, 400 validation, 429 cooldown,
	// 500 configuration/provider/transport.
	StatusCode int `json:"-"`
}

// DetectionEvent is the push payload emitted by the video-analysis
// backend on the detections subject. Field names mirror the backend's
// detection_data messages.
type DetectionEvent struct {
	ViolenceDetected   bool    `json:"violence_detected"`
	WeaponsDetected    bool    `json:"weapons_detected"`
	ViolenceConfidence float64 `json:"violence_confidence"`
	WeaponConfidence   float64 `json:"weapon_confidence"`
	Timestamp          string  `json:"timestamp"`
	CameraID           string  `json:"camera_id,omitempty"`
	Location           string  `json:"location,omitempty"`
	PhoneNumber        string  `json:"phone_number,omitempty"`
}

// AlertOutcome is re-broadcast after every dispatch attempt so dashboard
// consumers can surface sent/failed notifications.
type AlertOutcome struct {
	DetectionType DetectionType `json:"detection_type"`
	Recipient     string        `json:"recipient"` // masked, last 4 digits only
	Success       bool          `json:"success"`
	SID           string        `json:"sid,omitempty"`
	Error         string        `json:"error,omitempty"`
	StatusCode    int           `json:"status_code"`
	Timestamp     time.Time     `json:"timestamp"`
}

// CooldownStore tracks the last successful dispatch per recipient.
// Implementations are not required to make check-then-record atomic
// across concurrent dispatches; the window is best-effort.
type CooldownStore interface {
	// LastSent returns the recorded time of the last successful
	// dispatch to key, or ok=false when none is recorded.
	LastSent(ctx context.Context, key string) (t time.Time, ok bool, err error)
	// MarkSent records a successful dispatch to key at time t.
	MarkSent(ctx context.Context, key string, t time.Time) error
}

// SMSSender is the provider client contract.
type SMSSender interface {
	// Send delivers one message and returns the provider-assigned SID.
	Send(ctx context.Context, to, from, body string) (sid string, err error)
}

// AlertDispatcher is the gateway contract consumed by the API layer and
// the detection source.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, req AlertRequest) AlertResult
}
