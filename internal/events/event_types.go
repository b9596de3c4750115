package events

import (
	"time"

	"github.com/techcollege/referral-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReferralCreated      EventType = "referral_created"
	EventReferralTransitioned EventType = "referral_transitioned"
	EventAdvisoryAttached     EventType = "referral_advisory_attached"
	EventStaffChanged         EventType = "staff_changed"
)

// Actor identifies the staff member behind an event.
type Actor struct {
	StaffID string           `json:"staff_id"`
	Name    string           `json:"name"`
	Role    domain.StaffRole `json:"role"`
}

// ActorFromStaff copies the identifying fields of s.
func ActorFromStaff(s *domain.Staff) Actor {
	if s == nil {
		return Actor{}
	}
	return Actor{StaffID: s.ID, Name: s.Name, Role: s.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ReferralID string      `json:"referral_id,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ReferralCreatedPayload carries the stored referral.
type ReferralCreatedPayload struct {
	Referral domain.Referral `json:"referral"`
}

// ReferralTransitionedPayload carries the referral after the action applied.
type ReferralTransitionedPayload struct {
	Action    string                `json:"action"`
	OldStatus domain.ReferralStatus `json:"old_status"`
	NewStatus domain.ReferralStatus `json:"new_status"`
	Comment   string                `json:"comment,omitempty"`
	Referral  domain.Referral       `json:"referral"`
}

// StaffChangedPayload describes a staff directory mutation.
type StaffChangedPayload struct {
	StaffID string `json:"staff_id"`
	Change  string `json:"change"`
}
