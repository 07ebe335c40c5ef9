package audit

import (
	"context"
	"time"

	"termyx/pkg/platform/privacy"
	"termyx/pkg/requestcontext"
)

// Event is emitted from domain logic to capture security-relevant actions.
// IP addresses are stored as anonymized prefixes only.
type Event struct {
	Timestamp time.Time
	Action    Action
	UserID    string
	Subject   string
	Decision  string
	Reason    string
	IPPrefix  string
	RequestID string
}

type Action string

const (
	ActionSignupDenied      Action = "signup_denied"
	ActionSignupFailOpen    Action = "signup_gate_failed_open"
	ActionSignupRecorded    Action = "signup_recorded"
	ActionDocumentDenied    Action = "document_denied"
	ActionCreditsGranted    Action = "credits_granted"
	ActionCreditRefunded    Action = "credit_refunded"
	ActionAdminAuthRejected Action = "admin_auth_rejected"
)

// NewEvent builds an event carrying the request id and anonymized client IP from ctx.
func NewEvent(ctx context.Context, action Action) Event {
	return Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		IPPrefix:  anonymizedClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
	}
}

func anonymizedClientIP(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		return ""
	}
	return privacy.AnonymizeIP(ip)
}
