// Package gate holds the shared vocabulary of the request-gating pipeline:
// decisions, denial codes, and the policy-aware runner that evaluates a gate
// against its data collaborators.
package gate

// Code is the stable, machine-readable reason attached to a denial.
// Front ends switch on these values, so they never change once published.
type Code string

const (
	CodeBlockedEmail    Code = "BLOCKED_EMAIL"
	CodeFingerprintUsed Code = "FINGERPRINT_USED"
	CodeIPAbuse         Code = "IP_ABUSE"
	CodeTrialExhausted  Code = "TRIAL_EXHAUSTED"
	CodeNoCredits       Code = "NO_CREDITS"
	CodeUnavailable     Code = "GATE_UNAVAILABLE"
)

// String returns the wire form of the code.
func (c Code) String() string {
	return string(c)
}

// FailurePolicy says what a gate answers when its data collaborators fail.
type FailurePolicy int

const (
	// FailOpen admits the request. Used where a false positive costs a
	// legitimate user more than a false negative costs the business.
	FailOpen FailurePolicy = iota
	// FailClosed denies the request. Used wherever free value would be spent.
	FailClosed
)

func (p FailurePolicy) String() string {
	switch p {
	case FailOpen:
		return "fail_open"
	case FailClosed:
		return "fail_closed"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a gate. Denials are values, not errors.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Code    Code   `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns an admitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denial carrying a code and a user-facing message.
func Deny(code Code, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

// Denied reports whether the decision rejects the request.
func (d Decision) Denied() bool {
	return !d.Allowed
}

// UnavailableMessage is shown when a fail-closed gate cannot reach its store.
const UnavailableMessage = "Não foi possível verificar sua conta agora. Tente novamente em instantes."
