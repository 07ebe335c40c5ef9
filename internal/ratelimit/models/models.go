package models

import (
	"math"
	"time"
)

// Limit is a named fixed-window policy: at most Requests per Window.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Result is the outcome of one counted request.
type Result struct {
	Success   bool      `json:"success"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
	// Degraded is set when the answer came from the process-local fallback
	// because the shared store is unavailable.
	Degraded bool `json:"-"`
}

// Evaluate applies the fixed-window rule to the post-increment count.
func Evaluate(limit, count int, resetAt time.Time) *Result {
	return &Result{
		Success:   count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-count),
		ResetTime: resetAt,
	}
}

// RetryAfter is the whole number of seconds until the window resets, at least 1.
func (r *Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetTime.Sub(now).Seconds()))
	return max(1, secs)
}

// Key namespaces a counter by limit name so presets never share windows.
func Key(limitName, identifier string) string {
	return "rl:" + limitName + ":" + identifier
}
