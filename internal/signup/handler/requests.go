package handler

import (
	s "termyx/pkg/string"
	"termyx/pkg/validation"
)

// CheckSignupRequest is the payload for POST /auth/signup/check.
type CheckSignupRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	FingerprintHash string `json:"fingerprint_hash,omitempty" validate:"omitempty,fingerprint"`
}

func (r *CheckSignupRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Email)
	s.LowerTrim(&r.FingerprintHash)
}

func (r *CheckSignupRequest) Validate() error {
	return validation.Validate(r)
}

// CompleteSignupRequest is the optional payload for POST /auth/signup/complete.
// Email is only read when the access token carries no email claim.
type CompleteSignupRequest struct {
	Email           string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FingerprintHash string `json:"fingerprint_hash,omitempty" validate:"omitempty,fingerprint"`
}

func (r *CompleteSignupRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Email)
	s.LowerTrim(&r.FingerprintHash)
}

func (r *CompleteSignupRequest) Validate() error {
	return validation.Validate(r)
}
