package handler

import (
	"strings"

	s "termyx/pkg/string"
	"termyx/pkg/validation"
)

// GrantCreditsRequest is the admin payload for POST /admin/credits.
type GrantCreditsRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Amount      int    `json:"amount" validate:"gt=0,lte=100000"`
	Type        string `json:"type" validate:"required,oneof=purchase bonus refund"`
	Description string `json:"description" validate:"max=200"`
}

func (r *GrantCreditsRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.UserID, &r.Description)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
}

func (r *GrantCreditsRequest) Validate() error {
	return validation.Validate(r)
}
