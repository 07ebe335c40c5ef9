package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	dErrors "termyx/pkg/domain-errors"
	s "termyx/pkg/string"
	"termyx/pkg/validation"
)

const maxContentBytes = 64 << 10

// CreateDocumentRequest is the payload for POST /documents.
type CreateDocumentRequest struct {
	Title    string          `json:"title" validate:"required,notblank,max=200"`
	Template string          `json:"template" validate:"required,max=64"`
	Content  json.RawMessage `json:"content,omitempty"`
}

func (r *CreateDocumentRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Title)
	r.Template = strings.ToLower(strings.TrimSpace(r.Template))
	if bytes.Equal(bytes.TrimSpace(r.Content), []byte("null")) {
		r.Content = nil
	}
}

func (r *CreateDocumentRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if len(r.Content) > maxContentBytes {
		return dErrors.New(dErrors.CodeValidation, "content is too large")
	}
	trimmed := bytes.TrimSpace(r.Content)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		return dErrors.New(dErrors.CodeValidation, "content must be a JSON object")
	}
	return nil
}
