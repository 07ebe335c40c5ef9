package handler

import (
	"encoding/json"
	"time"

	"termyx/internal/documents/models"
	"termyx/internal/documents/service"
	"termyx/internal/gate"
)

type DocumentResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Template  string          `json:"template"`
	Content   json.RawMessage `json:"content,omitempty"`
	Billing   string          `json:"billing"`
	CreatedAt time.Time       `json:"created_at"`
}

// BillingResponse reports what the creation consumed. Only the field for the
// billing type applies.
type BillingResponse struct {
	Type           string `json:"type"`
	Credits        *int   `json:"credits_remaining,omitempty"`
	TrialRemaining *int   `json:"trial_remaining,omitempty"`
}

type CreateDocumentResponse struct {
	Document DocumentResponse `json:"document"`
	Billing  BillingResponse  `json:"billing"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// DeniedResponse is the 402 body for a metering denial.
type DeniedResponse struct {
	Allowed bool      `json:"allowed"`
	Code    gate.Code `json:"code"`
	Reason  string    `json:"reason"`
}

func toDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID.String(),
		Title:     doc.Title,
		Template:  doc.Template,
		Content:   doc.Content,
		Billing:   doc.Billing.String(),
		CreatedAt: doc.CreatedAt,
	}
}

func toCreateResponse(o *service.Outcome) *CreateDocumentResponse {
	billing := BillingResponse{Type: o.Document.Billing.String()}
	switch o.Document.Billing {
	case models.BillingCredit:
		credits := o.Credits
		billing.Credits = &credits
	case models.BillingTrial:
		remaining := o.TrialRemaining
		billing.TrialRemaining = &remaining
	}
	return &CreateDocumentResponse{Document: toDocumentResponse(o.Document), Billing: billing}
}

func toListResponse(docs []*models.Document) *ListDocumentsResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	return &ListDocumentsResponse{Documents: out}
}
