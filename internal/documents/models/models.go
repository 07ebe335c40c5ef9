package models

import (
	"encoding/json"
	"time"

	id "termyx/pkg/domain"
)

// Billing records how a document was paid for.
type Billing string

const (
	BillingTrial  Billing = "trial"
	BillingCredit Billing = "credit"
)

func (b Billing) String() string {
	return string(b)
}

// Document is a generated business document. Content is the template
// payload as submitted and is stored verbatim.
type Document struct {
	ID        id.DocumentID
	UserID    id.UserID
	Title     string
	Template  string
	Content   json.RawMessage
	Billing   Billing
	CreatedAt time.Time
}

// Draft is the caller input for a new document.
type Draft struct {
	Title    string
	Template string
	Content  json.RawMessage
}
