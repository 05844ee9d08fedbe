package leads

import (
	"strings"
	"time"
)

// DispatchStatus tracks whether the lead's assigned message has been sent.
type DispatchStatus string

const (
	DispatchNotSent DispatchStatus = "not_sent"
	DispatchSent    DispatchStatus = "sent"
	DispatchFailed  DispatchStatus = "failed"
)

// Pipeline statuses the messaging core cares about. The CRM defines more,
// but only these are written by this service.
const (
	StatusNew            = "novo"
	StatusContacted      = "contatado"
	StatusInConversation = "em_conversa"
)

// Lead represents a prospected business contact.
type Lead struct {
	ID             string         `json:"id"`
	OrgID          string         `json:"org_id"`
	Company        string         `json:"company"`
	ContactName    string         `json:"contact_name"`
	Category       string         `json:"category"`
	City           string         `json:"city"`
	Phone          string         `json:"phone"`
	Status         string         `json:"status"`
	DispatchStatus DispatchStatus `json:"dispatch_status"`
	LastSentAt     *time.Time     `json:"last_sent_at,omitempty"`
	Message        string         `json:"message"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	OrgID       string `json:"-"`
	Company     string `json:"company"`
	ContactName string `json:"contact_name"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(r.Company) == "" {
		return ErrInvalidCompany
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}
