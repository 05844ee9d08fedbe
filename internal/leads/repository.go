package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zapleads/zapleads/internal/messaging"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, orgID, id string) (*Lead, error)
	ListByIDs(ctx context.Context, orgID string, ids []string) ([]*Lead, error)
	FindByPhone(ctx context.Context, orgID, phone string) (*Lead, error)
	MarkSent(ctx context.Context, orgID, id string, sentAt time.Time, message string) error
	MarkSendFailed(ctx context.Context, orgID, id string) error
	MarkConversationActive(ctx context.Context, orgID, id string) error
}

// InMemoryRepository is an in-memory Repository used in tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:             uuid.New().String(),
		OrgID:          req.OrgID,
		Company:        req.Company,
		ContactName:    req.ContactName,
		Category:       req.Category,
		City:           req.City,
		Phone:          req.Phone,
		Status:         StatusNew,
		DispatchStatus: DispatchNotSent,
		Message:        req.Message,
		CreatedAt:      time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID scoped to the org.
func (r *InMemoryRepository) GetByID(ctx context.Context, orgID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || lead.OrgID != orgID {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

// ListByIDs returns the leads matching the given ids, skipping unknown ones.
func (r *InMemoryRepository) ListByIDs(ctx context.Context, orgID string, ids []string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(ids))
	for _, id := range ids {
		if lead, ok := r.leads[id]; ok && lead.OrgID == orgID {
			copied := *lead
			out = append(out, &copied)
		}
	}
	return out, nil
}

// FindByPhone matches a lead by any accepted formatting variant of the number.
func (r *InMemoryRepository) FindByPhone(ctx context.Context, orgID, phone string) (*Lead, error) {
	variants := messaging.PhoneVariants(phone)
	if len(variants) == 0 {
		return nil, ErrLeadNotFound
	}
	candidates := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		candidates[v] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lead := range r.leads {
		if lead.OrgID != orgID {
			continue
		}
		if _, ok := candidates[lead.Phone]; ok {
			copied := *lead
			return &copied, nil
		}
		if _, ok := candidates[messaging.NormalizePhone(lead.Phone)]; ok {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, ErrLeadNotFound
}

// MarkSent records a successful dispatch on the lead.
func (r *InMemoryRepository) MarkSent(ctx context.Context, orgID, id string, sentAt time.Time, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.OrgID != orgID {
		return ErrLeadNotFound
	}
	lead.DispatchStatus = DispatchSent
	lead.LastSentAt = &sentAt
	if message != "" {
		lead.Message = message
	}
	if lead.Status == StatusNew {
		lead.Status = StatusContacted
	}
	return nil
}

// MarkSendFailed records a failed dispatch attempt on the lead.
func (r *InMemoryRepository) MarkSendFailed(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.OrgID != orgID {
		return ErrLeadNotFound
	}
	lead.DispatchStatus = DispatchFailed
	return nil
}

// MarkConversationActive flips the pipeline status when the lead replies.
func (r *InMemoryRepository) MarkConversationActive(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.OrgID != orgID {
		return ErrLeadNotFound
	}
	lead.Status = StatusInConversation
	return nil
}
