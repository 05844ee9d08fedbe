package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zapleads/zapleads/internal/messaging"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, org_id, company, contact_name, category, city, phone, status, dispatch_status, last_sent_at, message, created_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, org_id, company, contact_name, category, city, phone, status, dispatch_status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.OrgID,
		req.Company,
		req.ContactName,
		req.Category,
		req.City,
		req.Phone,
		StatusNew,
		DispatchNotSent,
		req.Message,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:             id.String(),
		OrgID:          req.OrgID,
		Company:        req.Company,
		ContactName:    req.ContactName,
		Category:       req.Category,
		City:           req.City,
		Phone:          req.Phone,
		Status:         StatusNew,
		DispatchStatus: DispatchNotSent,
		Message:        req.Message,
		CreatedAt:      createdAt,
	}, nil
}

// GetByID fetches a lead scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND org_id = $2`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListByIDs fetches the given leads scoped to the org, preserving no
// particular order. Unknown ids are silently skipped.
func (r *PostgresRepository) ListByIDs(ctx context.Context, orgID string, ids []string) ([]*Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE org_id = $1 AND id = ANY($2)`
	rows, err := r.pool.Query(ctx, query, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list rows: %w", err)
	}
	return out, nil
}

// FindByPhone matches a lead by any accepted formatting variant of the
// sender's number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, orgID, phone string) (*Lead, error) {
	variants := messaging.PhoneVariants(phone)
	if len(variants) == 0 {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE org_id = $1 AND phone = ANY($2) LIMIT 1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, orgID, variants))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: find by phone failed: %w", err)
	}
	return lead, nil
}

// MarkSent records a successful dispatch: status enum, timestamp, and the
// body that was actually sent (kept in sync when the caller edited it).
func (r *PostgresRepository) MarkSent(ctx context.Context, orgID, id string, sentAt time.Time, message string) error {
	query := `
		UPDATE leads
		SET dispatch_status = $3,
			last_sent_at = $4,
			message = COALESCE(NULLIF($5, ''), message),
			status = CASE WHEN status = $6 THEN $7 ELSE status END
		WHERE id = $1 AND org_id = $2
	`
	ct, err := r.pool.Exec(ctx, query, id, orgID, DispatchSent, sentAt, message, StatusNew, StatusContacted)
	if err != nil {
		return fmt.Errorf("leads: mark sent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkSendFailed records a failed dispatch attempt.
func (r *PostgresRepository) MarkSendFailed(ctx context.Context, orgID, id string) error {
	query := `UPDATE leads SET dispatch_status = $3 WHERE id = $1 AND org_id = $2`
	ct, err := r.pool.Exec(ctx, query, id, orgID, DispatchFailed)
	if err != nil {
		return fmt.Errorf("leads: mark failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkConversationActive flips the pipeline status when the lead replies.
func (r *PostgresRepository) MarkConversationActive(ctx context.Context, orgID, id string) error {
	query := `UPDATE leads SET status = $3 WHERE id = $1 AND org_id = $2`
	ct, err := r.pool.Exec(ctx, query, id, orgID, StatusInConversation)
	if err != nil {
		return fmt.Errorf("leads: mark conversation active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.OrgID,
		&lead.Company,
		&lead.ContactName,
		&lead.Category,
		&lead.City,
		&lead.Phone,
		&lead.Status,
		&lead.DispatchStatus,
		&lead.LastSentAt,
		&lead.Message,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
