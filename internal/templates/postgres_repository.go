package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines template storage.
type Repository interface {
	Create(ctx context.Context, tpl *Template) (*Template, error)
	GetByID(ctx context.Context, orgID, id string) (*Template, error)
	List(ctx context.Context, orgID string) ([]*Template, error)
	Update(ctx context.Context, tpl *Template) error
	Delete(ctx context.Context, orgID, id string) error
}

// PostgresRepository stores templates in the relational database, with
// variations serialized as JSONB.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("templates: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new template.
func (r *PostgresRepository) Create(ctx context.Context, tpl *Template) (*Template, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	variations, err := json.Marshal(tpl.Variations)
	if err != nil {
		return nil, fmt.Errorf("templates: marshal variations: %w", err)
	}
	query := `
		INSERT INTO message_templates (id, org_id, name, category, protected, variations, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		tpl.ID, tpl.OrgID, tpl.Name, tpl.Category, tpl.Protected, variations, tpl.Message,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("templates: insert failed: %w", err)
	}
	tpl.CreatedAt = createdAt
	return tpl, nil
}

// GetByID fetches a template scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*Template, error) {
	query := `
		SELECT id, org_id, name, category, protected, variations, message, created_at
		FROM message_templates
		WHERE id = $1 AND org_id = $2
	`
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("templates: select failed: %w", err)
	}
	return tpl, nil
}

// List returns all templates for the org, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string) ([]*Template, error) {
	query := `
		SELECT id, org_id, name, category, protected, variations, message, created_at
		FROM message_templates
		WHERE org_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("templates: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("templates: scan failed: %w", err)
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("templates: list rows: %w", err)
	}
	return out, nil
}

// Update rewrites an unprotected template.
func (r *PostgresRepository) Update(ctx context.Context, tpl *Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	existing, err := r.GetByID(ctx, tpl.OrgID, tpl.ID)
	if err != nil {
		return err
	}
	if existing.Protected {
		return ErrTemplateProtected
	}
	variations, err := json.Marshal(tpl.Variations)
	if err != nil {
		return fmt.Errorf("templates: marshal variations: %w", err)
	}
	query := `
		UPDATE message_templates
		SET name = $3, category = $4, variations = $5, message = $6
		WHERE id = $1 AND org_id = $2
	`
	if _, err := r.pool.Exec(ctx, query, tpl.ID, tpl.OrgID, tpl.Name, tpl.Category, variations, tpl.Message); err != nil {
		return fmt.Errorf("templates: update failed: %w", err)
	}
	return nil
}

// Delete removes an unprotected template.
func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	existing, err := r.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if existing.Protected {
		return ErrTemplateProtected
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM message_templates WHERE id = $1 AND org_id = $2`, id, orgID); err != nil {
		return fmt.Errorf("templates: delete failed: %w", err)
	}
	return nil
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var tpl Template
	var variations []byte
	if err := row.Scan(
		&tpl.ID,
		&tpl.OrgID,
		&tpl.Name,
		&tpl.Category,
		&tpl.Protected,
		&variations,
		&tpl.Message,
		&tpl.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(variations) > 0 {
		if err := json.Unmarshal(variations, &tpl.Variations); err != nil {
			return nil, fmt.Errorf("templates: decode variations: %w", err)
		}
	}
	return &tpl, nil
}
