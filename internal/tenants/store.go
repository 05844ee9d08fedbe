// Package tenants maps gateway instances onto organizations and their
// sender identity.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTenantNotFound means no organization is bound to the instance.
var ErrTenantNotFound = errors.New("tenants: tenant not found")

// Settings is the per-organization gateway binding.
type Settings struct {
	OrgID          string
	Instance       string
	GatewayBaseURL string
	GatewayAPIKey  string
	SenderCompany  string
	SenderName     string
	SenderCategory string
	CreatedAt      time.Time
}

// Store resolves instances to tenant settings.
type Store interface {
	ByInstance(ctx context.Context, instance string) (*Settings, error)
	Upsert(ctx context.Context, settings *Settings) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps tenant settings in the relational database.
type PostgresStore struct {
	pool querier
}

func NewPostgresStore(pool querier) *PostgresStore {
	if pool == nil {
		panic("tenants: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

// ByInstance loads the settings bound to a gateway instance name.
func (s *PostgresStore) ByInstance(ctx context.Context, instance string) (*Settings, error) {
	const query = `
		SELECT org_id, instance, gateway_base_url, gateway_api_key,
		       sender_company, sender_name, sender_category, created_at
		FROM tenant_settings
		WHERE instance = $1
	`
	var out Settings
	err := s.pool.QueryRow(ctx, query, instance).Scan(
		&out.OrgID,
		&out.Instance,
		&out.GatewayBaseURL,
		&out.GatewayAPIKey,
		&out.SenderCompany,
		&out.SenderName,
		&out.SenderCategory,
		&out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenants: select by instance: %w", err)
	}
	return &out, nil
}

// Upsert binds (or rebinds) an instance to an organization.
func (s *PostgresStore) Upsert(ctx context.Context, settings *Settings) error {
	if settings == nil || settings.OrgID == "" || settings.Instance == "" {
		return errors.New("tenants: org id and instance are required")
	}
	const query = `
		INSERT INTO tenant_settings (org_id, instance, gateway_base_url, gateway_api_key,
		                             sender_company, sender_name, sender_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (instance) DO UPDATE SET
			org_id = EXCLUDED.org_id,
			gateway_base_url = EXCLUDED.gateway_base_url,
			gateway_api_key = EXCLUDED.gateway_api_key,
			sender_company = EXCLUDED.sender_company,
			sender_name = EXCLUDED.sender_name,
			sender_category = EXCLUDED.sender_category
	`
	if _, err := s.pool.Exec(ctx, query,
		settings.OrgID, settings.Instance, settings.GatewayBaseURL, settings.GatewayAPIKey,
		settings.SenderCompany, settings.SenderName, settings.SenderCategory,
	); err != nil {
		return fmt.Errorf("tenants: upsert: %w", err)
	}
	return nil
}

// StaticStore serves one fixed tenant, for single-org deployments configured
// entirely through the environment.
type StaticStore struct {
	settings Settings
}

func NewStaticStore(settings Settings) *StaticStore {
	return &StaticStore{settings: settings}
}

func (s *StaticStore) ByInstance(ctx context.Context, instance string) (*Settings, error) {
	copied := s.settings
	if instance != "" {
		copied.Instance = instance
	}
	return &copied, nil
}

func (s *StaticStore) Upsert(ctx context.Context, settings *Settings) error {
	return errors.New("tenants: static store is read-only")
}
