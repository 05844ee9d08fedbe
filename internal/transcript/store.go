// Package transcript persists the per-lead WhatsApp conversation history.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Turn is a single message in a lead's conversation, either from the lead or
// from the system (dispatched, AI-generated, or fallback).
type Turn struct {
	ID                string
	LeadID            string
	Text              string
	FromLead          bool
	AIGenerated       bool
	ProviderMessageID string
	CreatedAt         time.Time
}

// Store reads and writes conversation turns.
type Store struct {
	db *sql.DB
}

// NewStore wires the store to an open database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("transcript: db handle required")
	}
	return &Store{db: db}
}

// Append records one turn. The inbound turn of a webhook is appended before
// any reply work starts and is never rolled back if the reply fails.
func (s *Store) Append(ctx context.Context, turn *Turn) error {
	if turn == nil {
		return errors.New("transcript: nil turn")
	}
	if turn.LeadID == "" {
		return errors.New("transcript: lead id is required")
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO conversation_turns (id, lead_id, text, from_lead, ai_generated, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.db.ExecContext(ctx, query,
		turn.ID, turn.LeadID, turn.Text, turn.FromLead, turn.AIGenerated, turn.ProviderMessageID, turn.CreatedAt,
	); err != nil {
		return fmt.Errorf("transcript: append turn: %w", err)
	}
	return nil
}

// Recent returns the last n turns for the lead, oldest first, ready to feed
// into the reply generator as chat context.
func (s *Store) Recent(ctx context.Context, leadID string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	const query = `
		SELECT id, lead_id, text, from_lead, ai_generated, provider_message_id, created_at
		FROM conversation_turns
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, leadID, n)
	if err != nil {
		return nil, fmt.Errorf("transcript: load recent turns: %w", err)
	}
	defer rows.Close()

	var newestFirst []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.LeadID, &t.Text, &t.FromLead, &t.AIGenerated, &t.ProviderMessageID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("transcript: scan turn: %w", err)
		}
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: recent rows: %w", err)
	}

	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(newestFirst)-1-i] = t
	}
	return out, nil
}

// HasProviderMessage reports whether an inbound turn with the given provider
// message id is already on record.
func (s *Store) HasProviderMessage(ctx context.Context, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	const query = `SELECT 1 FROM conversation_turns WHERE provider_message_id = $1 LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, query, providerMessageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transcript: provider message lookup: %w", err)
	}
	return true, nil
}
