package transcript

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestAppendInsertsTurn(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectExec(`INSERT INTO conversation_turns`).
		WithArgs(sqlmock.AnyArg(), "lead-1", "Quero saber mais", true, false, "wamid-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	turn := &Turn{LeadID: "lead-1", Text: "Quero saber mais", FromLead: true, ProviderMessageID: "wamid-1"}
	if err := store.Append(context.Background(), turn); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if turn.ID == "" {
		t.Error("Append must assign an id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAppendRequiresLead(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	if err := store.Append(context.Background(), &Turn{Text: "oi"}); err == nil {
		t.Fatal("expected error for missing lead id")
	}
}

func TestRecentReturnsOldestFirst(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "lead_id", "text", "from_lead", "ai_generated", "provider_message_id", "created_at"}).
		AddRow("t3", "lead-1", "terceira", true, false, "m3", base.Add(2*time.Minute)).
		AddRow("t2", "lead-1", "segunda", false, true, "", base.Add(time.Minute)).
		AddRow("t1", "lead-1", "primeira", true, false, "m1", base)
	mock.ExpectQuery(`SELECT (.+) FROM conversation_turns`).
		WithArgs("lead-1", 10).
		WillReturnRows(rows)

	turns, err := store.Recent(context.Background(), "lead-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Text != "primeira" || turns[2].Text != "terceira" {
		t.Errorf("turns not in chronological order: %q .. %q", turns[0].Text, turns[2].Text)
	}
	if !turns[1].AIGenerated {
		t.Error("second turn should carry the AI flag")
	}
}

func TestRecentZeroLimit(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	turns, err := store.Recent(context.Background(), "lead-1", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if turns != nil {
		t.Errorf("expected no query for zero limit, got %v", turns)
	}
}

func TestHasProviderMessage(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectQuery(`SELECT 1 FROM conversation_turns`).
		WithArgs("wamid-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	seen, err := store.HasProviderMessage(context.Background(), "wamid-1")
	if err != nil {
		t.Fatalf("HasProviderMessage: %v", err)
	}
	if !seen {
		t.Error("expected message to be found")
	}
}

func TestHasProviderMessageMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectQuery(`SELECT 1 FROM conversation_turns`).
		WithArgs("wamid-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	seen, err := store.HasProviderMessage(context.Background(), "wamid-2")
	if err != nil {
		t.Fatalf("HasProviderMessage: %v", err)
	}
	if seen {
		t.Error("expected message to be absent")
	}
}
