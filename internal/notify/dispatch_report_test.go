package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zapleads/zapleads/internal/dispatch"
)

type captureSender struct {
	msgs []EmailMessage
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestNotifyDispatchFinished(t *testing.T) {
	sender := &captureSender{}
	reporter := NewDispatchReporter(sender, "ops@zapleads.com.br", nil)

	summary := &dispatch.Summary{
		Total:      3,
		Sent:       1,
		Failed:     1,
		Skipped:    1,
		FinishedAt: time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC),
		Results: []dispatch.Result{
			{LeadID: "l1", Company: "Acme", State: dispatch.StateSent},
			{LeadID: "l2", Company: "Beta", State: dispatch.StateFailed, Error: "instance disconnected"},
			{LeadID: "l3", Company: "Gama", State: dispatch.StateSkipped, SkipReason: dispatch.SkipMissingPhone},
		},
	}
	reporter.NotifyDispatchFinished(context.Background(), summary)

	if len(sender.msgs) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.msgs))
	}
	msg := sender.msgs[0]
	if msg.To != "ops@zapleads.com.br" {
		t.Errorf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "1 enviados, 1 falhas") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Beta") || !strings.Contains(msg.Body, "instance disconnected") {
		t.Errorf("body missing failure details: %q", msg.Body)
	}
}

func TestNewDispatchReporterUnconfigured(t *testing.T) {
	if r := NewDispatchReporter(nil, "ops@zapleads.com.br", nil); r != nil {
		t.Error("expected nil reporter without sender")
	}
	if r := NewDispatchReporter(&captureSender{}, "", nil); r != nil {
		t.Error("expected nil reporter without recipient")
	}
	var r *DispatchReporter
	// A nil reporter must be safe to call.
	r.NotifyDispatchFinished(context.Background(), &dispatch.Summary{})
}
