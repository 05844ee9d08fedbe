package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zapleads/zapleads/internal/dispatch"
	"github.com/zapleads/zapleads/pkg/logging"
)

// DispatchReporter emails an operator a summary after each dispatch run.
type DispatchReporter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewDispatchReporter returns nil when reporting is not configured, so the
// engine wiring can pass it straight through.
func NewDispatchReporter(sender EmailSender, to string, logger *logging.Logger) *DispatchReporter {
	if sender == nil || to == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DispatchReporter{sender: sender, to: to, logger: logger}
}

// NotifyDispatchFinished sends the run summary. Failures are logged and
// swallowed: reporting never affects dispatch results.
func (r *DispatchReporter) NotifyDispatchFinished(ctx context.Context, summary *dispatch.Summary) {
	if r == nil || summary == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	msg := EmailMessage{
		To:      r.to,
		Subject: fmt.Sprintf("Disparo finalizado: %d enviados, %d falhas", summary.Sent, summary.Failed),
		Body:    formatSummary(summary),
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		r.logger.Error("dispatch report email failed", "error", err)
	}
}

func formatSummary(summary *dispatch.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Disparo finalizado em %s.\n\n", summary.FinishedAt.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Total de leads: %d\n", summary.Total)
	fmt.Fprintf(&b, "Enviados: %d\n", summary.Sent)
	fmt.Fprintf(&b, "Falhas: %d\n", summary.Failed)
	fmt.Fprintf(&b, "Ignorados: %d\n", summary.Skipped)
	if summary.Cancelled {
		b.WriteString("\nO disparo foi interrompido antes de terminar.\n")
	}

	var failed []string
	for _, res := range summary.Results {
		if res.State == dispatch.StateFailed {
			failed = append(failed, fmt.Sprintf("- %s (%s): %s", res.Company, res.LeadID, res.Error))
		}
	}
	if len(failed) > 0 {
		b.WriteString("\nLeads com falha:\n")
		b.WriteString(strings.Join(failed, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
