// Package dispatch runs outbound WhatsApp batches over selected leads.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/messaging/evolution"
	"github.com/zapleads/zapleads/internal/observability/metrics"
	"github.com/zapleads/zapleads/internal/templates"
)

var (
	// ErrNoLeads means the request resolved to zero known leads.
	ErrNoLeads = errors.New("dispatch: no leads to process")
	// ErrEditedMessageAmbiguous rejects a message override over multiple leads.
	ErrEditedMessageAmbiguous = errors.New("dispatch: edited message requires exactly one eligible lead")
)

type leadStore interface {
	ListByIDs(ctx context.Context, orgID string, ids []string) ([]*leads.Lead, error)
	MarkSent(ctx context.Context, orgID, id string, sentAt time.Time, message string) error
	MarkSendFailed(ctx context.Context, orgID, id string) error
}

type templateStore interface {
	GetByID(ctx context.Context, orgID, id string) (*templates.Template, error)
}

type textSender interface {
	SendText(ctx context.Context, req evolution.SendTextRequest) (*evolution.SendTextResponse, error)
}

// pacer spaces consecutive sends. Production uses rate.Limiter; tests swap in
// a no-op.
type pacer interface {
	Wait(ctx context.Context) error
}

type noopPacer struct{}

func (noopPacer) Wait(context.Context) error { return nil }

// Notifier receives the run summary after a batch finishes.
type Notifier interface {
	NotifyDispatchFinished(ctx context.Context, summary *Summary)
}

// Config wires an Engine.
type Config struct {
	Leads     leadStore
	Templates templateStore
	Gateway   textSender
	Sender    templates.SenderContext
	Rand      *rand.Rand
	SendDelay time.Duration
	// SendTimeout bounds a single gateway call; an expired send counts as
	// failed, never retried.
	SendTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Notifier    Notifier
}

// Engine sends one batch at a time, strictly sequentially.
type Engine struct {
	leads       leadStore
	templates   templateStore
	gateway     textSender
	sender      templates.SenderContext
	rng         *rand.Rand
	pacer       pacer
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	notifier    Notifier
	now         func() time.Time
}

// NewEngine validates the wiring and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Leads == nil {
		return nil, errors.New("dispatch: lead store is required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("dispatch: gateway client is required")
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	var p pacer = noopPacer{}
	if cfg.SendDelay > 0 {
		p = rate.NewLimiter(rate.Every(cfg.SendDelay), 1)
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		leads:       cfg.Leads,
		templates:   cfg.Templates,
		gateway:     cfg.Gateway,
		sender:      cfg.Sender,
		rng:         rng,
		pacer:       p,
		sendTimeout: timeout,
		logger:      logger,
		metrics:     cfg.Metrics,
		notifier:    cfg.Notifier,
		now:         time.Now,
	}, nil
}

// RunRequest selects the batch.
type RunRequest struct {
	OrgID      string
	LeadIDs    []string
	TemplateID string
	// EditedMessage replaces the rendered body. Only valid when the batch
	// resolves to exactly one eligible lead; the sent text is persisted on
	// the lead.
	EditedMessage string
	// Force re-sends leads already marked sent.
	Force bool
}

type workItem struct {
	lead *leads.Lead
	body string
}

// Run processes the batch sequentially: eligibility filter, per-lead message
// rendering, paced single-attempt sends, and per-lead persistence. A failed
// send never aborts the rest of the batch; a cancelled context stops before
// the next send and leaves remaining leads untouched.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*Summary, error) {
	summary := &Summary{StartedAt: e.now().UTC()}
	e.metrics.IncDispatchRun()

	batch, err := e.leads.ListByIDs(ctx, req.OrgID, req.LeadIDs)
	if err != nil {
		return nil, fmt.Errorf("dispatch: load leads: %w", err)
	}
	if len(batch) == 0 {
		return nil, ErrNoLeads
	}
	summary.Total = len(batch)

	var tpl *templates.Template
	if req.TemplateID != "" {
		if e.templates == nil {
			return nil, errors.New("dispatch: template store not configured")
		}
		tpl, err = e.templates.GetByID(ctx, req.OrgID, req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("dispatch: load template: %w", err)
		}
	}

	eligible := e.filter(batch, tpl, req.Force, summary)
	if req.EditedMessage != "" {
		if len(eligible) != 1 {
			return nil, ErrEditedMessageAmbiguous
		}
		eligible[0].body = req.EditedMessage
	}

	for i, item := range eligible {
		if ctx.Err() != nil {
			summary.Cancelled = true
			e.recordRemaining(summary, eligible[i:])
			break
		}
		if err := e.pacer.Wait(ctx); err != nil {
			summary.Cancelled = true
			e.recordRemaining(summary, eligible[i:])
			break
		}
		summary.record(e.sendOne(ctx, req.OrgID, item))
	}

	summary.FinishedAt = e.now().UTC()
	e.logger.Info("dispatch run finished",
		"org_id", req.OrgID,
		"total", summary.Total,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"cancelled", summary.Cancelled,
	)
	if e.notifier != nil {
		e.notifier.NotifyDispatchFinished(context.WithoutCancel(ctx), summary)
	}
	return summary, nil
}

// filter applies eligibility rules and renders each eligible lead's message
// up front, so a render problem surfaces as a skip instead of a mid-batch
// failure.
func (e *Engine) filter(batch []*leads.Lead, tpl *templates.Template, force bool, summary *Summary) []workItem {
	var eligible []workItem
	for _, lead := range batch {
		if lead.Phone == "" {
			summary.record(skipResult(lead, SkipMissingPhone))
			e.metrics.IncDispatchLead(string(StateSkipped))
			continue
		}
		if lead.DispatchStatus == leads.DispatchSent && !force {
			summary.record(skipResult(lead, SkipAlreadySent))
			e.metrics.IncDispatchLead(string(StateSkipped))
			continue
		}
		body, err := e.messageFor(tpl, lead)
		if err != nil || body == "" {
			summary.record(skipResult(lead, SkipMissingMessage))
			e.metrics.IncDispatchLead(string(StateSkipped))
			continue
		}
		eligible = append(eligible, workItem{lead: lead, body: body})
	}
	return eligible
}

func (e *Engine) messageFor(tpl *templates.Template, lead *leads.Lead) (string, error) {
	if tpl != nil {
		return templates.RenderForLead(e.rng, tpl, lead, e.sender)
	}
	// No template selected: fall back to the message stored on the lead.
	if lead.Message == "" {
		return "", templates.ErrNoUsableContent
	}
	return templates.Render(lead.Message, lead, e.sender), nil
}

func (e *Engine) sendOne(ctx context.Context, orgID string, item workItem) Result {
	res := Result{LeadID: item.lead.ID, Company: item.lead.Company, State: StateSending}

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	resp, err := e.gateway.SendText(sendCtx, evolution.SendTextRequest{
		Number: item.lead.Phone,
		Text:   item.body,
	})
	cancel()

	// Persistence must survive a batch cancellation that lands mid-send.
	persistCtx := context.WithoutCancel(ctx)
	if err != nil {
		res.State = StateFailed
		res.Error = err.Error()
		e.metrics.IncOutboundSend("failed")
		e.metrics.IncDispatchLead(string(StateFailed))
		e.logger.Warn("dispatch send failed", "lead_id", item.lead.ID, "error", err)
		if markErr := e.leads.MarkSendFailed(persistCtx, orgID, item.lead.ID); markErr != nil {
			e.logger.Error("dispatch mark failed", "lead_id", item.lead.ID, "error", markErr)
		}
		return res
	}

	sentAt := e.now().UTC()
	res.State = StateSent
	res.MessageID = resp.MessageID
	res.SentAt = &sentAt
	e.metrics.IncOutboundSend("sent")
	e.metrics.IncDispatchLead(string(StateSent))
	if markErr := e.leads.MarkSent(persistCtx, orgID, item.lead.ID, sentAt, item.body); markErr != nil {
		e.logger.Error("dispatch mark sent", "lead_id", item.lead.ID, "error", markErr)
	}
	return res
}

func (e *Engine) recordRemaining(summary *Summary, remaining []workItem) {
	for _, item := range remaining {
		summary.Results = append(summary.Results, Result{
			LeadID:  item.lead.ID,
			Company: item.lead.Company,
			State:   StatePending,
		})
	}
}

func skipResult(lead *leads.Lead, reason SkipReason) Result {
	return Result{LeadID: lead.ID, Company: lead.Company, State: StateSkipped, SkipReason: reason}
}

// TestSendRequest describes a sandboxed single send.
type TestSendRequest struct {
	OrgID      string
	Number     string
	TemplateID string
	Message    string
	SampleLead *leads.Lead
}

// TestSend renders and sends one message to an arbitrary number without
// touching any lead record.
func (e *Engine) TestSend(ctx context.Context, req TestSendRequest) (string, error) {
	if req.Number == "" {
		return "", errors.New("dispatch: destination number is required")
	}
	sample := req.SampleLead
	if sample == nil {
		sample = &leads.Lead{Company: "Empresa Exemplo", Category: "exemplo", City: "São Paulo"}
	}

	var body string
	switch {
	case req.Message != "":
		body = templates.Render(req.Message, sample, e.sender)
	case req.TemplateID != "":
		if e.templates == nil {
			return "", errors.New("dispatch: template store not configured")
		}
		tpl, err := e.templates.GetByID(ctx, req.OrgID, req.TemplateID)
		if err != nil {
			return "", fmt.Errorf("dispatch: load template: %w", err)
		}
		body, err = templates.RenderForLead(e.rng, tpl, sample, e.sender)
		if err != nil {
			return "", err
		}
	default:
		return "", errors.New("dispatch: message or template is required")
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()
	if _, err := e.gateway.SendText(sendCtx, evolution.SendTextRequest{Number: req.Number, Text: body}); err != nil {
		e.metrics.IncOutboundSend("failed")
		return "", err
	}
	e.metrics.IncOutboundSend("sent")
	return body, nil
}
