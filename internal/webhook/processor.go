package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapleads/zapleads/internal/events"
	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/messaging/evolution"
	"github.com/zapleads/zapleads/internal/observability/metrics"
	"github.com/zapleads/zapleads/internal/templates"
	"github.com/zapleads/zapleads/internal/tenants"
	"github.com/zapleads/zapleads/internal/transcript"
)

// OutcomeStatus classifies what the processor did with an event.
type OutcomeStatus string

const (
	StatusReplied   OutcomeStatus = "replied"
	StatusIgnored   OutcomeStatus = "ignored"
	StatusUnmatched OutcomeStatus = "unmatched"
)

// Ignore reasons.
const (
	ReasonSelfMessage = "self_message"
	ReasonNoText      = "no_text"
	ReasonDuplicate   = "duplicate"
	ReasonOtherEvent  = "other_event"
)

// Outcome is the result of processing one envelope.
type Outcome struct {
	Status      OutcomeStatus
	Reason      string
	Lead        *leads.Lead
	Response    string
	AIGenerated bool
}

type leadFinder interface {
	FindByPhone(ctx context.Context, orgID, phone string) (*leads.Lead, error)
	MarkConversationActive(ctx context.Context, orgID, id string) error
}

type transcriptStore interface {
	Append(ctx context.Context, turn *transcript.Turn) error
	Recent(ctx context.Context, leadID string, n int) ([]transcript.Turn, error)
	HasProviderMessage(ctx context.Context, providerMessageID string) (bool, error)
}

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

type replyGenerator interface {
	Generate(ctx context.Context, lead *leads.Lead, turns []transcript.Turn, sender templates.SenderContext) (string, bool)
}

type textSender interface {
	SendText(ctx context.Context, req evolution.SendTextRequest) (*evolution.SendTextResponse, error)
}

type gatewayResolver interface {
	SenderFor(baseURL, apiKey, instance string) (evolution.Sender, error)
}

type tenantResolver interface {
	ByInstance(ctx context.Context, instance string) (*tenants.Settings, error)
}

// ProcessorConfig wires a Processor.
type ProcessorConfig struct {
	Leads       leadFinder
	Transcripts transcriptStore
	// Processed is the fast-path dedup tracker. Optional: without it the
	// transcript's provider message index still catches duplicates.
	Processed processedTracker
	Reply     replyGenerator
	// Gateway sends replies when no resolver is configured.
	Gateway textSender
	// Gateways resolves the tenant's own gateway binding per event.
	// Optional: without it every reply goes through Gateway.
	Gateways gatewayResolver
	Tenants  tenantResolver
	// ContextTurnLimit caps how much history feeds the reply generator.
	ContextTurnLimit int
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

// Processor applies the inbound event pipeline: resolve the tenant and lead,
// append the inbound turn, generate and send a reply, and move the lead into
// conversation.
type Processor struct {
	leads       leadFinder
	transcripts transcriptStore
	processed   processedTracker
	reply       replyGenerator
	gateway     textSender
	gateways    gatewayResolver
	tenants     tenantResolver
	turnLimit   int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewProcessor validates the wiring and builds a Processor.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if cfg.Leads == nil {
		return nil, errors.New("webhook: lead repository is required")
	}
	if cfg.Transcripts == nil {
		return nil, errors.New("webhook: transcript store is required")
	}
	if cfg.Reply == nil {
		return nil, errors.New("webhook: reply generator is required")
	}
	if cfg.Gateway == nil && cfg.Gateways == nil {
		return nil, errors.New("webhook: a gateway client or resolver is required")
	}
	if cfg.Tenants == nil {
		return nil, errors.New("webhook: tenant resolver is required")
	}
	turnLimit := cfg.ContextTurnLimit
	if turnLimit <= 0 {
		turnLimit = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		leads:       cfg.Leads,
		transcripts: cfg.Transcripts,
		processed:   cfg.Processed,
		reply:       cfg.Reply,
		gateway:     cfg.Gateway,
		gateways:    cfg.Gateways,
		tenants:     cfg.Tenants,
		turnLimit:   turnLimit,
		logger:      logger,
		metrics:     cfg.Metrics,
		now:         time.Now,
	}, nil
}

// Process runs one envelope through the pipeline. Only the reply path
// returns errors: filtered events and unknown senders come back as benign
// outcomes so the gateway gets a 200 and stops retrying.
func (p *Processor) Process(ctx context.Context, env *Envelope) (*Outcome, error) {
	start := p.now()
	outcome, err := p.process(ctx, env)
	if err == nil {
		p.metrics.ObserveWebhook(string(outcome.Status), p.now().Sub(start))
	} else {
		p.metrics.ObserveWebhook("error", p.now().Sub(start))
	}
	return outcome, err
}

func (p *Processor) process(ctx context.Context, env *Envelope) (*Outcome, error) {
	if env.Event != "" && env.Event != EventMessagesUpsert {
		return &Outcome{Status: StatusIgnored, Reason: ReasonOtherEvent}, nil
	}
	if env.Data.Key.FromMe {
		return &Outcome{Status: StatusIgnored, Reason: ReasonSelfMessage}, nil
	}
	text := env.Text()
	if text == "" {
		return &Outcome{Status: StatusIgnored, Reason: ReasonNoText}, nil
	}

	msgID := env.Data.Key.ID
	if dup, err := p.isDuplicate(ctx, msgID); err != nil {
		return nil, err
	} else if dup {
		return &Outcome{Status: StatusIgnored, Reason: ReasonDuplicate}, nil
	}

	tenant, err := p.tenants.ByInstance(ctx, env.Instance)
	if err != nil {
		return nil, fmt.Errorf("webhook: resolve tenant: %w", err)
	}

	phone := env.Phone()
	lead, err := p.leads.FindByPhone(ctx, tenant.OrgID, phone)
	if errors.Is(err, leads.ErrLeadNotFound) {
		p.logger.Info("inbound message from unknown sender", "phone", phone, "instance", env.Instance)
		return &Outcome{Status: StatusUnmatched}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: find lead: %w", err)
	}

	// The inbound turn is committed before any reply work and stays on
	// record even if everything after it fails.
	inbound := &transcript.Turn{
		LeadID:            lead.ID,
		Text:              text,
		FromLead:          true,
		ProviderMessageID: msgID,
		CreatedAt:         env.Timestamp(),
	}
	if err := p.transcripts.Append(ctx, inbound); err != nil {
		return nil, err
	}
	if p.processed != nil && msgID != "" {
		if _, err := p.processed.MarkProcessed(ctx, events.ProviderWhatsApp, msgID); err != nil {
			p.logger.Error("failed to mark event processed", "error", err, "event_id", msgID)
		}
	}

	turns, err := p.transcripts.Recent(ctx, lead.ID, p.turnLimit)
	if err != nil {
		p.logger.Warn("transcript load failed, replying with inbound only", "lead_id", lead.ID, "error", err)
		turns = []transcript.Turn{*inbound}
	}

	response, aiGenerated := p.reply.Generate(ctx, lead, turns, templates.SenderContext{
		Company:  tenant.SenderCompany,
		Name:     tenant.SenderName,
		Category: tenant.SenderCategory,
	})

	sender, err := p.senderFor(tenant, env.Instance)
	if err != nil {
		return nil, err
	}
	if _, err := sender.SendText(ctx, evolution.SendTextRequest{Number: phone, Text: response}); err != nil {
		p.metrics.IncOutboundSend("failed")
		return nil, fmt.Errorf("webhook: send reply: %w", err)
	}
	p.metrics.IncOutboundSend("sent")

	if err := p.transcripts.Append(ctx, &transcript.Turn{
		LeadID:      lead.ID,
		Text:        response,
		FromLead:    false,
		AIGenerated: aiGenerated,
	}); err != nil {
		p.logger.Error("failed to record outbound turn", "lead_id", lead.ID, "error", err)
	}
	if err := p.leads.MarkConversationActive(ctx, tenant.OrgID, lead.ID); err != nil {
		p.logger.Error("failed to flip lead status", "lead_id", lead.ID, "error", err)
	}

	return &Outcome{
		Status:      StatusReplied,
		Lead:        lead,
		Response:    response,
		AIGenerated: aiGenerated,
	}, nil
}

// senderFor picks the gateway for this tenant: the resolver builds a client
// from the tenant's own binding, and the default client covers deployments
// without one.
func (p *Processor) senderFor(tenant *tenants.Settings, instance string) (textSender, error) {
	if p.gateways == nil {
		return p.gateway, nil
	}
	sender, err := p.gateways.SenderFor(tenant.GatewayBaseURL, tenant.GatewayAPIKey, instance)
	if err != nil {
		return nil, fmt.Errorf("webhook: tenant gateway: %w", err)
	}
	return sender, nil
}

func (p *Processor) isDuplicate(ctx context.Context, msgID string) (bool, error) {
	if msgID == "" {
		return false, nil
	}
	if p.processed != nil {
		seen, err := p.processed.AlreadyProcessed(ctx, events.ProviderWhatsApp, msgID)
		if err != nil {
			return false, fmt.Errorf("webhook: processed lookup: %w", err)
		}
		if seen {
			return true, nil
		}
	}
	seen, err := p.transcripts.HasProviderMessage(ctx, msgID)
	if err != nil {
		return false, err
	}
	return seen, nil
}
