package reply

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/observability/metrics"
	"github.com/zapleads/zapleads/internal/templates"
	"github.com/zapleads/zapleads/internal/transcript"
)

// DefaultFallbackReply is sent whenever the model is unavailable or errors.
const DefaultFallbackReply = "Obrigado pela sua mensagem! Em breve um de nossos consultores entrará em contato."

// GeneratorConfig wires a Generator.
type GeneratorConfig struct {
	LLM       LLMClient
	ModelID   string
	MaxTokens int32
	Fallback  string
	Sender    templates.SenderContext
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Generator produces the outgoing reply for an inbound lead message. Model
// failures never surface to the caller: the fallback text goes out instead.
type Generator struct {
	llm       LLMClient
	modelID   string
	maxTokens int32
	fallback  string
	sender    templates.SenderContext
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewGenerator builds a Generator. LLM may be nil, in which case every reply
// is the fallback.
func NewGenerator(cfg GeneratorConfig) *Generator {
	fallback := strings.TrimSpace(cfg.Fallback)
	if fallback == "" {
		fallback = DefaultFallbackReply
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		llm:       cfg.LLM,
		modelID:   cfg.ModelID,
		maxTokens: maxTokens,
		fallback:  fallback,
		sender:    cfg.Sender,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Generate returns the reply text for the conversation so far. The turns
// must already include the inbound message as the newest entry. The sender
// identity comes from the tenant that received the message; a zero value
// falls back to the configured default. The second return value reports
// whether the text came from the model.
func (g *Generator) Generate(ctx context.Context, lead *leads.Lead, turns []transcript.Turn, sender templates.SenderContext) (string, bool) {
	if sender == (templates.SenderContext{}) {
		sender = g.sender
	}
	if g.llm == nil {
		g.metrics.IncReplyGeneration("fallback")
		return g.fallback, false
	}

	messages := chatMessages(turns)
	if len(messages) == 0 || messages[len(messages)-1].Role != ChatRoleUser {
		g.metrics.IncReplyGeneration("fallback")
		return g.fallback, false
	}

	resp, err := g.llm.Complete(ctx, LLMRequest{
		Model:       g.modelID,
		System:      buildSystemPrompt(lead, sender),
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		leadID := ""
		if lead != nil {
			leadID = lead.ID
		}
		g.logger.Warn("reply generation failed, using fallback", "lead_id", leadID, "error", err)
		g.metrics.IncReplyGeneration("fallback")
		return g.fallback, false
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		g.metrics.IncReplyGeneration("fallback")
		return g.fallback, false
	}
	g.metrics.IncReplyGeneration("ai")
	return text, true
}

// chatMessages maps conversation turns onto chat roles, skipping empty text.
func chatMessages(turns []transcript.Turn) []ChatMessage {
	out := make([]ChatMessage, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Text)
		if content == "" {
			continue
		}
		role := ChatRoleAssistant
		if turn.FromLead {
			role = ChatRoleUser
		}
		out = append(out, ChatMessage{Role: role, Content: content})
	}
	return out
}
