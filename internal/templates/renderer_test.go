package templates

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/zapleads/zapleads/internal/leads"
)

func TestPickOnlyNonEmptyVariation(t *testing.T) {
	tpl := &Template{
		Variations: []Variation{
			{Style: StyleFormal, Body: ""},
			{Style: StyleCasual, Body: "Olá {{empresa}}"},
			{Style: StyleDirect, Body: ""},
		},
	}
	// Any seed must land on the single usable variation.
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		body, err := Pick(rng, tpl)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if body != "Olá {{empresa}}" {
			t.Fatalf("seed %d: expected casual variation, got %q", seed, body)
		}
	}
}

func TestPickUniformAmongUsable(t *testing.T) {
	tpl := &Template{
		Variations: []Variation{
			{Style: StyleFormal, Body: "a"},
			{Style: StyleCasual, Body: "b"},
			{Style: StyleDirect, Body: "c"},
		},
	}
	rng := rand.New(rand.NewSource(42))
	picked := map[string]int{}
	for i := 0; i < 300; i++ {
		body, err := Pick(rng, tpl)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		picked[body]++
	}
	for _, body := range []string{"a", "b", "c"} {
		if picked[body] == 0 {
			t.Errorf("variation %q was never picked", body)
		}
	}
}

func TestPickFallsBackToLegacyMessage(t *testing.T) {
	tpl := &Template{
		Variations: []Variation{{Style: StyleFormal, Body: "  "}},
		Message:    "corpo legado",
	}
	rng := rand.New(rand.NewSource(1))
	body, err := Pick(rng, tpl)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if body != "corpo legado" {
		t.Errorf("expected legacy message, got %q", body)
	}
}

func TestPickNoUsableContent(t *testing.T) {
	tpl := &Template{Variations: []Variation{{Body: ""}, {Body: "   "}}}
	rng := rand.New(rand.NewSource(1))
	if _, err := Pick(rng, tpl); !errors.Is(err, ErrNoUsableContent) {
		t.Fatalf("expected ErrNoUsableContent, got %v", err)
	}
}

func TestRenderSubstitutesAllRecognizedTokens(t *testing.T) {
	lead := &leads.Lead{
		ID:          "lead-1",
		Company:     "Acme",
		ContactName: "Maria",
		Category:    "padaria",
		City:        "Campinas",
	}
	sender := SenderContext{Company: "ZapLeads", Name: "Bruno", Category: "software"}

	body := "Oi {{contato}} da {{empresa}} ({{categoria}}, {{cidade}}), aqui é {{meu_nome}} da {{minha_empresa}} [{{lead_id}}]"
	got := Render(body, lead, sender)
	want := "Oi Maria da Acme (padaria, Campinas), aqui é Bruno da ZapLeads [lead-1]"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("recognized placeholders left in output: %q", got)
	}
}

func TestRenderMissingContactFallsBackToCompany(t *testing.T) {
	lead := &leads.Lead{Company: "Acme"}
	got := Render("Olá {{contato}}", lead, SenderContext{})
	if got != "Olá Acme" {
		t.Errorf("Render = %q, want fallback to company", got)
	}
}

func TestRenderLeavesUnrecognizedTokens(t *testing.T) {
	lead := &leads.Lead{Company: "Acme"}
	got := Render("{{empresa}} {{desconhecido}}", lead, SenderContext{})
	if got != "Acme {{desconhecido}}" {
		t.Errorf("unrecognized token must stay verbatim, got %q", got)
	}
}

func TestRenderForLeadScenario(t *testing.T) {
	tpl := &Template{
		Variations: []Variation{
			{Style: StyleFormal, Body: ""},
			{Style: StyleCasual, Body: "Olá {{empresa}}"},
			{Style: StyleDirect, Body: ""},
		},
	}
	lead := &leads.Lead{Company: "Acme"}
	rng := rand.New(rand.NewSource(7))
	got, err := RenderForLead(rng, tpl, lead, SenderContext{})
	if err != nil {
		t.Fatalf("RenderForLead: %v", err)
	}
	if got != "Olá Acme" {
		t.Errorf("RenderForLead = %q, want %q", got, "Olá Acme")
	}
}
