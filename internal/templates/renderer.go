package templates

import (
	"math/rand"
	"strings"

	"github.com/zapleads/zapleads/internal/leads"
)

// SenderContext carries the prospector's own identity, substituted into
// placeholders alongside the lead's fields.
type SenderContext struct {
	Company  string
	Name     string
	Category string
}

// Pick chooses uniformly at random one variation with a non-empty body.
// When every variation is empty it falls back to the legacy single-message
// field; when that is empty too it returns ErrNoUsableContent.
// Deterministic for a fixed rng.
func Pick(rng *rand.Rand, tpl *Template) (string, error) {
	usable := tpl.UsableVariations()
	if len(usable) == 0 {
		if body := strings.TrimSpace(tpl.Message); body != "" {
			return tpl.Message, nil
		}
		return "", ErrNoUsableContent
	}
	return usable[rng.Intn(len(usable))].Body, nil
}

// Render replaces every recognized {{token}} occurrence with the matching
// lead or sender field. Substitution never fails: absent fields render as a
// neutral fallback or empty string, and unrecognized tokens stay verbatim.
func Render(body string, lead *leads.Lead, sender SenderContext) string {
	contact := strings.TrimSpace(lead.ContactName)
	if contact == "" {
		contact = lead.Company
	}
	replacer := strings.NewReplacer(
		"{{empresa}}", lead.Company,
		"{{contato}}", contact,
		"{{categoria}}", lead.Category,
		"{{cidade}}", lead.City,
		"{{minha_empresa}}", sender.Company,
		"{{meu_nome}}", sender.Name,
		"{{minha_categoria}}", sender.Category,
		"{{lead_id}}", lead.ID,
	)
	return replacer.Replace(body)
}

// RenderForLead picks a variation and renders it for the given lead.
func RenderForLead(rng *rand.Rand, tpl *Template, lead *leads.Lead, sender SenderContext) (string, error) {
	body, err := Pick(rng, tpl)
	if err != nil {
		return "", err
	}
	return Render(body, lead, sender), nil
}
