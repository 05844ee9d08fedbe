package templates

import (
	"errors"
	"strings"
	"time"
)

// VariationStyle tags the register of a message variation.
type VariationStyle string

const (
	StyleFormal VariationStyle = "formal"
	StyleCasual VariationStyle = "casual"
	StyleDirect VariationStyle = "direto"
)

// Variation is one stylistic rendition of a template body.
type Variation struct {
	Style VariationStyle `json:"style"`
	Body  string         `json:"body"`
}

// Template is a named, categorized set of up to three message variations.
// Protected templates ship with the product and cannot be edited or deleted.
type Template struct {
	ID         string      `json:"id"`
	OrgID      string      `json:"org_id"`
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Protected  bool        `json:"protected"`
	Variations []Variation `json:"variations"`
	// Message is the legacy single-body field kept for templates created
	// before variations existed.
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNoUsableContent is returned when no variation has a non-empty body
	// and no legacy message exists either.
	ErrNoUsableContent = errors.New("templates: no usable content")

	// ErrTemplateProtected is returned on attempts to modify a protected template.
	ErrTemplateProtected = errors.New("templates: template is protected")

	// ErrTemplateNotFound is returned when a template does not exist.
	ErrTemplateNotFound = errors.New("templates: template not found")

	// ErrInvalidTemplate is returned when a template fails validation.
	ErrInvalidTemplate = errors.New("templates: invalid template")
)

// UsableVariations returns the variations whose body is non-empty.
func (t *Template) UsableVariations() []Variation {
	out := make([]Variation, 0, len(t.Variations))
	for _, v := range t.Variations {
		if strings.TrimSpace(v.Body) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Usable reports whether the template can be dispatched at all.
func (t *Template) Usable() bool {
	if len(t.UsableVariations()) > 0 {
		return true
	}
	return strings.TrimSpace(t.Message) != ""
}

// Validate checks the template before persistence.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTemplate
	}
	if len(t.Variations) > 3 {
		return ErrInvalidTemplate
	}
	return nil
}
