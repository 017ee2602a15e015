// Package generator produces caption variants for a content brief.
package generator

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pbaille/contentforge/internal/domain"
)

// Brief describes what the user wants to post
type Brief struct {
	Brand     string          `json:"brand"`
	Niche     string          `json:"niche"`
	Tone      string          `json:"tone"`
	Platform  domain.Platform `json:"platform"`
	CopyMode  domain.CopyMode `json:"copy_mode"`
	Goal      string          `json:"goal"`
	Extra     string          `json:"extra"`
	Plan      string          `json:"plan"`
	Reference string          `json:"reference,omitempty"`
}

// Generator turns a brief into a batch of variants
type Generator interface {
	Generate(ctx context.Context, b Brief) ([]domain.Variant, error)
}

// Tones accepted in a brief
var Tones = []string{"profissional", "premium", "emocional", "casual"}

// CopyModes accepted in a brief
var CopyModes = []domain.CopyMode{domain.CopyModeSales, domain.CopyModeStorytelling, domain.CopyModeEducational}

// MaxTitleLength bounds variant titles, in characters
const MaxTitleLength = 60

// Normalize cleans up a raw batch in place: trims text, bounds titles,
// prefixes hashtags with a single '#' and fills missing ids.
func Normalize(variants []domain.Variant) []domain.Variant {
	seen := make(map[string]bool, len(variants))
	for i := range variants {
		v := &variants[i]
		v.ID = strings.ToUpper(strings.TrimSpace(v.ID))
		if v.ID == "" || seen[v.ID] {
			v.ID = nextID(seen)
		}
		seen[v.ID] = true

		v.Title = truncate(strings.TrimSpace(v.Title), MaxTitleLength)
		v.Caption = strings.TrimSpace(v.Caption)
		v.CTA = strings.TrimSpace(v.CTA)
		v.Angle = strings.TrimSpace(v.Angle)

		tags := make([]string, 0, len(v.Hashtags))
		for _, h := range v.Hashtags {
			h = strings.TrimLeft(strings.TrimSpace(h), "#")
			if h == "" {
				continue
			}
			tags = append(tags, "#"+h)
		}
		v.Hashtags = tags
		v.Metrics = nil
		v.Recommended = false
	}
	return variants
}

func nextID(seen map[string]bool) string {
	for c := 'A'; ; c++ {
		if id := string(c); !seen[id] {
			return id
		}
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-3])) + "..."
}

func toneDescription(tone string) string {
	switch tone {
	case "profissional":
		return "profissional, objetivo mas humano"
	case "premium":
		return "premium, elegante, com vocabulário cuidado"
	case "emocional":
		return "emocional, próximo e empático"
	case "casual":
		return "casual, descontraído, próximo de conversa"
	default:
		return "profissional, humano"
	}
}

func copyModeDescription(mode domain.CopyMode) string {
	switch mode {
	case domain.CopyModeSales:
		return "foco máximo em conversão e vendas"
	case domain.CopyModeStorytelling:
		return "foco em história e construção de relação"
	case domain.CopyModeEducational:
		return "foco em ensinar algo útil e prático"
	default:
		return "equilíbrio entre valor e vendas"
	}
}
