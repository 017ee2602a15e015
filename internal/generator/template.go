package generator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pbaille/contentforge/internal/domain"
)

// Template builds variants locally from fixed caption patterns.
// It needs no network access and returns the same batch for the same brief.
type Template struct{}

// NewTemplate creates the local generator
func NewTemplate() *Template {
	return &Template{}
}

// Generate fills three patterns (urgency, story, tips) with the brief
func (t *Template) Generate(ctx context.Context, b Brief) ([]domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	brand := fallback(b.Brand, "a nossa marca")
	goal := fallback(b.Goal, "as novidades desta semana")
	tags := hashtagsFor(b)

	cta := "Descobre tudo no link da bio."
	if b.Platform == domain.PlatformTikTok {
		cta = "Segue para veres a parte 2 e clica no link da bio."
	}

	offer := ""
	if b.Extra != "" {
		offer = " " + strings.TrimSpace(b.Extra)
	}

	variants := []domain.Variant{
		{
			ID:       "A",
			Title:    fmt.Sprintf("%s: %s", brand, goal),
			Caption:  fmt.Sprintf("⏳ Últimos dias! %s chegou à %s.%s\nNão deixes para amanhã. %s", capitalize(goal), brand, offer, cta),
			Hashtags: tags,
			CTA:      cta,
			Angle:    "urgência",
		},
		{
			ID:       "B",
			Title:    fmt.Sprintf("A história por trás de %s", goal),
			Caption:  fmt.Sprintf("Cada detalhe tem uma história. ✨\nNa %s, %s nasceu de muita dedicação e de quem nos acompanha desde o início.\nObrigado pela confiança. %s", brand, goal, cta),
			Hashtags: tags,
			CTA:      cta,
			Angle:    "bastidores",
		},
		{
			ID:       "C",
			Title:    fmt.Sprintf("3 dicas sobre %s", fallback(b.Niche, goal)),
			Caption:  fmt.Sprintf("💡 3 dicas rápidas de %s:\n1. Escolhe com calma.\n2. Combina com o que já tens.\n3. Guarda este post para mais tarde.\n%s", fallback(b.Niche, brand), cta),
			Hashtags: tags,
			CTA:      cta,
			Angle:    "educacional",
		},
	}

	// copy mode decides which angle leads the batch
	switch b.CopyMode {
	case domain.CopyModeStorytelling:
		variants[0], variants[1] = variants[1], variants[0]
	case domain.CopyModeEducational:
		variants[0], variants[2] = variants[2], variants[0]
	}
	for i := range variants {
		variants[i].ID = string(rune('A' + i))
		variants[i].Hashtags = append([]string(nil), tags...)
	}

	return Normalize(variants), nil
}

func hashtagsFor(b Brief) []string {
	words := []string{b.Brand, b.Niche, string(b.Platform)}
	tags := make([]string, 0, len(words)+2)
	seen := make(map[string]bool)
	for _, w := range words {
		tag := slug(w)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, "#"+tag)
	}
	return append(tags, "#novidades", "#comprarlocal")
}

func slug(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
