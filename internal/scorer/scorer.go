// Package scorer evaluates captions with a deterministic keyword heuristic.
package scorer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pbaille/contentforge/internal/domain"
)

// Context carries the brief settings that influence scoring
type Context struct {
	Objective string
	CopyMode  domain.CopyMode
	Platform  domain.Platform
}

const (
	baseClarity     = 7.0
	baseConversion  = 6.0
	baseEngagement  = 6.0
	baseEmotion     = 6.0
	baseCredibility = 7.0
	basePlatformFit = 7.0
)

// Weights of the final score. They sum to 1.0.
const (
	conversionWeight  = 0.30
	engagementWeight  = 0.25
	clarityWeight     = 0.15
	platformFitWeight = 0.15
	emotionWeight     = 0.075
	credibilityWeight = 0.075
)

// Length window for clarity, in characters
const (
	idealMinLength = 80
	idealMaxLength = 260
	tooShort       = 60
	tooLong        = 400

	// tiktok captions read best short
	tiktokMaxLength = 150
)

var (
	offerTerms = []string{
		"desconto", "promo", "oferta", "cupão", "cupom", "saldos",
		"grátis", "gratis", "portes gratuitos", "discount", "sale", "free shipping",
	}
	callToActionTerms = []string{
		"clica", "clique", "compra", "descobre", "descubra", "envia mensagem",
		"link da bio", "link na bio", "reserva", "visita", "encomenda",
		"experimenta", "click", "shop now", "buy", "order now", "book now",
	}
	emotionTerms = []string{
		"história", "historia", "sentir", "sente", "amor", "confiança",
		"orgulho", "juntos", "coração", "emoção", "bastidores", "story",
		"love", "trust", "feel",
	}
)

// Score evaluates a caption. It never fails and always returns metrics in [0,10].
func Score(caption string, ctx Context) domain.ScoreResult {
	length := utf8.RuneCountInString(caption)
	lower := strings.ToLower(caption)

	hasOffer := containsAny(lower, offerTerms)
	hasCallToAction := containsAny(lower, callToActionTerms)
	hasEmotion := containsAny(lower, emotionTerms)

	r := domain.ScoreResult{
		Clarity:     baseClarity,
		Conversion:  baseConversion,
		Engagement:  baseEngagement,
		Emotion:     baseEmotion,
		Credibility: baseCredibility,
		PlatformFit: basePlatformFit,
	}

	switch {
	case length >= idealMinLength && length <= idealMaxLength:
		r.Clarity += 1.5
	case length < tooShort || length > tooLong:
		r.Clarity -= 1.5
	}

	if hasOffer {
		r.Conversion += 1.5
	}
	if hasCallToAction {
		r.Conversion += 1.5
	}
	if hasEmotion {
		r.Engagement += 1.5
		r.Emotion += 2.0
	}

	switch ctx.CopyMode {
	case domain.CopyModeStorytelling:
		r.Engagement += 1.0
		r.Emotion += 1.0
	case domain.CopyModeSales:
		r.Conversion += 1.0
	}

	switch ctx.Platform {
	case domain.PlatformTikTok:
		if length > 0 && length <= tiktokMaxLength {
			r.PlatformFit += 1.0
		}
	case domain.PlatformInstagram:
		if hasEmotion {
			r.PlatformFit += 0.5
		}
	}

	r.Clarity = clamp(r.Clarity)
	r.Conversion = clamp(r.Conversion)
	r.Engagement = clamp(r.Engagement)
	r.Emotion = clamp(r.Emotion)
	r.Credibility = clamp(r.Credibility)
	r.PlatformFit = clamp(r.PlatformFit)

	final := conversionWeight*r.Conversion +
		engagementWeight*r.Engagement +
		clarityWeight*r.Clarity +
		platformFitWeight*r.PlatformFit +
		emotionWeight*r.Emotion +
		credibilityWeight*r.Credibility
	r.Final = clamp(round1(final))

	return r
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
