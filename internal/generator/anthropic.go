package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pbaille/contentforge/internal/domain"
)

const (
	anthropicAPI     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
	variationCount   = 3
)

const systemPrompt = "És um copywriter sénior de social media a trabalhar para gestores de marca exigentes."

// Anthropic generates variants through the Anthropic Messages API
type Anthropic struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// AnthropicOption configures an Anthropic generator
type AnthropicOption func(*Anthropic)

// WithModel overrides the model name
func WithModel(model string) AnthropicOption {
	return func(a *Anthropic) {
		if model != "" {
			a.model = model
		}
	}
}

// WithEndpoint overrides the messages endpoint, used by tests
func WithEndpoint(url string) AnthropicOption {
	return func(a *Anthropic) { a.endpoint = url }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) AnthropicOption {
	return func(a *Anthropic) { a.client = c }
}

// NewAnthropic creates a generator for the given API key
func NewAnthropic(apiKey string, opts ...AnthropicOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	a := &Anthropic{
		apiKey:   apiKey,
		model:    defaultModel,
		endpoint: anthropicAPI,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate asks the model for caption variations
func (a *Anthropic) Generate(ctx context.Context, b Brief) ([]domain.Variant, error) {
	prompt := buildPrompt(b)

	resp, err := a.callAPI(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	variants, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variations in response")
	}
	return Normalize(variants), nil
}

func buildPrompt(b Brief) string {
	var sb strings.Builder

	goal := b.Goal
	if goal == "" {
		goal = "não especificado"
	}
	extra := b.Extra
	if extra == "" {
		extra = "nenhuma informação extra"
	}

	sb.WriteString("Quero que cries VARIAÇÕES de legendas para redes sociais em PT-PT.\n\n")
	fmt.Fprintf(&sb, "Marca: %s\n", b.Brand)
	fmt.Fprintf(&sb, "Nicho: %s\n", b.Niche)
	fmt.Fprintf(&sb, "Plataforma: %s\n", b.Platform)
	fmt.Fprintf(&sb, "Tom de voz: %s\n", toneDescription(b.Tone))
	fmt.Fprintf(&sb, "Modo de copy: %s\n", copyModeDescription(b.CopyMode))
	fmt.Fprintf(&sb, "Objetivo de hoje: %s\n", goal)
	fmt.Fprintf(&sb, "Informação extra relevante: %s\n", extra)
	fmt.Fprintf(&sb, "Plano: %s\n", b.Plan)

	if strings.EqualFold(b.Plan, "Pro") {
		sb.WriteString("Estás no modo PRO: assume que o utilizador é exigente, evita frases vagas, ")
		sb.WriteString("cria algo que ele consiga literalmente copiar e colar num post real.\n")
	} else {
		sb.WriteString("Estás no modo Starter: mantém uma copy boa mas sem exagerar na complexidade.\n")
	}

	if b.Reference != "" {
		sb.WriteString("\nTexto de referência da marca (usa só como contexto):\n")
		sb.WriteString(b.Reference)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `
REGRAS MUITO IMPORTANTES:
- NÃO repitas literalmente as frases que o utilizador escreveu no objetivo ou informação extra.
- Frases curtas, respiráveis, fáceis de ler no telemóvel.
- Usa EMOJIS com intenção (no máximo 3-4 por legenda).
- Inclui SEMPRE um CTA claro no fim.
- Adapta o estilo à plataforma (Instagram = mais visual/emocional, TikTok = ritmo e gancho forte).

Quero exatamente %d variações (A, B, C), cada uma com:
- "title": título curto para o Planner (máx. %d caracteres)
- "caption": texto completo pronto a colar
- "hashtags": lista com 10 a 15 hashtags relevantes
- "cta": frase final de chamada à ação (também incluída na legenda)
- "angle": descrição rápida do ângulo criativo

Responde APENAS em JSON com a estrutura:
{
  "variations": [
    {"id": "A", "title": "...", "caption": "...", "hashtags": ["#exemplo"], "cta": "...", "angle": "..."}
  ]
}`, variationCount, MaxTitleLength)

	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: 2048,
		System:    systemPrompt,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	for _, c := range apiResp.Content {
		if c.Type == "text" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("empty response")
}

type generationResult struct {
	Variations []domain.Variant `json:"variations"`
}

func parseResponse(resp string) ([]domain.Variant, error) {
	// Clean up response - remove markdown code blocks if present
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var result generationResult
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("parse json: %w (response: %s)", err, resp)
	}

	return result.Variations, nil
}
