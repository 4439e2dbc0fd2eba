package enrichment

import (
	"context"
	"log/slog"
	"strings"

	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/services"
	"misa/internal/services/llm"
)

// Completer is the subset of the chat client the generator needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMGenerator implements Port over a JSON chat completion endpoint.
type LLMGenerator struct {
	client Completer
	logger *slog.Logger
}

// NewLLMGenerator wraps client. A nil logger discards output.
func NewLLMGenerator(client Completer, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLMGenerator{client: client, logger: logger}
}

type generatedResponse struct {
	Language string      `json:"language"`
	Sections []Generated `json:"sections"`
}

// Generate asks the model for the four generated sections. The result is
// decoded but not validated; Apply does that.
func (g *LLMGenerator) Generate(ctx context.Context, readings Readings) ([]Generated, error) {
	if g == nil || g.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "generate", "llm client unavailable", nil)
	}
	content, err := g.client.CompleteJSON(ctx, SystemPrompt, UserPrompt(readings))
	if err != nil {
		return nil, services.Wrap(services.ErrEnrichment, "enrichment", "generate", "llm request failed", err)
	}
	var resp generatedResponse
	if err := llm.DecodeLLMJSON(content, &resp); err != nil {
		return nil, services.Wrap(services.ErrEnrichment, "enrichment", "generate", "decode llm response", err)
	}
	for i := range resp.Sections {
		resp.Sections[i].ID = manifestID(resp.Sections[i].ID)
	}
	g.logger.Debug("enrichment response decoded",
		logging.String(logging.FieldEventType, "enrichment_decoded"),
		logging.Int("sections", len(resp.Sections)),
		logging.String("language", resp.Language),
	)
	return resp.Sections, nil
}

func manifestID(id manifest.SectionID) manifest.SectionID {
	return manifest.SectionID(strings.ToLower(strings.TrimSpace(string(id))))
}
