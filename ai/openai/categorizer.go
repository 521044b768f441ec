package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dragnet-io/dragnet/ai"
)

// Categorizer implements ai.Categorizer using OpenAI-compatible chat APIs.
// Malformed model output falls back to the heuristic rules rather than
// failing the caller.
type Categorizer struct {
	client    llms.Model
	heuristic *ai.HeuristicCategorizer
	logger    *slog.Logger
}

// newCategorizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCategorizer(config *ai.Config) (*Categorizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.CategorizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Categorizer{
		client:    client,
		heuristic: ai.NewHeuristicCategorizer(),
		logger:    slog.Default().With("component", "openai-categorizer"),
	}, nil
}

// NewCategorizer creates a new categorizer using the provided configuration.
//
// Returns ai.Categorizer interface to enforce abstraction.
func NewCategorizer(config *ai.Config) (ai.Categorizer, error) {
	return newCategorizer(config)
}

const systemPrompt = `You classify web search results. Reply with exactly one
lowercase word from this list and nothing else:
news, academic, social, forum, book, code, document, image, video, general`

// Categorize asks the model for a single label from the closed category set.
func (c *Categorizer) Categorize(ctx context.Context, title, snippet, url string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("URL: %s\nTitle: %s\nSnippet: %s", url, title, snippet)),
			},
		},
	}

	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", err
	}

	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return c.heuristic.Categorize(ctx, title, snippet, url)
	}

	label := strings.ToLower(strings.TrimSpace(response.Choices[0].Content))
	label = strings.Trim(label, `."'`)
	if !ai.ValidCategory(label) {
		c.logger.Warn("model returned label outside the category set", "label", label)
		return c.heuristic.Categorize(ctx, title, snippet, url)
	}

	return label, nil
}
