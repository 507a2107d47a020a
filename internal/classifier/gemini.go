package classifier

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when LLM_MODEL is not configured for the
// gemini provider.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClassifier runs the same classification contract against the
// Gemini API, selected with LLM_PROVIDER=gemini.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, stageContext string, history []Turn, question string) (Result, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))

	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(stageContext, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Result{}, fmt.Errorf("gemini: generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return Result{}, fmt.Errorf("gemini: empty response")
	}
	return parseEnvelope(text)
}
