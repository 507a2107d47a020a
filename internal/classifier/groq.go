package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	// DefaultModel is used when LLM_MODEL is not configured.
	DefaultModel = "llama-3.3-70b-versatile"

	temperature = 0.3
)

// GroqClassifier talks to Groq's OpenAI-compatible chat-completions API.
type GroqClassifier struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

func NewGroq(apiKey, model string) *GroqClassifier {
	if model == "" {
		model = DefaultModel
	}
	return &GroqClassifier{
		apiKey:   apiKey,
		model:    model,
		endpoint: groqEndpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *GroqClassifier) Classify(ctx context.Context, stageContext string, history []Turn, question string) (Result, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: stageContext})
	for _, t := range history {
		messages = append(messages, chatMessage{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: question})

	reqBody := chatRequest{
		Model:          g.model,
		Messages:       messages,
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("groq: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("groq: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("groq: status %d: %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return Result{}, fmt.Errorf("groq: unmarshal: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return Result{}, fmt.Errorf("groq: empty choices")
	}

	return parseEnvelope(chatResp.Choices[0].Message.Content)
}
